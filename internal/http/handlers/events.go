package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/regportal/internal/domain/event"
	"github.com/gin-gonic/gin"
)

type EventReader interface {
	GetEvent(ctx context.Context, eventID string) (event.Event, error)
	GetTermsAndConditions(ctx context.Context, eventID string) (event.TermsAndConditions, error)
}

type EventsHandler struct {
	events EventReader
}

func NewEventsHandler(events EventReader) *EventsHandler {
	return &EventsHandler{events: events}
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	ev, err := h.events.GetEvent(ctx.Request.Context(), ctx.Param("eventId"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ev)
}

// TermsAndConditions is public and cacheable; the terms change rarely during an event.
func (h *EventsHandler) TermsAndConditions(ctx *gin.Context) {
	terms, err := h.events.GetTermsAndConditions(ctx.Request.Context(), ctx.Param("eventId"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, terms, 300)
}
