package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/http/middlewares"
	"github.com/geocoder89/regportal/internal/wizard"
	"github.com/gin-gonic/gin"
)

type EntryResolver interface {
	Resolve(ctx context.Context, in wizard.Entry) (wizard.View, error)
}

type DraftEditor interface {
	Snapshot(ctx context.Context, key wizard.DraftKey) (wizard.Snapshot, error)
	Apply(ctx context.Context, key wizard.DraftKey, fn func(*wizard.Wizard) error) (wizard.Draft, error)
	SubmitBasicDetails(ctx context.Context, key wizard.DraftKey, details registration.BasicDetails) (wizard.Draft, error)
	Discard(ctx context.Context, key wizard.DraftKey) error
}

type RegistrationConfirmer interface {
	Confirm(ctx context.Context, key wizard.DraftKey) (wizard.ConfirmResult, error)
}

type RegistrationHandler struct {
	resolver  EntryResolver
	drafts    DraftEditor
	confirmer RegistrationConfirmer
}

func NewRegistrationHandler(resolver EntryResolver, drafts DraftEditor, confirmer RegistrationConfirmer) *RegistrationHandler {
	return &RegistrationHandler{resolver: resolver, drafts: drafts, confirmer: confirmer}
}

type AccompanyingRequest struct {
	AccompanyingPersons []registration.AccompanyingPerson `json:"accompanyingPersons" binding:"required,max=10,dive"`
}

type WorkshopsRequest struct {
	Selections map[string]string `json:"selections" binding:"required"`
}

type SelectWorkshopRequest struct {
	Group      string `json:"group" binding:"required"`
	WorkshopID string `json:"workshopId"`
}

// MyRegistration decides what the attendee sees for an event: their existing
// registration, a pending payment, a closed notice, or the wizard.
func (h *RegistrationHandler) MyRegistration(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return
	}

	fromBadge, _ := strconv.ParseBool(ctx.Query("fromBadge"))

	view, err := h.resolver.Resolve(ctx.Request.Context(), wizard.Entry{
		UserID:         userID,
		EventID:        ctx.Query("eventId"),
		RegistrationID: ctx.Query("registrationId"),
		FromBadge:      fromBadge,
	})
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

func (h *RegistrationHandler) Wizard(ctx *gin.Context) {
	key, ok := draftKey(ctx)
	if !ok {
		return
	}

	snap, err := h.drafts.Snapshot(ctx.Request.Context(), key)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

func (h *RegistrationHandler) SubmitBasicDetails(ctx *gin.Context) {
	var req registration.BasicDetails
	if !BindJSON(ctx, &req) {
		return
	}

	key, ok := draftKey(ctx)
	if !ok {
		return
	}

	d, err := h.drafts.SubmitBasicDetails(ctx.Request.Context(), key, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (h *RegistrationHandler) SubmitAccompanying(ctx *gin.Context) {
	var req AccompanyingRequest
	if !BindJSON(ctx, &req) {
		return
	}

	h.apply(ctx, func(w *wizard.Wizard) error { return w.SubmitAccompanying(req.AccompanyingPersons) })
}

func (h *RegistrationHandler) SkipAccompanying(ctx *gin.Context) {
	h.apply(ctx, (*wizard.Wizard).SkipAccompanying)
}

func (h *RegistrationHandler) SubmitWorkshops(ctx *gin.Context) {
	var req WorkshopsRequest
	if !BindJSON(ctx, &req) {
		return
	}

	h.apply(ctx, func(w *wizard.Wizard) error { return w.SubmitWorkshops(req.Selections) })
}

// SelectWorkshop records a single choice without leaving the step.
// An empty workshopId clears the group.
func (h *RegistrationHandler) SelectWorkshop(ctx *gin.Context) {
	var req SelectWorkshopRequest
	if !BindJSON(ctx, &req) {
		return
	}

	h.apply(ctx, func(w *wizard.Wizard) error { return w.SelectWorkshop(req.Group, req.WorkshopID) })
}

func (h *RegistrationHandler) SkipWorkshops(ctx *gin.Context) {
	h.apply(ctx, (*wizard.Wizard).SkipWorkshops)
}

func (h *RegistrationHandler) Back(ctx *gin.Context) {
	h.apply(ctx, (*wizard.Wizard).Back)
}

func (h *RegistrationHandler) Reset(ctx *gin.Context) {
	key, ok := draftKey(ctx)
	if !ok {
		return
	}

	if err := h.drafts.Discard(ctx.Request.Context(), key); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	snap, err := h.drafts.Snapshot(ctx.Request.Context(), key)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

func (h *RegistrationHandler) Confirm(ctx *gin.Context) {
	key, ok := draftKey(ctx)
	if !ok {
		return
	}

	res, err := h.confirmer.Confirm(ctx.Request.Context(), key)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.Header("Location", res.PaymentPath)
	ctx.JSON(http.StatusCreated, res)
}

func (h *RegistrationHandler) apply(ctx *gin.Context, fn func(*wizard.Wizard) error) {
	key, ok := draftKey(ctx)
	if !ok {
		return
	}

	d, err := h.drafts.Apply(ctx.Request.Context(), key, fn)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}

// draftKey scopes drafts to the authenticated user and the event in the path.
func draftKey(ctx *gin.Context) (wizard.DraftKey, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return wizard.DraftKey{}, false
	}

	eventID := ctx.Param("eventId")
	if eventID == "" {
		RespondMissingParam(ctx, "eventId is required")
		return wizard.DraftKey{}, false
	}

	return wizard.DraftKey{UserID: userID, EventID: eventID}, true
}
