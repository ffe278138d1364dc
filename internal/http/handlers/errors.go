package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/regportal/internal/badge"
	"github.com/geocoder89/regportal/internal/domain/event"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/gateway"
	"github.com/geocoder89/regportal/internal/payment"
	"github.com/geocoder89/regportal/internal/wizard"
	"github.com/gin-gonic/gin"
)

const networkMessage = "Network error, check your connection"

// RespondServiceError maps errors from the wizard, payment, badge and gateway
// layers onto the error envelope.
func RespondServiceError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)

	switch {
	case errors.Is(err, wizard.ErrMissingEntry), errors.Is(err, payment.ErrMissingRegistrationID):
		RespondMissingParam(ctx, err.Error())
	case errors.Is(err, wizard.ErrIncompleteDetails):
		RespondError(ctx, http.StatusBadRequest, "incomplete_details", err.Error(), nil)
	case errors.Is(err, wizard.ErrInvalidTransition):
		RespondConflict(ctx, "invalid_transition", err.Error())
	case errors.Is(err, wizard.ErrRegistrationUnavailable):
		RespondConflict(ctx, "registration_unavailable", "Registration is not open for this event")
	case errors.Is(err, payment.ErrInvalidAmount):
		RespondError(ctx, http.StatusBadRequest, "invalid_amount", payment.InvalidAmountMessage, nil)
	case errors.Is(err, payment.ErrAlreadyPaid):
		RespondConflict(ctx, "already_paid", "This registration is already paid")
	case errors.Is(err, badge.ErrNotRenderable):
		RespondError(ctx, http.StatusUnprocessableEntity, "badge_unavailable", err.Error(), nil)
	case errors.Is(err, event.ErrNotFound), errors.Is(err, registration.ErrNotFound), gateway.IsNotFound(err):
		RespondNotFound(ctx, notFoundMessage(err))
	case gateway.IsUnauthorized(err):
		RespondUnauthorized(ctx, "Your session has expired, please log in again")
	case gateway.IsNetwork(err), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		RespondError(ctx, http.StatusBadGateway, "network_error", networkMessage, nil)
	default:
		if apiErr, ok := gateway.AsAPIError(err); ok {
			respondUpstream(ctx, apiErr)
			return
		}
		RespondInternal(ctx, "Something went wrong")
	}
}

// Backend rejections are meant for the attendee and pass through; 5xx do not.
// A success:false envelope on a 2xx is a rejection too and answers 422.
func respondUpstream(ctx *gin.Context, apiErr *gateway.APIError) {
	switch {
	case apiErr.Status >= 400 && apiErr.Status < 500:
		RespondError(ctx, apiErr.Status, "upstream_rejected", apiErr.Message, nil)
		return
	case apiErr.Status < 400:
		RespondError(ctx, http.StatusUnprocessableEntity, "upstream_rejected", apiErr.Message, nil)
		return
	}
	RespondError(ctx, http.StatusBadGateway, "upstream_error", "The registration service is unavailable, please try again", nil)
}

func notFoundMessage(err error) string {
	if apiErr, ok := gateway.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
