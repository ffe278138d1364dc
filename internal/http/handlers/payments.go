package handlers

import (
	"context"
	"net/http"
	"net/url"

	paymentdomain "github.com/geocoder89/regportal/internal/domain/payment"
	"github.com/geocoder89/regportal/internal/payment"
	"github.com/gin-gonic/gin"
)

type PaymentFlow interface {
	Initiate(ctx context.Context, registrationID string) (payment.Checkout, error)
	Verify(ctx context.Context, registrationID string, req paymentdomain.VerifyRequest) payment.Outcome
	Dismiss(ctx context.Context, registrationID, paymentID string) payment.Outcome
}

type PaymentsHandler struct {
	flow PaymentFlow
}

func NewPaymentsHandler(flow PaymentFlow) *PaymentsHandler {
	return &PaymentsHandler{flow: flow}
}

type VerifyPaymentRequest struct {
	RegistrationID string `json:"registrationId" binding:"required"`
	paymentdomain.VerifyRequest
}

type DismissPaymentRequest struct {
	RegistrationID string `json:"registrationId" binding:"required"`
	PaymentID      string `json:"paymentId"`
}

type CheckoutResponse struct {
	Checkout payment.Checkout        `json:"checkout"`
	Options  payment.CheckoutOptions `json:"options"`
}

type OutcomeResponse struct {
	payment.Outcome
	RedirectTo string `json:"redirectTo"`
}

// Checkout creates a fresh order every time the payment page is opened.
func (h *PaymentsHandler) Checkout(ctx *gin.Context) {
	regID := ctx.Query("registrationId")
	if regID == "" {
		RespondMissingParam(ctx, "registrationId is required")
		return
	}

	co, err := h.flow.Initiate(ctx.Request.Context(), regID)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, CheckoutResponse{Checkout: co, Options: co.Options()})
}

// Verify always answers 200; the outcome kind says where to go next.
func (h *PaymentsHandler) Verify(ctx *gin.Context) {
	var req VerifyPaymentRequest
	if !BindJSON(ctx, &req) {
		return
	}

	out := h.flow.Verify(ctx.Request.Context(), req.RegistrationID, req.VerifyRequest)
	ctx.JSON(http.StatusOK, OutcomeResponse{Outcome: out, RedirectTo: payment.Route(out)})
}

func (h *PaymentsHandler) Dismiss(ctx *gin.Context) {
	var req DismissPaymentRequest
	if !BindJSON(ctx, &req) {
		return
	}

	out := h.flow.Dismiss(ctx.Request.Context(), req.RegistrationID, req.PaymentID)
	ctx.JSON(http.StatusOK, OutcomeResponse{Outcome: out, RedirectTo: payment.Route(out)})
}

// ResultPage echoes a redirect back as structured data for the given outcome kind.
func (h *PaymentsHandler) ResultPage(kind payment.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		regID := ctx.Query("registrationId")
		if regID == "" {
			RespondMissingParam(ctx, "registrationId is required")
			return
		}

		out := payment.Outcome{
			Kind:           kind,
			RegistrationID: regID,
			PaymentID:      ctx.Query("paymentId"),
		}

		if kind != payment.KindSuccess {
			out.Message = ctx.Query("message")
			out.Code = ctx.Query("code")
		}

		resp := gin.H{"outcome": out}
		if kind == payment.KindSuccess {
			resp["myRegistrationPath"] = "/registration/my-registration?registrationId=" + url.QueryEscape(regID)
		} else {
			resp["retryPath"] = payment.CheckoutPath(regID)
		}

		ctx.JSON(http.StatusOK, resp)
	}
}
