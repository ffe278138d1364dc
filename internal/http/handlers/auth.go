package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/geocoder89/regportal/internal/gateway"
	"github.com/gin-gonic/gin"
)

// AccountRelay is the part of the backend that owns attendee accounts.
// The portal never stores credentials; it relays these calls as-is.
type AccountRelay interface {
	RegisterUser(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	Login(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	ForgotPassword(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	ResetPassword(ctx context.Context, resetToken string, body json.RawMessage) (json.RawMessage, error)
	Logout(ctx context.Context) error
}

type AuthHandler struct {
	accounts AccountRelay
}

func NewAuthHandler(accounts AccountRelay) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type SignUpRequest struct {
	FullName string `json:"fullName" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Mobile   string `json:"mobile" binding:"required,min=7,max=15"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest
	if !BindJSON(ctx, &req) {
		return
	}
	h.relay(ctx, http.StatusCreated, req, h.accounts.RegisterUser)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}
	h.relay(ctx, http.StatusOK, req, h.accounts.Login)
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}
	h.relay(ctx, http.StatusOK, req, h.accounts.ForgotPassword)
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	token := ctx.Param("token")
	if token == "" {
		RespondBadRequest(ctx, "reset token is required", nil)
		return
	}

	var req ResetPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	h.relay(ctx, http.StatusOK, req, func(c context.Context, body json.RawMessage) (json.RawMessage, error) {
		return h.accounts.ResetPassword(c, token, body)
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	if err := h.accounts.Logout(ctx.Request.Context()); err != nil {
		RespondServiceError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) relay(ctx *gin.Context, status int, req any, call func(context.Context, json.RawMessage) (json.RawMessage, error)) {
	body, err := json.Marshal(req)
	if err != nil {
		RespondInternal(ctx, "Could not encode request")
		return
	}

	out, err := call(ctx.Request.Context(), body)
	if apiErr, ok := gateway.AsAPIError(err); ok {
		// a rejected login is not an expired session
		_ = ctx.Error(err)
		respondUpstream(ctx, apiErr)
		return
	}
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	if len(out) == 0 {
		ctx.Status(status)
		return
	}
	ctx.Data(status, "application/json; charset=utf-8", out)
}
