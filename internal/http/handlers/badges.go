package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/regportal/internal/badge"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/wizard"
	"github.com/gin-gonic/gin"
)

type RegistrationFetcher interface {
	GetRegistration(ctx context.Context, registrationID string) (registration.Registration, error)
}

type BadgeService interface {
	Download(ctx context.Context, reg registration.Registration) (badge.File, error)
	Share(ctx context.Context, reg registration.Registration, target badge.ShareTarget) badge.ShareResult
}

type BadgesHandler struct {
	regs          RegistrationFetcher
	badges        BadgeService
	publicBaseURL string
}

func NewBadgesHandler(regs RegistrationFetcher, badges BadgeService, publicBaseURL string) *BadgesHandler {
	return &BadgesHandler{regs: regs, badges: badges, publicBaseURL: publicBaseURL}
}

type BadgeResponse struct {
	Registration registration.Registration `json:"registration"`
	QRContent    string                    `json:"qrContent"`
	FileName     string                    `json:"fileName"`
	DownloadPath string                    `json:"downloadPath"`
}

func (h *BadgesHandler) Badge(ctx *gin.Context) {
	reg, ok := h.load(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, BadgeResponse{
		Registration: reg,
		QRContent:    badge.QRContent(reg),
		FileName:     badge.FileName(reg.RegNum),
		DownloadPath: badge.DownloadPath(reg.EventID(), reg.ID),
	})
}

func (h *BadgesHandler) Download(ctx *gin.Context) {
	reg, ok := h.load(ctx)
	if !ok {
		return
	}

	f, err := h.badges.Download(ctx.Request.Context(), reg)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+f.Name+`"`)
	ctx.Header("Cache-Control", "private, no-store")
	ctx.Data(http.StatusOK, f.ContentType, f.Data)
}

// Share never fails once the registration is loaded; the result says which
// fallback was used.
func (h *BadgesHandler) Share(ctx *gin.Context) {
	var target badge.ShareTarget
	if ctx.Request.ContentLength != 0 && !BindJSON(ctx, &target) {
		return
	}

	reg, ok := h.load(ctx)
	if !ok {
		return
	}

	if target.URL == "" {
		target.URL = h.publicBaseURL + wizard.BadgePath(reg.EventID(), reg.ID)
	}

	ctx.JSON(http.StatusOK, h.badges.Share(ctx.Request.Context(), reg, target))
}

// load fetches the registration named in the query and checks it belongs to
// the event in the path.
func (h *BadgesHandler) load(ctx *gin.Context) (registration.Registration, bool) {
	regID := ctx.Query("registrationId")
	if regID == "" {
		RespondMissingParam(ctx, "registrationId is required")
		return registration.Registration{}, false
	}

	reg, err := h.regs.GetRegistration(ctx.Request.Context(), regID)
	if err != nil {
		RespondServiceError(ctx, err)
		return registration.Registration{}, false
	}

	if eventID := ctx.Param("eventId"); eventID != "" && reg.EventID() != eventID {
		RespondNotFound(ctx, "registration not found for this event")
		return registration.Registration{}, false
	}

	return reg, true
}
