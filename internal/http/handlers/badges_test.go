package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"testing"

	"github.com/geocoder89/regportal/internal/badge"
	"github.com/geocoder89/regportal/internal/domain/event"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/gateway"
	"github.com/geocoder89/regportal/internal/http/handlers"
	"github.com/geocoder89/regportal/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrations struct {
	regs map[string]registration.Registration
}

func (f *fakeRegistrations) GetRegistration(_ context.Context, id string) (registration.Registration, error) {
	reg, ok := f.regs[id]
	if !ok {
		return registration.Registration{}, &gateway.APIError{Status: http.StatusNotFound, Message: "Registration not found"}
	}
	return reg, nil
}

func badgeFixture() *fakeRegistrations {
	return &fakeRegistrations{regs: map[string]registration.Registration{
		"R1": {
			ID:       "R1",
			RegNum:   "RAC001",
			Event:    registration.EventRef{ID: "E1", Event: &event.Event{ID: "E1", Name: "RACON 2026", StartDate: testNow, EndDate: testNow}},
			FullName: "Asha Rao",
			Email:    "asha@example.com",
			Category: registration.Category{ID: "S1", Name: "Delegate", Amount: 2500},
			IsPaid:   true,
		},
		"R2": {ID: "R2", Event: registration.EventRef{ID: "E1"}, FullName: "No Number"},
	}}
}

func newBadgesHandler() *handlers.BadgesHandler {
	svc := badge.NewService(nil, observability.NewDiscardLogger())
	return handlers.NewBadgesHandler(badgeFixture(), svc, "https://portal.example.com")
}

func TestBadgeHandler(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{name: "found", target: "/registration/my-registration/badge/E1?registrationId=R1", wantStatus: http.StatusOK},
		{name: "missing_registration_id", target: "/registration/my-registration/badge/E1", wantStatus: http.StatusBadRequest, wantCode: "missing_parameter"},
		{name: "other_event", target: "/registration/my-registration/badge/E9?registrationId=R1", wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "unknown_registration", target: "/registration/my-registration/badge/E1?registrationId=R404", wantStatus: http.StatusNotFound, wantCode: "not_found"},
	}

	h := newBadgesHandler()
	r := setupAuthedRouter(http.MethodGet, "/registration/my-registration/badge/:eventId", h.Badge)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, tt.target, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Error.Code)
				return
			}

			var resp handlers.BadgeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "badge-RAC001.png", resp.FileName)
			assert.Contains(t, resp.QRContent, "RAC001")
			assert.Equal(t, "/registration/my-registration/badge/E1/download?registrationId=R1", resp.DownloadPath)
		})
	}
}

func TestBadgeDownloadHandler(t *testing.T) {
	h := newBadgesHandler()
	r := setupAuthedRouter(http.MethodGet, "/registration/my-registration/badge/:eventId/download", h.Download)

	t.Run("png_attachment", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/registration/my-registration/badge/E1/download?registrationId=R1", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="badge-RAC001.png"`, w.Header().Get("Content-Disposition"))

		img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, badge.Width, img.Bounds().Dx())
		assert.Equal(t, badge.Height, img.Bounds().Dy())
	})

	t.Run("not_renderable", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/registration/my-registration/badge/E1/download?registrationId=R2", "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		assert.Equal(t, "badge_unavailable", decodeError(t, w).Error.Code)
	})
}

func TestBadgeShareHandler(t *testing.T) {
	h := newBadgesHandler()
	r := setupAuthedRouter(http.MethodPost, "/registration/my-registration/badge/:eventId/share", h.Share)

	t.Run("falls_back_to_link", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/registration/my-registration/badge/E1/share?registrationId=R1", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res badge.ShareResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, badge.ShareLink, res.Method)
		assert.Equal(t, "https://portal.example.com/registration/my-registration/badge/E1?registrationId=R1", res.URL)
	})

	t.Run("render_failure_falls_back_to_download", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/registration/my-registration/badge/E1/share?registrationId=R2", `{"email":"friend@example.com"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res badge.ShareResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, badge.ShareDownload, res.Method)
		assert.NotEmpty(t, res.DownloadURL)
	})

	t.Run("invalid_email", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/registration/my-registration/badge/E1/share?registrationId=R1", `{"email":"nope"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
