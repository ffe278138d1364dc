package badge

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"net/url"

	"github.com/geocoder89/regportal/internal/domain/registration"
)

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func FileName(regNum string) string {
	return "badge-" + regNum + ".png"
}

// Sharer delivers a rendered badge somewhere outside the portal, e.g. by email.
type Sharer interface {
	ShareBadge(ctx context.Context, to string, reg registration.Registration, f File) error
}

type ShareMethod string

const (
	ShareEmail    ShareMethod = "email"
	ShareLink     ShareMethod = "link"
	ShareDownload ShareMethod = "download"
)

type ShareTarget struct {
	URL   string `json:"url"`
	Email string `json:"email" binding:"omitempty,email"`
}

type ShareResult struct {
	Method      ShareMethod `json:"method"`
	URL         string      `json:"url,omitempty"`
	DownloadURL string      `json:"downloadUrl,omitempty"`
	SentTo      string      `json:"sentTo,omitempty"`
}

type Service struct {
	sharer Sharer
	log    *slog.Logger
}

// NewService builds the badge service. sharer may be nil, in which case
// sharing always falls back to the link.
func NewService(sharer Sharer, log *slog.Logger) *Service {
	return &Service{sharer: sharer, log: log}
}

// Download rasterizes the badge to a PNG named badge-{regNum}.png.
func (s *Service) Download(ctx context.Context, reg registration.Registration) (File, error) {
	f, err := encode(reg)
	if err != nil {
		s.log.ErrorContext(ctx, "badge_render_failed", "registration_id", reg.ID, "err", err)
		return File{}, err
	}
	return f, nil
}

func encode(reg registration.Registration) (File, error) {
	img, err := Render(reg)
	if err != nil {
		return File{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return File{}, fmt.Errorf("encode png: %w", err)
	}

	return File{Name: FileName(reg.RegNum), ContentType: "image/png", Data: buf.Bytes()}, nil
}

// Share sends the badge through the configured sharer, falls back to the
// page link, and falls back to download when the badge cannot be rendered.
func (s *Service) Share(ctx context.Context, reg registration.Registration, target ShareTarget) ShareResult {
	f, err := encode(reg)
	if err != nil {
		s.log.WarnContext(ctx, "badge_share_render_failed", "registration_id", reg.ID, "err", err)
		return ShareResult{Method: ShareDownload, DownloadURL: DownloadPath(reg.EventID(), reg.ID)}
	}

	if s.sharer != nil && target.Email != "" {
		err := s.sharer.ShareBadge(ctx, target.Email, reg, f)
		if err == nil {
			return ShareResult{Method: ShareEmail, SentTo: target.Email}
		}
		s.log.WarnContext(ctx, "badge_share_send_failed", "registration_id", reg.ID, "err", err)
	}

	return ShareResult{Method: ShareLink, URL: target.URL}
}

func DownloadPath(eventID, registrationID string) string {
	return "/registration/my-registration/badge/" + url.PathEscape(eventID) +
		"/download?registrationId=" + url.QueryEscape(registrationID)
}
