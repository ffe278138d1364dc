package notifications

import (
	"log/slog"

	"github.com/geocoder89/regportal/internal/badge"
)

// Setup builds the breaker-protected support notifier and the badge sharer.
// Without SMTP there is no sharer: a logged badge never reaches anyone, so
// badge sharing falls back to the link.
func Setup(cfg EmailConfig, smtpEnabled bool, log *slog.Logger) (*ProtectedNotifier, badge.Sharer) {
	if !smtpEnabled {
		return NewProtectedNotifier(NewLogNotifier(log), ProtectedNotifierConfig{}), nil
	}

	n := NewProtectedNotifier(NewEmailNotifier(cfg), ProtectedNotifierConfig{})
	return n, n
}
