package notifications

import (
	"context"

	"github.com/geocoder89/regportal/internal/badge"
	"github.com/geocoder89/regportal/internal/domain/registration"
)

// SupportAlert asks a human to look at a payment the portal could not confirm.
type SupportAlert struct {
	PaymentID      string
	RegistrationID string
	EventID        string
	UserID         string
	Amount         float64
	Checks         int
	Detail         string
}

type Notifier interface {
	NotifySupport(ctx context.Context, alert SupportAlert) error
	ShareBadge(ctx context.Context, to string, reg registration.Registration, f badge.File) error
}
