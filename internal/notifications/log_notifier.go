package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/geocoder89/regportal/internal/badge"
	"github.com/geocoder89/regportal/internal/domain/registration"
)

// LogNotifier writes notifications to the log instead of sending them.
// NOTIFIER_SLEEP_MS and NOTIFIER_FAIL simulate a slow or broken provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) simulate(ctx context.Context) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}
	return nil
}

func (n *LogNotifier) NotifySupport(ctx context.Context, a SupportAlert) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.WarnContext(ctx, "notification.support_alert",
		"payment_id", a.PaymentID,
		"registration_id", a.RegistrationID,
		"event_id", a.EventID,
		"amount", a.Amount,
		"checks", a.Checks,
		"detail", a.Detail,
	)
	return nil
}

func (n *LogNotifier) ShareBadge(ctx context.Context, to string, reg registration.Registration, f badge.File) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.badge_shared", "to", to, "reg_num", reg.RegNum, "file", f.Name, "bytes", len(f.Data))
	return nil
}
