package notifications

import (
	"context"
	"fmt"
	"io"

	"github.com/geocoder89/regportal/internal/badge"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"gopkg.in/gomail.v2"
)

type EmailConfig struct {
	Host         string
	Port         int
	User         string
	Pass         string
	Sender       string
	SupportEmail string
}

// EmailNotifier sends mail over SMTP.
type EmailNotifier struct {
	cfg    EmailConfig
	dialer *gomail.Dialer
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
	}
}

func (n *EmailNotifier) NotifySupport(ctx context.Context, a SupportAlert) error {
	if n.cfg.SupportEmail == "" {
		return fmt.Errorf("support email not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.Sender)
	m.SetHeader("To", n.cfg.SupportEmail)
	m.SetHeader("Subject", fmt.Sprintf("Payment needs attention: registration %s", a.RegistrationID))
	m.SetBody("text/plain", supportBody(a))

	return n.send(ctx, m)
}

func supportBody(a SupportAlert) string {
	return fmt.Sprintf(
		"A payment could not be confirmed after %d checks.\n\n"+
			"Payment record: %s\nRegistration: %s\nEvent: %s\nUser: %s\nAmount: %.2f\n\nLast error: %s\n",
		a.Checks, a.PaymentID, a.RegistrationID, a.EventID, a.UserID, a.Amount, a.Detail,
	)
}

func (n *EmailNotifier) ShareBadge(ctx context.Context, to string, reg registration.Registration, f badge.File) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.Sender)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Badge %s for %s", reg.RegNum, reg.FullName))
	m.SetBody("text/plain", fmt.Sprintf("%s shared their event badge with you. It is attached to this email.\n", reg.FullName))
	m.Attach(f.Name,
		gomail.SetHeader(map[string][]string{"Content-Type": {f.ContentType}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(f.Data)
			return err
		}),
	)

	return n.send(ctx, m)
}

// send runs the blocking SMTP exchange but stops waiting when ctx ends.
func (n *EmailNotifier) send(ctx context.Context, m *gomail.Message) error {
	done := make(chan error, 1)
	go func() { done <- n.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
