package wizard

import (
	"context"
	"errors"
	"net/url"

	"github.com/geocoder89/regportal/internal/domain/event"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/payment"
	"golang.org/x/sync/errgroup"
)

var ErrMissingEntry = errors.New("eventId or registrationId is required")

type RegistrationReader interface {
	GetRegistration(ctx context.Context, registrationID string) (registration.Registration, error)
	GetMyRegistration(ctx context.Context, eventID string) (*registration.Registration, error)
}

type ViewKind string

const (
	ViewExisting       ViewKind = "existing"
	ViewPaymentPending ViewKind = "payment_pending"
	ViewUnavailable    ViewKind = "unavailable"
	ViewClosed         ViewKind = "closed"
	ViewWizard         ViewKind = "wizard"
)

// Entry is how the attendee arrived at the my-registration page.
type Entry struct {
	UserID         string
	EventID        string
	RegistrationID string
	FromBadge      bool
}

type View struct {
	Kind         ViewKind                    `json:"kind"`
	Registration *registration.Registration  `json:"registration,omitempty"`
	Settings     *event.RegistrationSettings `json:"settings,omitempty"`
	Draft        *Draft                      `json:"draft,omitempty"`
	BadgePath    string                      `json:"badgePath,omitempty"`
	PaymentPath  string                      `json:"paymentPath,omitempty"`
}

type Resolver struct {
	regs       RegistrationReader
	settings   SettingsReader
	controller *Controller
}

func NewResolver(regs RegistrationReader, settings SettingsReader, controller *Controller) *Resolver {
	return &Resolver{regs: regs, settings: settings, controller: controller}
}

// Resolve decides which view the attendee lands on.
func (r *Resolver) Resolve(ctx context.Context, in Entry) (View, error) {
	if in.EventID == "" && in.RegistrationID == "" {
		return View{}, ErrMissingEntry
	}

	key := DraftKey{UserID: in.UserID, EventID: in.EventID}
	if in.FromBadge && in.EventID != "" {
		if err := r.controller.Discard(ctx, key); err != nil {
			return View{}, err
		}
	}

	if in.RegistrationID != "" {
		reg, err := r.regs.GetRegistration(ctx, in.RegistrationID)
		if err != nil {
			return View{}, err
		}
		return existingView(&reg), nil
	}

	var (
		settings event.RegistrationSettings
		mine     *registration.Registration
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = r.settings.GetRegistrationSettings(gctx, in.EventID)
		return err
	})
	g.Go(func() error {
		var err error
		mine, err = r.regs.GetMyRegistration(gctx, in.EventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}
	// the caller went away while both calls were in flight
	if err := ctx.Err(); err != nil {
		return View{}, err
	}

	if mine != nil {
		if mine.IsPaid {
			return existingView(mine), nil
		}
		return View{
			Kind:         ViewPaymentPending,
			Registration: mine,
			PaymentPath:  payment.CheckoutPath(mine.ID),
		}, nil
	}

	if !settings.AttendeeRegistration {
		return View{Kind: ViewUnavailable, Settings: &settings}, nil
	}
	if !settings.WindowOpen(r.controller.now()) {
		return View{Kind: ViewClosed, Settings: &settings}, nil
	}

	w, err := r.controller.Open(ctx, key)
	if errors.Is(err, ErrRegistrationUnavailable) {
		return View{Kind: ViewUnavailable, Settings: &settings}, nil
	}
	if err != nil {
		return View{}, err
	}

	d := w.Draft(key, r.controller.now())
	return View{Kind: ViewWizard, Settings: &settings, Draft: &d}, nil
}

func existingView(reg *registration.Registration) View {
	v := View{Kind: ViewExisting, Registration: reg}
	if reg.IsPaid {
		v.BadgePath = BadgePath(reg.EventID(), reg.ID)
	} else {
		v.PaymentPath = payment.CheckoutPath(reg.ID)
	}
	return v
}

func BadgePath(eventID, registrationID string) string {
	return "/registration/my-registration/badge/" + url.PathEscape(eventID) +
		"?registrationId=" + url.QueryEscape(registrationID)
}
