package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/payment"
)

type RegistrationWriter interface {
	CreateRegistration(ctx context.Context, req registration.CreateRequest) (registration.Registration, error)
	AddAccompanyingPersons(ctx context.Context, registrationID string, persons []registration.AccompanyingPerson) error
}

type Confirmer struct {
	controller *Controller
	writer     RegistrationWriter
	log        *slog.Logger
}

func NewConfirmer(controller *Controller, writer RegistrationWriter, log *slog.Logger) *Confirmer {
	return &Confirmer{controller: controller, writer: writer, log: log}
}

type ConfirmResult struct {
	Registration      registration.Registration `json:"registration"`
	PaymentPath       string                    `json:"paymentPath"`
	AccompanyingSaved bool                      `json:"accompanyingSaved"`
}

// Confirm creates the backend registration from the draft and hands off to payment.
// Once the registration exists the draft is dropped, even if appending
// accompanying persons fails afterwards.
func (c *Confirmer) Confirm(ctx context.Context, key DraftKey) (ConfirmResult, error) {
	d, err := c.controller.drafts.Get(ctx, key)
	if errors.Is(err, ErrDraftNotFound) {
		return ConfirmResult{}, fmt.Errorf("%w: no registration in progress", ErrInvalidTransition)
	}
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("load draft: %w", err)
	}

	w := FromDraft(d)
	if len(d.Steps) == 0 || w.Current() != StepConfirmAndPay {
		return ConfirmResult{}, fmt.Errorf("%w: confirm is only allowed on the last step", ErrInvalidTransition)
	}

	form := w.Form()
	req := registration.CreateRequest{EventID: key.EventID, BasicDetails: form.BasicDetails}
	if w.Has(StepWorkshops) && !form.SkippedWorkshops {
		req.Workshops = form.WorkshopIDs()
	}

	reg, err := c.writer.CreateRegistration(ctx, req)
	if err != nil {
		return ConfirmResult{}, err
	}

	res := ConfirmResult{Registration: reg, PaymentPath: payment.CheckoutPath(reg.ID), AccompanyingSaved: true}

	if w.Has(StepAccompanying) && !form.SkippedAccompanying && len(form.AccompanyingPersons) > 0 {
		if err := c.writer.AddAccompanyingPersons(ctx, reg.ID, form.AccompanyingPersons); err != nil {
			c.log.WarnContext(ctx, "accompanying_persons_not_saved", "registration_id", reg.ID, "err", err)
			res.AccompanyingSaved = false
		} else {
			res.Registration.AccompanyingPersons = form.AccompanyingPersons
		}
	}

	if err := c.controller.Discard(ctx, key); err != nil {
		c.log.WarnContext(ctx, "draft_discard_failed", "draft", key.String(), "err", err)
	}

	return res, nil
}
