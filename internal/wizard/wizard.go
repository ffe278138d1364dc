package wizard

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/geocoder89/regportal/internal/domain/event"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/formstate"
)

type Step string

const (
	StepBasicDetails  Step = "basic_details"
	StepAccompanying  Step = "accompanying_persons"
	StepWorkshops     Step = "workshops"
	StepConfirmAndPay Step = "confirm_and_pay"
)

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrIncompleteDetails = errors.New("basic details incomplete")
)

// Plan derives the step sequence from the event settings. Optional steps the
// event does not offer are left out entirely.
func Plan(s event.RegistrationSettings) []Step {
	steps := []Step{StepBasicDetails}
	if s.AccompanyRegistration {
		steps = append(steps, StepAccompanying)
	}
	if s.WorkshopRegistration {
		steps = append(steps, StepWorkshops)
	}
	return append(steps, StepConfirmAndPay)
}

// Wizard is the step cursor plus the form it collects. It is not safe for
// concurrent use; callers load, mutate and persist it per request.
type Wizard struct {
	steps  []Step
	cursor int
	form   formstate.State
}

func New(steps []Step) *Wizard {
	return &Wizard{steps: slices.Clone(steps), form: formstate.New()}
}

// Draft is the persisted form of a Wizard for one (user, event).
type Draft struct {
	UserID    string          `json:"userId"`
	EventID   string          `json:"eventId"`
	Steps     []Step          `json:"steps"`
	Current   Step            `json:"currentStep"`
	Form      formstate.State `json:"form"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func FromDraft(d Draft) *Wizard {
	w := &Wizard{steps: slices.Clone(d.Steps), form: d.Form.Clone()}
	if i := slices.Index(w.steps, d.Current); i >= 0 {
		w.cursor = i
	}
	return w
}

func (w *Wizard) Draft(key DraftKey, now time.Time) Draft {
	return Draft{
		UserID:    key.UserID,
		EventID:   key.EventID,
		Steps:     slices.Clone(w.steps),
		Current:   w.Current(),
		Form:      w.form.Clone(),
		UpdatedAt: now.UTC(),
	}
}

func (w *Wizard) Steps() []Step { return slices.Clone(w.steps) }

func (w *Wizard) Current() Step { return w.steps[w.cursor] }

func (w *Wizard) Form() formstate.State { return w.form.Clone() }

func (w *Wizard) Has(step Step) bool { return slices.Contains(w.steps, step) }

func (w *Wizard) at(step Step, action string) error {
	if w.Current() != step {
		return fmt.Errorf("%w: cannot %s at step %s", ErrInvalidTransition, action, w.Current())
	}
	return nil
}

func (w *Wizard) advance() {
	if w.cursor < len(w.steps)-1 {
		w.cursor++
	}
}

func (w *Wizard) SubmitBasicDetails(details registration.BasicDetails) error {
	if err := w.at(StepBasicDetails, "submit basic details"); err != nil {
		return err
	}

	next := formstate.UpdateBasicDetails(w.form, details)
	if err := complete(next.BasicDetails); err != nil {
		return err
	}

	w.form = next
	w.advance()
	return nil
}

func complete(b registration.BasicDetails) error {
	switch {
	case b.FullName == "", b.Email == "", b.Mobile == "":
		return fmt.Errorf("%w: identity fields missing", ErrIncompleteDetails)
	case b.RegistrationCategory.ID == "":
		return fmt.Errorf("%w: registration category required", ErrIncompleteDetails)
	case b.MealPreference == "":
		return fmt.Errorf("%w: meal preference required", ErrIncompleteDetails)
	case !b.AcceptedTerms:
		return fmt.Errorf("%w: terms must be accepted", ErrIncompleteDetails)
	}
	return nil
}

func (w *Wizard) SubmitAccompanying(persons []registration.AccompanyingPerson) error {
	if err := w.at(StepAccompanying, "submit accompanying persons"); err != nil {
		return err
	}
	w.form = formstate.SetAccompanyingPersons(w.form, persons)
	w.advance()
	return nil
}

func (w *Wizard) SkipAccompanying() error {
	if err := w.at(StepAccompanying, "skip accompanying persons"); err != nil {
		return err
	}
	w.form = formstate.SkipAccompanyingPersons(w.form)
	w.advance()
	return nil
}

func (w *Wizard) SubmitWorkshops(selections map[string]string) error {
	if err := w.at(StepWorkshops, "submit workshops"); err != nil {
		return err
	}
	w.form = formstate.SetSelectedWorkshops(w.form, selections)
	w.advance()
	return nil
}

// SelectWorkshop changes one group's selection without leaving the step.
func (w *Wizard) SelectWorkshop(group, workshopID string) error {
	if err := w.at(StepWorkshops, "select workshop"); err != nil {
		return err
	}
	w.form = formstate.SelectWorkshop(w.form, group, workshopID)
	return nil
}

func (w *Wizard) SkipWorkshops() error {
	if err := w.at(StepWorkshops, "skip workshops"); err != nil {
		return err
	}
	w.form = formstate.SkipWorkshops(w.form)
	w.advance()
	return nil
}

// Back moves one step earlier. Entered data is kept.
func (w *Wizard) Back() error {
	if w.cursor == 0 {
		return fmt.Errorf("%w: already at first step", ErrInvalidTransition)
	}
	w.cursor--
	return nil
}

func (w *Wizard) Reset() {
	w.form = formstate.Reset(w.form)
	w.cursor = 0
}
