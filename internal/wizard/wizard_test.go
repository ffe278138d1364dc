package wizard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/regportal/internal/domain/event"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/observability"
	"github.com/geocoder89/regportal/internal/repo/memory"
	"github.com/geocoder89/regportal/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu sync.Mutex

	settings    event.RegistrationSettings
	settingsErr error
	mine        *registration.Registration
	byID        map[string]registration.Registration

	created  []registration.CreateRequest
	appended map[string][]registration.AccompanyingPerson
	addErr   error

	settingsCalls int
}

func (f *fakeBackend) GetRegistrationSettings(context.Context, string) (event.RegistrationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsCalls++
	return f.settings, f.settingsErr
}

func (f *fakeBackend) GetRegistration(_ context.Context, id string) (registration.Registration, error) {
	reg, ok := f.byID[id]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	return reg, nil
}

func (f *fakeBackend) GetMyRegistration(context.Context, string) (*registration.Registration, error) {
	return f.mine, nil
}

func (f *fakeBackend) ListActiveSlabs(context.Context, string) ([]event.Slab, error) {
	return []event.Slab{{ID: "S1", Name: "Member", Amount: 2500, IsActive: true}}, nil
}

func (f *fakeBackend) ListActiveMealPreferences(context.Context, string) ([]event.MealPreference, error) {
	return []event.MealPreference{{ID: "M1", Name: "Veg"}}, nil
}

func (f *fakeBackend) ListWorkshops(context.Context, string) ([]event.Workshop, error) {
	return []event.Workshop{{ID: "W1", Name: "Airway", Group: "Pre-Conference"}}, nil
}

func (f *fakeBackend) CreateRegistration(_ context.Context, req registration.CreateRequest) (registration.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return registration.Registration{
		ID:       "R1",
		RegNum:   "RAC001",
		Event:    registration.EventRef{ID: req.EventID},
		FullName: req.FullName,
		Category: req.RegistrationCategory,
	}, nil
}

func (f *fakeBackend) AddAccompanyingPersons(_ context.Context, id string, persons []registration.AccompanyingPerson) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if f.appended == nil {
		f.appended = map[string][]registration.AccompanyingPerson{}
	}
	f.appended[id] = persons
	return nil
}

type harness struct {
	backend    *fakeBackend
	drafts     *memory.DraftsRepo
	controller *wizard.Controller
	resolver   *wizard.Resolver
	confirmer  *wizard.Confirmer
}

func newHarness(settings event.RegistrationSettings) *harness {
	b := &fakeBackend{settings: settings, byID: map[string]registration.Registration{}}
	drafts := memory.NewDraftsRepo(time.Hour)
	log := observability.NewDiscardLogger()

	c := wizard.NewController(drafts, b, b, log)
	return &harness{
		backend:    b,
		drafts:     drafts,
		controller: c,
		resolver:   wizard.NewResolver(b, b, c),
		confirmer:  wizard.NewConfirmer(c, b, log),
	}
}

var key = wizard.DraftKey{UserID: "U1", EventID: "E1"}

func validDetails() registration.BasicDetails {
	return registration.BasicDetails{
		FullName:             "Asha Menon",
		Email:                "asha@example.com",
		Mobile:               "9876543210",
		Affiliation:          "AIIMS",
		MealPreference:       "M1",
		RegistrationCategory: registration.Category{ID: "S1", Name: "Member", Amount: 2500},
		AcceptedTerms:        true,
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		settings event.RegistrationSettings
		want     []wizard.Step
	}{
		{"minimal", event.RegistrationSettings{AttendeeRegistration: true},
			[]wizard.Step{wizard.StepBasicDetails, wizard.StepConfirmAndPay}},
		{"accompany only", event.RegistrationSettings{AttendeeRegistration: true, AccompanyRegistration: true},
			[]wizard.Step{wizard.StepBasicDetails, wizard.StepAccompanying, wizard.StepConfirmAndPay}},
		{"all", event.RegistrationSettings{AttendeeRegistration: true, AccompanyRegistration: true, WorkshopRegistration: true},
			[]wizard.Step{wizard.StepBasicDetails, wizard.StepAccompanying, wizard.StepWorkshops, wizard.StepConfirmAndPay}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wizard.Plan(tt.settings))
		})
	}
}

func TestWizard_SkipOnlyForPlannedSteps(t *testing.T) {
	w := wizard.New(wizard.Plan(event.RegistrationSettings{AttendeeRegistration: true}))
	require.NoError(t, w.SubmitBasicDetails(validDetails()))

	assert.Equal(t, wizard.StepConfirmAndPay, w.Current())
	assert.ErrorIs(t, w.SkipAccompanying(), wizard.ErrInvalidTransition)
	assert.ErrorIs(t, w.SkipWorkshops(), wizard.ErrInvalidTransition)
}

func TestWizard_SkippingKeepsBasicDetails(t *testing.T) {
	w := wizard.New(wizard.Plan(event.RegistrationSettings{
		AttendeeRegistration: true, AccompanyRegistration: true, WorkshopRegistration: true,
	}))

	require.NoError(t, w.SubmitBasicDetails(validDetails()))
	require.NoError(t, w.SkipAccompanying())
	require.NoError(t, w.SkipWorkshops())

	assert.Equal(t, wizard.StepConfirmAndPay, w.Current())
	f := w.Form()
	assert.True(t, f.SkippedAccompanying)
	assert.True(t, f.SkippedWorkshops)
	assert.Equal(t, validDetails(), f.BasicDetails)
}

func TestWizard_BackNeverClearsData(t *testing.T) {
	w := wizard.New(wizard.Plan(event.RegistrationSettings{AttendeeRegistration: true, AccompanyRegistration: true}))
	require.NoError(t, w.SubmitBasicDetails(validDetails()))
	require.NoError(t, w.SubmitAccompanying([]registration.AccompanyingPerson{{Name: "Ravi"}}))

	require.NoError(t, w.Back())
	require.NoError(t, w.Back())
	assert.Equal(t, wizard.StepBasicDetails, w.Current())
	assert.Equal(t, validDetails(), w.Form().BasicDetails)
	assert.Len(t, w.Form().AccompanyingPersons, 1)

	assert.ErrorIs(t, w.Back(), wizard.ErrInvalidTransition)
}

func TestWizard_IncompleteDetailsRejected(t *testing.T) {
	w := wizard.New(wizard.Plan(event.RegistrationSettings{AttendeeRegistration: true}))

	d := validDetails()
	d.AcceptedTerms = false
	assert.ErrorIs(t, w.SubmitBasicDetails(d), wizard.ErrIncompleteDetails)
	assert.Equal(t, wizard.StepBasicDetails, w.Current())
}

func TestResolve_MinimalSettingsGoesStraightToConfirm(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})
	ctx := context.Background()

	view, err := h.resolver.Resolve(ctx, wizard.Entry{UserID: "U1", EventID: "E1"})
	require.NoError(t, err)
	require.Equal(t, wizard.ViewWizard, view.Kind)
	assert.Equal(t, []wizard.Step{wizard.StepBasicDetails, wizard.StepConfirmAndPay}, view.Draft.Steps)
	assert.Equal(t, wizard.StepBasicDetails, view.Draft.Current)

	d, err := h.controller.Apply(ctx, key, func(w *wizard.Wizard) error {
		return w.SubmitBasicDetails(validDetails())
	})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepConfirmAndPay, d.Current)
}

func TestResolve_PaidRegistrationBypassesWizard(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})
	h.backend.mine = &registration.Registration{ID: "R1", Event: registration.EventRef{ID: "E1"}, IsPaid: true}

	view, err := h.resolver.Resolve(context.Background(), wizard.Entry{UserID: "U1", EventID: "E1"})
	require.NoError(t, err)

	assert.Equal(t, wizard.ViewExisting, view.Kind)
	assert.Nil(t, view.Draft)
	assert.Equal(t, "/registration/my-registration/badge/E1?registrationId=R1", view.BadgePath)

	_, err = h.drafts.Get(context.Background(), key)
	assert.ErrorIs(t, err, wizard.ErrDraftNotFound, "no draft should be started")
}

func TestResolve_UnpaidRegistrationPointsToPayment(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})
	h.backend.mine = &registration.Registration{ID: "R1", Event: registration.EventRef{ID: "E1"}}

	view, err := h.resolver.Resolve(context.Background(), wizard.Entry{UserID: "U1", EventID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, wizard.ViewPaymentPending, view.Kind)
	assert.Equal(t, "/registration/payment?registrationId=R1", view.PaymentPath)
}

func TestResolve_AttendeeRegistrationOffNeverStartsWizard(t *testing.T) {
	h := newHarness(event.RegistrationSettings{
		AttendeeRegistration: false, AccompanyRegistration: true, WorkshopRegistration: true,
	})

	view, err := h.resolver.Resolve(context.Background(), wizard.Entry{UserID: "U1", EventID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, wizard.ViewUnavailable, view.Kind)

	_, err = h.controller.Apply(context.Background(), key, func(w *wizard.Wizard) error {
		return w.SubmitBasicDetails(validDetails())
	})
	assert.ErrorIs(t, err, wizard.ErrRegistrationUnavailable)
}

func TestResolve_ClosedWindow(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true, EndDate: &past})

	view, err := h.resolver.Resolve(context.Background(), wizard.Entry{UserID: "U1", EventID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, wizard.ViewClosed, view.Kind)
}

func TestResolve_RegistrationIDOnlyIsExisting(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})
	h.backend.byID["R9"] = registration.Registration{ID: "R9", Event: registration.EventRef{ID: "E1"}, IsPaid: true}

	view, err := h.resolver.Resolve(context.Background(), wizard.Entry{UserID: "U1", RegistrationID: "R9"})
	require.NoError(t, err)
	assert.Equal(t, wizard.ViewExisting, view.Kind)
	assert.Equal(t, 0, h.backend.settingsCalls)
}

func TestResolve_MissingEntry(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})
	_, err := h.resolver.Resolve(context.Background(), wizard.Entry{UserID: "U1"})
	assert.ErrorIs(t, err, wizard.ErrMissingEntry)
}

func TestResolve_FromBadgeResetsDraft(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})
	ctx := context.Background()

	_, err := h.controller.Apply(ctx, key, func(w *wizard.Wizard) error {
		return w.SubmitBasicDetails(validDetails())
	})
	require.NoError(t, err)

	view, err := h.resolver.Resolve(ctx, wizard.Entry{UserID: "U1", EventID: "E1", FromBadge: true})
	require.NoError(t, err)
	require.Equal(t, wizard.ViewWizard, view.Kind)
	assert.Equal(t, wizard.StepBasicDetails, view.Draft.Current)
	assert.Empty(t, view.Draft.Form.BasicDetails.FullName)
}

func TestResolve_ResumesExistingDraftWithOriginalPlan(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true, WorkshopRegistration: true})
	ctx := context.Background()

	_, err := h.controller.Apply(ctx, key, func(w *wizard.Wizard) error {
		return w.SubmitBasicDetails(validDetails())
	})
	require.NoError(t, err)

	// settings flip after the draft was planned
	h.backend.settings.WorkshopRegistration = false

	view, err := h.resolver.Resolve(ctx, wizard.Entry{UserID: "U1", EventID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepWorkshops, view.Draft.Current)
}

func TestResolve_SettingsErrorPropagates(t *testing.T) {
	h := newHarness(event.RegistrationSettings{})
	h.backend.settingsErr = errors.New("boom")

	_, err := h.resolver.Resolve(context.Background(), wizard.Entry{UserID: "U1", EventID: "E1"})
	assert.Error(t, err)
}

func TestSnapshot_LoadsCatalogForPlannedSteps(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})

	snap, err := h.controller.Snapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Len(t, snap.Slabs, 1)
	assert.Len(t, snap.MealPreferences, 1)
	assert.Nil(t, snap.Workshops, "workshops are not offered for this event")
}

func TestConfirm_CreatesRegistrationAndDropsDraft(t *testing.T) {
	h := newHarness(event.RegistrationSettings{
		AttendeeRegistration: true, AccompanyRegistration: true, WorkshopRegistration: true,
	})
	ctx := context.Background()

	_, err := h.controller.Apply(ctx, key, func(w *wizard.Wizard) error {
		if err := w.SubmitBasicDetails(validDetails()); err != nil {
			return err
		}
		if err := w.SubmitAccompanying([]registration.AccompanyingPerson{{Name: "Ravi", Relation: "Spouse", Age: 40}}); err != nil {
			return err
		}
		return w.SubmitWorkshops(map[string]string{"Pre-Conference": "W1"})
	})
	require.NoError(t, err)

	res, err := h.confirmer.Confirm(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, "/registration/payment?registrationId=R1", res.PaymentPath)
	assert.True(t, res.AccompanyingSaved)
	require.Len(t, h.backend.created, 1)
	assert.Equal(t, "E1", h.backend.created[0].EventID)
	assert.Equal(t, []string{"W1"}, h.backend.created[0].Workshops)
	assert.Len(t, h.backend.appended["R1"], 1)

	_, err = h.drafts.Get(ctx, key)
	assert.ErrorIs(t, err, wizard.ErrDraftNotFound)
}

func TestConfirm_SkippedStepsSendNothing(t *testing.T) {
	h := newHarness(event.RegistrationSettings{
		AttendeeRegistration: true, AccompanyRegistration: true, WorkshopRegistration: true,
	})
	ctx := context.Background()

	_, err := h.controller.Apply(ctx, key, func(w *wizard.Wizard) error {
		_ = w.SubmitBasicDetails(validDetails())
		_ = w.SkipAccompanying()
		return w.SkipWorkshops()
	})
	require.NoError(t, err)

	_, err = h.confirmer.Confirm(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, h.backend.created[0].Workshops)
	assert.Empty(t, h.backend.appended)
}

func TestConfirm_BeforeLastStepIsInvalid(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})
	_, err := h.controller.Open(context.Background(), key)
	require.NoError(t, err)

	_, err = h.confirmer.Confirm(context.Background(), key)
	assert.ErrorIs(t, err, wizard.ErrInvalidTransition)
	assert.Empty(t, h.backend.created)
}

func TestConfirm_AccompanyingFailureStillHandsOff(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true, AccompanyRegistration: true})
	h.backend.addErr = errors.New("backend hiccup")
	ctx := context.Background()

	_, err := h.controller.Apply(ctx, key, func(w *wizard.Wizard) error {
		_ = w.SubmitBasicDetails(validDetails())
		return w.SubmitAccompanying([]registration.AccompanyingPerson{{Name: "Ravi"}})
	})
	require.NoError(t, err)

	res, err := h.confirmer.Confirm(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.AccompanyingSaved)
	assert.Equal(t, "R1", res.Registration.ID)
}

func TestControllerSubmitBasicDetails_TakesCategoryFromSlab(t *testing.T) {
	h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})

	d := validDetails()
	d.RegistrationCategory = registration.Category{ID: "S1", Name: "Student", Amount: 1}
	d.MealPreference = "veg"

	draft, err := h.controller.SubmitBasicDetails(context.Background(), key, d)
	require.NoError(t, err)

	assert.Equal(t, wizard.StepConfirmAndPay, draft.Current)
	assert.Equal(t, registration.Category{ID: "S1", Name: "Member", Amount: 2500}, draft.Form.BasicDetails.RegistrationCategory)
}

func TestControllerSubmitBasicDetails_RejectsUnlistedChoices(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*registration.BasicDetails)
	}{
		{"unknown slab", func(d *registration.BasicDetails) {
			d.RegistrationCategory = registration.Category{ID: "made-up", Name: "Member", Amount: 1}
		}},
		{"unknown meal", func(d *registration.BasicDetails) { d.MealPreference = "not-a-listed-meal" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(event.RegistrationSettings{AttendeeRegistration: true})
			ctx := context.Background()

			d := validDetails()
			tt.mutate(&d)

			_, err := h.controller.SubmitBasicDetails(ctx, key, d)
			require.ErrorIs(t, err, wizard.ErrIncompleteDetails)

			w, err := h.controller.Open(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, wizard.StepBasicDetails, w.Current())
			assert.Empty(t, w.Form().BasicDetails.FullName)
		})
	}
}
