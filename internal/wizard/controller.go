package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/regportal/internal/domain/event"
	"golang.org/x/sync/errgroup"
)

var ErrRegistrationUnavailable = errors.New("registration is not available for this event")

type SettingsReader interface {
	GetRegistrationSettings(ctx context.Context, eventID string) (event.RegistrationSettings, error)
}

type CatalogReader interface {
	ListActiveSlabs(ctx context.Context, eventID string) ([]event.Slab, error)
	ListActiveMealPreferences(ctx context.Context, eventID string) ([]event.MealPreference, error)
	ListWorkshops(ctx context.Context, eventID string) ([]event.Workshop, error)
}

// Controller loads, mutates and persists drafts.
type Controller struct {
	drafts   DraftStore
	settings SettingsReader
	catalog  CatalogReader
	log      *slog.Logger
	now      func() time.Time
}

func NewController(drafts DraftStore, settings SettingsReader, catalog CatalogReader, log *slog.Logger) *Controller {
	return &Controller{drafts: drafts, settings: settings, catalog: catalog, log: log, now: time.Now}
}

// Open returns the stored wizard for key, or starts a new one planned from
// the event settings. The plan of an existing draft is never recomputed.
func (c *Controller) Open(ctx context.Context, key DraftKey) (*Wizard, error) {
	d, err := c.drafts.Get(ctx, key)
	if err == nil && len(d.Steps) > 0 {
		return FromDraft(d), nil
	}
	if err != nil && !errors.Is(err, ErrDraftNotFound) {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	s, err := c.settings.GetRegistrationSettings(ctx, key.EventID)
	if err != nil {
		return nil, err
	}
	return c.start(ctx, key, s)
}

func (c *Controller) start(ctx context.Context, key DraftKey, s event.RegistrationSettings) (*Wizard, error) {
	if !s.AttendeeRegistration {
		return nil, ErrRegistrationUnavailable
	}

	w := New(Plan(s))
	if err := c.save(ctx, key, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (c *Controller) save(ctx context.Context, key DraftKey, w *Wizard) error {
	if err := c.drafts.Put(ctx, key, w.Draft(key, c.now())); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Apply runs fn against the wizard for key and persists the result when fn succeeds.
func (c *Controller) Apply(ctx context.Context, key DraftKey, fn func(*Wizard) error) (Draft, error) {
	w, err := c.Open(ctx, key)
	if err != nil {
		return Draft{}, err
	}

	if err := fn(w); err != nil {
		return Draft{}, err
	}

	if err := c.save(ctx, key, w); err != nil {
		return Draft{}, err
	}

	c.log.DebugContext(ctx, "wizard_step_saved", "draft", key.String(), "step", w.Current())
	return w.Draft(key, c.now()), nil
}

// Discard drops the stored draft. A missing draft is not an error.
func (c *Controller) Discard(ctx context.Context, key DraftKey) error {
	if err := c.drafts.Delete(ctx, key); err != nil && !errors.Is(err, ErrDraftNotFound) {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// Snapshot is what the wizard page needs to render its current step.
type Snapshot struct {
	Draft           Draft                  `json:"draft"`
	Slabs           []event.Slab           `json:"slabs"`
	MealPreferences []event.MealPreference `json:"mealPreferences"`
	Workshops       []event.Workshop       `json:"workshops,omitempty"`
}

func (c *Controller) Snapshot(ctx context.Context, key DraftKey) (Snapshot, error) {
	w, err := c.Open(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Draft: w.Draft(key, c.now())}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slabs, err := c.catalog.ListActiveSlabs(gctx, key.EventID)
		snap.Slabs = slabs
		return err
	})
	g.Go(func() error {
		prefs, err := c.catalog.ListActiveMealPreferences(gctx, key.EventID)
		snap.MealPreferences = prefs
		return err
	})
	if w.Has(StepWorkshops) {
		g.Go(func() error {
			ws, err := c.catalog.ListWorkshops(gctx, key.EventID)
			snap.Workshops = ws
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
