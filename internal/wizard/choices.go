package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/regportal/internal/domain/event"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/formstate"
	"golang.org/x/sync/errgroup"
)

// Choices are the event's active slabs and meal preferences.
type Choices struct {
	Slabs           []event.Slab
	MealPreferences []event.MealPreference
}

// Apply checks b against the active lists. The category name and amount are
// always taken from the slab; a meal preference matches by id or name.
func (c Choices) Apply(b registration.BasicDetails) (registration.BasicDetails, error) {
	if id := b.RegistrationCategory.ID; id != "" {
		slab, ok := c.slab(id)
		if !ok {
			return b, fmt.Errorf("%w: registration category %q is not available", ErrIncompleteDetails, id)
		}
		b.RegistrationCategory = registration.Category{ID: slab.ID, Name: slab.Name, Amount: slab.Amount}
	}

	if m := b.MealPreference; m != "" && !c.hasMeal(m) {
		return b, fmt.Errorf("%w: meal preference %q is not available", ErrIncompleteDetails, m)
	}
	return b, nil
}

func (c Choices) slab(id string) (event.Slab, bool) {
	for _, s := range c.Slabs {
		if s.ID == id {
			return s, true
		}
	}
	return event.Slab{}, false
}

func (c Choices) hasMeal(v string) bool {
	for _, m := range c.MealPreferences {
		if m.ID == v || strings.EqualFold(m.Name, v) {
			return true
		}
	}
	return false
}

func (c *Controller) choices(ctx context.Context, eventID string) (Choices, error) {
	var out Choices

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slabs, err := c.catalog.ListActiveSlabs(gctx, eventID)
		out.Slabs = slabs
		return err
	})
	g.Go(func() error {
		prefs, err := c.catalog.ListActiveMealPreferences(gctx, eventID)
		out.MealPreferences = prefs
		return err
	})

	if err := g.Wait(); err != nil {
		return Choices{}, err
	}
	return out, nil
}

// SubmitBasicDetails completes Step 1 with the category and meal checked
// against what the event currently offers.
func (c *Controller) SubmitBasicDetails(ctx context.Context, key DraftKey, details registration.BasicDetails) (Draft, error) {
	choices, err := c.choices(ctx, key.EventID)
	if err != nil {
		return Draft{}, err
	}

	return c.Apply(ctx, key, func(w *Wizard) error {
		merged := formstate.UpdateBasicDetails(w.Form(), details).BasicDetails
		checked, err := choices.Apply(merged)
		if err != nil {
			return err
		}
		return w.SubmitBasicDetails(checked)
	})
}
