package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/geocoder89/regportal/internal/domain/event"
)

func eventPath(eventID, suffix string) string {
	return "/api/events/" + url.PathEscape(eventID) + suffix
}

func (c *Client) GetEvent(ctx context.Context, eventID string) (event.Event, error) {
	var ev event.Event
	ok, err := c.do(ctx, call{endpoint: "get_event", method: http.MethodGet, path: eventPath(eventID, "")}, &ev)
	if err != nil {
		return event.Event{}, err
	}
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return ev, nil
}

func (c *Client) GetRegistrationSettings(ctx context.Context, eventID string) (event.RegistrationSettings, error) {
	var s event.RegistrationSettings
	_, err := c.do(ctx, call{
		endpoint: "get_registration_settings",
		method:   http.MethodGet,
		path:     eventPath(eventID, "/registration-settings"),
	}, &s)
	return s, err
}

func (c *Client) ListActiveSlabs(ctx context.Context, eventID string) ([]event.Slab, error) {
	var out []event.Slab
	_, err := c.do(ctx, call{endpoint: "list_active_slabs", method: http.MethodGet, path: eventPath(eventID, "/slabs/active")}, &out)
	return out, err
}

func (c *Client) ListSlabs(ctx context.Context, eventID string) ([]event.Slab, error) {
	var out []event.Slab
	_, err := c.do(ctx, call{endpoint: "list_slabs", method: http.MethodGet, path: eventPath(eventID, "/slabs")}, &out)
	return out, err
}

func (c *Client) ListActiveMealPreferences(ctx context.Context, eventID string) ([]event.MealPreference, error) {
	var out []event.MealPreference
	_, err := c.do(ctx, call{
		endpoint: "list_active_meal_preferences",
		method:   http.MethodGet,
		path:     eventPath(eventID, "/meal-preferences/active"),
	}, &out)
	return out, err
}

func (c *Client) ListWorkshops(ctx context.Context, eventID string) ([]event.Workshop, error) {
	var out []event.Workshop
	_, err := c.do(ctx, call{endpoint: "list_workshops", method: http.MethodGet, path: eventPath(eventID, "/workshops")}, &out)
	return out, err
}

// GetTermsAndConditions is public; no token is ever attached.
func (c *Client) GetTermsAndConditions(ctx context.Context, eventID string) (event.TermsAndConditions, error) {
	var tc event.TermsAndConditions
	ok, err := c.do(ctx, call{
		endpoint: "get_terms_and_conditions",
		method:   http.MethodGet,
		path:     eventPath(eventID, "/terms-and-conditions"),
		public:   true,
	}, &tc)
	if err != nil {
		return event.TermsAndConditions{}, err
	}
	if !ok {
		return event.TermsAndConditions{}, event.ErrNotFound
	}
	return tc, nil
}
