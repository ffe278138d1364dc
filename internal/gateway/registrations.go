package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/geocoder89/regportal/internal/domain/registration"
)

func (c *Client) GetRegistration(ctx context.Context, registrationID string) (registration.Registration, error) {
	var reg registration.Registration
	ok, err := c.do(ctx, call{
		endpoint: "get_registration",
		method:   http.MethodGet,
		path:     "/api/registrations/" + url.PathEscape(registrationID),
	}, &reg)
	if err != nil {
		return registration.Registration{}, err
	}
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	return reg, nil
}

// GetMyRegistration returns nil, nil when the caller has not registered for the event.
func (c *Client) GetMyRegistration(ctx context.Context, eventID string) (*registration.Registration, error) {
	var reg registration.Registration
	ok, err := c.do(ctx, call{
		endpoint: "get_my_registration",
		method:   http.MethodGet,
		path:     "/api/registrations/event/" + url.PathEscape(eventID) + "/my-registration",
	}, &reg)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &reg, nil
}

func (c *Client) CreateRegistration(ctx context.Context, req registration.CreateRequest) (registration.Registration, error) {
	var reg registration.Registration
	ok, err := c.do(ctx, call{
		endpoint: "create_registration",
		method:   http.MethodPost,
		path:     "/api/registrations",
		body:     req,
	}, &reg)
	if err != nil {
		return registration.Registration{}, err
	}
	if !ok || reg.ID == "" {
		return registration.Registration{}, &NetworkError{Op: "create_registration", Err: errMissingData}
	}
	return reg, nil
}

type accompanyingBody struct {
	AccompanyingPersons []registration.AccompanyingPerson `json:"accompanyingPersons"`
}

func (c *Client) AddAccompanyingPersons(ctx context.Context, registrationID string, persons []registration.AccompanyingPerson) error {
	_, err := c.do(ctx, call{
		endpoint: "add_accompanying_persons",
		method:   http.MethodPost,
		path:     "/api/registrations/" + url.PathEscape(registrationID) + "/accompanying-persons",
		body:     accompanyingBody{AccompanyingPersons: persons},
	}, nil)
	return err
}
