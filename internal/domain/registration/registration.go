package registration

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/geocoder89/regportal/internal/domain/event"
)

// Category is the priced tier (slab) an attendee picks in the first step.
type Category struct {
	ID     string  `json:"id" binding:"required"`
	Name   string  `json:"name" binding:"required"`
	Amount float64 `json:"amount" binding:"gte=0"`
}

type BasicDetails struct {
	Prefix                     string   `json:"prefix" binding:"omitempty,max=10"`
	FullName                   string   `json:"fullName" binding:"required,min=2,max=120"`
	Email                      string   `json:"email" binding:"required,email"`
	Mobile                     string   `json:"mobile" binding:"required,min=7,max=15"`
	Gender                     string   `json:"gender" binding:"omitempty,oneof=male female other"`
	Affiliation                string   `json:"affiliation" binding:"required,max=200"`
	Designation                string   `json:"designation" binding:"required,max=120"`
	MedicalCouncilRegistration string   `json:"medicalCouncilRegistration" binding:"required,max=60"`
	MedicalCouncilState        string   `json:"medicalCouncilState" binding:"required,max=60"`
	Address                    string   `json:"address" binding:"required,max=300"`
	Country                    string   `json:"country" binding:"required"`
	State                      string   `json:"state" binding:"required"`
	City                       string   `json:"city" binding:"required"`
	Pincode                    string   `json:"pincode" binding:"required,min=4,max=10"`
	MealPreference             string   `json:"mealPreference" binding:"required"`
	RegistrationCategory       Category `json:"registrationCategory" binding:"required"`
	AcceptedTerms              bool     `json:"acceptedTerms" binding:"required"`
}

type AccompanyingPerson struct {
	Name           string `json:"name" binding:"required,min=2,max=120"`
	Relation       string `json:"relation" binding:"required,max=60"`
	Age            int    `json:"age" binding:"required,min=1,max=120"`
	Gender         string `json:"gender" binding:"required,oneof=male female other"`
	MealPreference string `json:"mealPreference" binding:"required"`
}

// EventRef decodes either a bare event id or a populated event document.
type EventRef struct {
	ID    string
	Event *event.Event
}

func (r *EventRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}

	var e event.Event
	if err := json.Unmarshal(b, &e); err != nil {
		return err
	}

	r.ID = e.ID
	r.Event = &e
	return nil
}

func (r EventRef) MarshalJSON() ([]byte, error) {
	if r.Event != nil {
		return json.Marshal(r.Event)
	}
	return json.Marshal(r.ID)
}

// Registration is the backend's record of an attendee registration.
type Registration struct {
	ID                  string               `json:"_id"`
	RegNum              string               `json:"regNum"`
	User                string               `json:"user,omitempty"`
	Event               EventRef             `json:"event"`
	Prefix              string               `json:"prefix,omitempty"`
	FullName            string               `json:"fullName"`
	Email               string               `json:"email"`
	Mobile              string               `json:"mobile"`
	Affiliation         string               `json:"affiliation,omitempty"`
	Designation         string               `json:"designation,omitempty"`
	MealPreference      string               `json:"mealPreference,omitempty"`
	Gender              string               `json:"gender,omitempty"`
	Country             string               `json:"country,omitempty"`
	City                string               `json:"city,omitempty"`
	Category            Category             `json:"registrationCategory"`
	RegistrationAmount  float64              `json:"registrationAmount"`
	AccompanyingPersons []AccompanyingPerson `json:"accompanyingPersons,omitempty"`
	Workshops           []string             `json:"workshops,omitempty"`
	IsPaid              bool                 `json:"isPaid"`
	CreatedAt           time.Time            `json:"createdAt"`
}

// EventID returns the id of the event regardless of population.
func (r Registration) EventID() string {
	return r.Event.ID
}

// PayableAmount is the category price, falling back to the stored registration amount.
func (r Registration) PayableAmount() float64 {
	if r.Category.Amount > 0 {
		return r.Category.Amount
	}
	return r.RegistrationAmount
}

// CreateRequest is the body sent to the backend when the wizard is confirmed.
type CreateRequest struct {
	EventID string `json:"eventId"`
	BasicDetails
	Workshops []string `json:"workshops,omitempty"`
}

var (
	ErrNotFound     = errors.New("registration not found")
	ErrInvalidInput = errors.New("invalid registration input")
)
