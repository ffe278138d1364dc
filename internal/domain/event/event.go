package event

import (
	"errors"
	"time"
)

type Event struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	City        string    `json:"city,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// RegistrationSettings are the per-event feature flags that gate the wizard.
type RegistrationSettings struct {
	AttendeeRegistration  bool       `json:"attendeeRegistration"`
	AccompanyRegistration bool       `json:"accompanyRegistration"`
	WorkshopRegistration  bool       `json:"workshopRegistration"`
	BanquetRegistration   bool       `json:"banquetRegistration"`
	StartDate             *time.Time `json:"registrationStartDate,omitempty"`
	EndDate               *time.Time `json:"registrationEndDate,omitempty"`
}

// WindowOpen reports whether now falls inside the registration window.
// A missing bound is treated as open on that side.
func (s RegistrationSettings) WindowOpen(now time.Time) bool {
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// Slab is a registration category price tier.
type Slab struct {
	ID       string  `json:"_id"`
	Name     string  `json:"slabName"`
	Amount   float64 `json:"amount"`
	IsActive bool    `json:"isActive"`
}

type MealPreference struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Workshop struct {
	ID     string  `json:"_id"`
	Name   string  `json:"name"`
	Group  string  `json:"group"`
	Amount float64 `json:"amount"`
}

type TermsAndConditions struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("event not found")
