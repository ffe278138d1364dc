// Package formstate holds the in-progress registration form. Every operation
// is a pure function: it returns a new State and never aliases the old one.
package formstate

import (
	"maps"
	"slices"

	"github.com/geocoder89/regportal/internal/domain/registration"
)

type State struct {
	BasicDetails        registration.BasicDetails         `json:"basicDetails"`
	AccompanyingPersons []registration.AccompanyingPerson `json:"accompanyingPersons"`
	SelectedWorkshops   map[string]string                 `json:"selectedWorkshops"` // group -> workshop id
	SkippedAccompanying bool                              `json:"skippedAccompanying"`
	SkippedWorkshops    bool                              `json:"skippedWorkshops"`
}

func New() State {
	return State{
		AccompanyingPersons: []registration.AccompanyingPerson{},
		SelectedWorkshops:   map[string]string{},
	}
}

// Clone deep-copies the slice and map fields.
func (s State) Clone() State {
	out := s
	out.AccompanyingPersons = slices.Clone(s.AccompanyingPersons)
	if out.AccompanyingPersons == nil {
		out.AccompanyingPersons = []registration.AccompanyingPerson{}
	}
	out.SelectedWorkshops = maps.Clone(s.SelectedWorkshops)
	if out.SelectedWorkshops == nil {
		out.SelectedWorkshops = map[string]string{}
	}
	return out
}

// UpdateBasicDetails merges partial over the current details. Zero-valued
// fields in partial leave the stored value untouched.
func UpdateBasicDetails(s State, partial registration.BasicDetails) State {
	out := s.Clone()
	b := &out.BasicDetails

	mergeString(&b.Prefix, partial.Prefix)
	mergeString(&b.FullName, partial.FullName)
	mergeString(&b.Email, partial.Email)
	mergeString(&b.Mobile, partial.Mobile)
	mergeString(&b.Gender, partial.Gender)
	mergeString(&b.Affiliation, partial.Affiliation)
	mergeString(&b.Designation, partial.Designation)
	mergeString(&b.MedicalCouncilRegistration, partial.MedicalCouncilRegistration)
	mergeString(&b.MedicalCouncilState, partial.MedicalCouncilState)
	mergeString(&b.Address, partial.Address)
	mergeString(&b.Country, partial.Country)
	mergeString(&b.State, partial.State)
	mergeString(&b.City, partial.City)
	mergeString(&b.Pincode, partial.Pincode)
	mergeString(&b.MealPreference, partial.MealPreference)

	if partial.RegistrationCategory.ID != "" {
		b.RegistrationCategory = partial.RegistrationCategory
	}
	if partial.AcceptedTerms {
		b.AcceptedTerms = true
	}

	return out
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// SetAccompanyingPersons replaces the list. Saving persons clears a previous skip.
func SetAccompanyingPersons(s State, persons []registration.AccompanyingPerson) State {
	out := s.Clone()
	out.AccompanyingPersons = slices.Clone(persons)
	if out.AccompanyingPersons == nil {
		out.AccompanyingPersons = []registration.AccompanyingPerson{}
	}
	out.SkippedAccompanying = false
	return out
}

// SetSelectedWorkshops replaces all selections.
func SetSelectedWorkshops(s State, selections map[string]string) State {
	out := s.Clone()
	out.SelectedWorkshops = map[string]string{}
	for group, id := range selections {
		if group != "" && id != "" {
			out.SelectedWorkshops[group] = id
		}
	}
	out.SkippedWorkshops = false
	return out
}

// SelectWorkshop sets the single selection for group, replacing any previous
// one. An empty workshopID clears the group.
func SelectWorkshop(s State, group, workshopID string) State {
	out := s.Clone()
	if workshopID == "" {
		delete(out.SelectedWorkshops, group)
		return out
	}
	out.SelectedWorkshops[group] = workshopID
	return out
}

func SkipAccompanyingPersons(s State) State {
	out := s.Clone()
	out.SkippedAccompanying = true
	return out
}

func SkipWorkshops(s State) State {
	out := s.Clone()
	out.SkippedWorkshops = true
	return out
}

// Reset clears every field.
func Reset(State) State {
	return New()
}

// WorkshopIDs returns the selected workshop ids sorted by group.
func (s State) WorkshopIDs() []string {
	groups := slices.Sorted(maps.Keys(s.SelectedWorkshops))
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, s.SelectedWorkshops[g])
	}
	return ids
}
