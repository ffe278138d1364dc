package formstate_test

import (
	"testing"

	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/formstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledDetails() registration.BasicDetails {
	return registration.BasicDetails{
		Prefix:                     "Dr",
		FullName:                   "Asha Menon",
		Email:                      "asha@example.com",
		Mobile:                     "9876543210",
		Affiliation:                "AIIMS",
		Designation:                "Consultant",
		MedicalCouncilRegistration: "KMC-1234",
		MedicalCouncilState:        "Kerala",
		Address:                    "12 Beach Rd",
		Country:                    "India",
		State:                      "Kerala",
		City:                       "Kochi",
		Pincode:                    "682001",
		MealPreference:             "veg",
		RegistrationCategory:       registration.Category{ID: "S1", Name: "Member", Amount: 2500},
		AcceptedTerms:              true,
	}
}

func TestUpdateBasicDetails_MergesWithoutFieldLoss(t *testing.T) {
	s := formstate.UpdateBasicDetails(formstate.New(), filledDetails())

	s2 := formstate.UpdateBasicDetails(s, registration.BasicDetails{City: "Trivandrum", Mobile: "9000000000"})

	want := filledDetails()
	want.City = "Trivandrum"
	want.Mobile = "9000000000"
	assert.Equal(t, want, s2.BasicDetails)

	// the earlier value is not mutated
	assert.Equal(t, "Kochi", s.BasicDetails.City)
}

func TestUpdateBasicDetails_CategoryReplacedWhole(t *testing.T) {
	s := formstate.UpdateBasicDetails(formstate.New(), filledDetails())
	s = formstate.UpdateBasicDetails(s, registration.BasicDetails{
		RegistrationCategory: registration.Category{ID: "S2", Name: "Non-Member", Amount: 4000},
	})

	assert.Equal(t, registration.Category{ID: "S2", Name: "Non-Member", Amount: 4000}, s.BasicDetails.RegistrationCategory)
	assert.True(t, s.BasicDetails.AcceptedTerms)
}

func TestSelectWorkshop_MutuallyExclusiveWithinGroup(t *testing.T) {
	s := formstate.New()
	s = formstate.SelectWorkshop(s, "Pre-Conference", "A")
	s = formstate.SelectWorkshop(s, "Post-Conference", "C")
	s = formstate.SelectWorkshop(s, "Pre-Conference", "B")

	assert.Equal(t, map[string]string{"Pre-Conference": "B", "Post-Conference": "C"}, s.SelectedWorkshops)
	assert.Equal(t, []string{"C", "B"}, s.WorkshopIDs())

	s = formstate.SelectWorkshop(s, "Pre-Conference", "")
	assert.Equal(t, map[string]string{"Post-Conference": "C"}, s.SelectedWorkshops)
}

func TestSetSelectedWorkshops_DoesNotAliasInput(t *testing.T) {
	in := map[string]string{"Pre-Conference": "A"}
	s := formstate.SetSelectedWorkshops(formstate.New(), in)

	in["Pre-Conference"] = "Z"
	assert.Equal(t, "A", s.SelectedWorkshops["Pre-Conference"])
}

func TestSkipFlags(t *testing.T) {
	s := formstate.UpdateBasicDetails(formstate.New(), filledDetails())

	s = formstate.SkipAccompanyingPersons(s)
	s = formstate.SkipWorkshops(s)

	assert.True(t, s.SkippedAccompanying)
	assert.True(t, s.SkippedWorkshops)
	assert.Equal(t, filledDetails(), s.BasicDetails)

	s = formstate.SetAccompanyingPersons(s, []registration.AccompanyingPerson{{Name: "Ravi"}})
	assert.False(t, s.SkippedAccompanying)
	require.Len(t, s.AccompanyingPersons, 1)
}

func TestReset(t *testing.T) {
	s := formstate.UpdateBasicDetails(formstate.New(), filledDetails())
	s = formstate.SkipWorkshops(formstate.SelectWorkshop(s, "g", "w"))

	s = formstate.Reset(s)
	assert.Equal(t, formstate.New(), s)
}
