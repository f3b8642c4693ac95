// Package types provides type definitions for structured data used throughout the PPI assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Category identifies one of the four tag groups of a student profile.
type Category string

// Category constants match the top-level document keys of each group.
const (
	CategoryStrengths     Category = "strengths"
	CategoryDifficulties  Category = "difficulties"
	CategoryNeeds         Category = "needs"
	CategoryGlobalProfile Category = "global_profile"
)

// Categories lists every category group in document order.
var Categories = []Category{
	CategoryStrengths,
	CategoryDifficulties,
	CategoryNeeds,
	CategoryGlobalProfile,
}

// subCategories holds the fixed sub-category keys of each group.
var subCategories = map[Category][]string{
	CategoryStrengths: {
		"academic_skills",
		"cognitive_strengths",
		"social_skills",
		"interests",
	},
	CategoryDifficulties: {
		"cognitive",
		"sensory",
		"motor",
		"behavioral",
		"academic",
	},
	CategoryNeeds: {
		"pedagogical_accommodations",
		"human_assistance",
		"material_adaptations",
		"environmental_adaptations",
	},
	CategoryGlobalProfile: {
		"disability_natures",
		"associated_disorders",
		"communication_modes",
		"medical_follow_up",
	},
}

// SubCategories returns the known sub-category keys for a group.
func SubCategories(c Category) []string {
	keys := subCategories[c]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// IsSubCategory reports whether key is a known sub-category of the group.
func IsSubCategory(c Category, key string) bool {
	for _, k := range subCategories[c] {
		if k == key {
			return true
		}
	}
	return false
}

// CategoryGroup maps a sub-category key to its ordered set of tags.
// A nil group means "absent"; a missing key means the sub-category is absent;
// a key holding an empty slice is present but empty.
type CategoryGroup map[string][]string

// Clone returns a deep copy of the group. Clone of nil is nil.
func (g CategoryGroup) Clone() CategoryGroup {
	if g == nil {
		return nil
	}
	out := make(CategoryGroup, len(g))
	for k, tags := range g {
		out[k] = append([]string{}, tags...)
	}
	return out
}

// Keys returns the sub-category keys of the group in sorted order.
func (g CategoryGroup) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FamilyContact is a parent, guardian or other family member of a student.
type FamilyContact struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
}

// AdministrativeFields are the scalar fields usually found on a GevaSco
// or an MDPH notification.
type AdministrativeFields struct {
	BirthDate              string `json:"birth_date,omitempty"`
	Level                  string `json:"level,omitempty"`
	NotificationTitle      string `json:"notification_title,omitempty"`
	NotificationExpiration string `json:"notification_expiration,omitempty"`
}

// StudentProfile is the stored document for one student.
type StudentProfile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ClassName string    `json:"class_name,omitempty"`

	AdministrativeFields

	FamilyContacts []FamilyContact `json:"family_contacts"`

	Strengths     CategoryGroup `json:"strengths"`
	Difficulties  CategoryGroup `json:"difficulties"`
	Needs         CategoryGroup `json:"needs"`
	GlobalProfile CategoryGroup `json:"global_profile"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStudentProfile returns a fully formed profile with empty sections.
func NewStudentProfile(firstName, lastName string) StudentProfile {
	return StudentProfile{
		FirstName:      firstName,
		LastName:       lastName,
		FamilyContacts: []FamilyContact{},
		Strengths:      CategoryGroup{},
		Difficulties:   CategoryGroup{},
		Needs:          CategoryGroup{},
		GlobalProfile:  CategoryGroup{},
	}
}

// Group returns the profile's group for a category.
func (p *StudentProfile) Group(c Category) CategoryGroup {
	switch c {
	case CategoryStrengths:
		return p.Strengths
	case CategoryDifficulties:
		return p.Difficulties
	case CategoryNeeds:
		return p.Needs
	case CategoryGlobalProfile:
		return p.GlobalProfile
	}
	return nil
}

// SetGroup replaces the profile's group for a category.
func (p *StudentProfile) SetGroup(c Category, g CategoryGroup) {
	switch c {
	case CategoryStrengths:
		p.Strengths = g
	case CategoryDifficulties:
		p.Difficulties = g
	case CategoryNeeds:
		p.Needs = g
	case CategoryGlobalProfile:
		p.GlobalProfile = g
	}
}

// Normalize fills missing sections with empty values so the profile is
// fully formed.
func (p *StudentProfile) Normalize() {
	if p.FamilyContacts == nil {
		p.FamilyContacts = []FamilyContact{}
	}
	for _, c := range Categories {
		if p.Group(c) == nil {
			p.SetGroup(c, CategoryGroup{})
		}
	}
}

// Clone returns a deep copy of the profile.
func (p StudentProfile) Clone() StudentProfile {
	out := p
	if p.FamilyContacts != nil {
		out.FamilyContacts = append([]FamilyContact{}, p.FamilyContacts...)
	}
	for _, c := range Categories {
		out.SetGroup(c, p.Group(c).Clone())
	}
	return out
}

// ExtractedProfile is candidate data produced by one AI extraction. Every
// field is optional and absence never means "clear".
type ExtractedProfile struct {
	AdministrativeFields

	// Nil means no contact information was found.
	FamilyContacts []FamilyContact `json:"family_contacts,omitempty"`

	Strengths     CategoryGroup `json:"strengths,omitempty"`
	Difficulties  CategoryGroup `json:"difficulties,omitempty"`
	Needs         CategoryGroup `json:"needs,omitempty"`
	GlobalProfile CategoryGroup `json:"global_profile,omitempty"`
}

// Group returns the extracted group for a category, nil when absent.
func (e *ExtractedProfile) Group(c Category) CategoryGroup {
	switch c {
	case CategoryStrengths:
		return e.Strengths
	case CategoryDifficulties:
		return e.Difficulties
	case CategoryNeeds:
		return e.Needs
	case CategoryGlobalProfile:
		return e.GlobalProfile
	}
	return nil
}

// SetGroup replaces the extracted group for a category.
func (e *ExtractedProfile) SetGroup(c Category, g CategoryGroup) {
	switch c {
	case CategoryStrengths:
		e.Strengths = g
	case CategoryDifficulties:
		e.Difficulties = g
	case CategoryNeeds:
		e.Needs = g
	case CategoryGlobalProfile:
		e.GlobalProfile = g
	}
}
