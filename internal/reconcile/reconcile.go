// Package reconcile merges AI-extracted student data into an existing
// student profile without losing or duplicating information.
package reconcile

import (
	"strings"

	"github.com/jonathan/ppi-assistant/internal/types"
)

// Engine computes profile patches. The zero value uses AdminOverwrite.
type Engine struct {
	Policy AdminPolicy
}

// Reconcile computes the patch for current and extracted with the default
// engine.
func Reconcile(current types.StudentProfile, extracted types.ExtractedProfile) types.ProfilePatch {
	return Engine{}.Reconcile(current, extracted)
}

// Reconcile returns the sections to overwrite so that current absorbs
// extracted. It does not modify or alias either input.
func (e Engine) Reconcile(current types.StudentProfile, extracted types.ExtractedProfile) types.ProfilePatch {
	var patch types.ProfilePatch

	e.reconcileAdministrative(&patch, current.AdministrativeFields, extracted.AdministrativeFields)
	patch.FamilyContacts = mergeContacts(current.FamilyContacts, extracted.FamilyContacts)

	for _, c := range types.Categories {
		if g := mergeGroup(current.Group(c), extracted.Group(c)); g != nil {
			patch.SetGroup(c, g)
		}
	}

	return patch
}

func (e Engine) reconcileAdministrative(patch *types.ProfilePatch, current, extracted types.AdministrativeFields) {
	fields := []struct {
		name      string
		current   string
		extracted string
		target    **string
	}{
		{types.SectionBirthDate, current.BirthDate, extracted.BirthDate, &patch.BirthDate},
		{types.SectionLevel, current.Level, extracted.Level, &patch.Level},
		{types.SectionNotificationTitle, current.NotificationTitle, extracted.NotificationTitle, &patch.NotificationTitle},
		{types.SectionNotificationExpiration, current.NotificationExpiration, extracted.NotificationExpiration, &patch.NotificationExpiration},
	}

	for _, f := range fields {
		proposed := strings.TrimSpace(f.extracted)
		if proposed == "" {
			continue
		}
		existing := strings.TrimSpace(f.current)
		if existing != "" && e.Policy == AdminFillEmpty {
			continue
		}
		value := proposed
		*f.target = &value
		if existing != "" && existing != proposed {
			patch.Overwrites = append(patch.Overwrites, types.FieldChange{
				Field:    f.name,
				Previous: f.current,
				Proposed: proposed,
			})
		}
	}
}

// mergeContacts appends extracted contacts whose name matches no existing
// contact. Returns nil when the extraction carries no contact list.
func mergeContacts(existing, extracted []types.FamilyContact) []types.FamilyContact {
	if extracted == nil {
		return nil
	}

	merged := make([]types.FamilyContact, 0, len(existing)+len(extracted))
	merged = append(merged, existing...)

	seen := make(map[string]bool, len(merged))
	for _, c := range existing {
		seen[NameKey(c.Name)] = true
	}

	for _, c := range extracted {
		key := NameKey(c.Name)
		if key == "" || seen[key] {
			continue
		}
		c.Name = CleanName(c.Name)
		merged = append(merged, c)
		seen[key] = true
	}

	return merged
}

// mergeGroup rebuilds a category group from current with every extracted
// sub-category unioned in. Returns nil when the group was not extracted.
func mergeGroup(current, extracted types.CategoryGroup) types.CategoryGroup {
	if extracted == nil {
		return nil
	}

	merged := current.Clone()
	if merged == nil {
		merged = make(types.CategoryGroup, len(extracted))
	}
	for key, tags := range extracted {
		merged[key] = UnionTags(current[key], tags)
	}
	return merged
}

// UnionTags returns existing followed by the non-blank incoming tags it does
// not already hold, without duplicates. Tags are compared trimmed on both
// sides. Incoming tags are stored trimmed; existing ones are kept verbatim.
// The result is never nil.
func UnionTags(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))

	for _, t := range existing {
		key := strings.TrimSpace(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	for _, t := range incoming {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
