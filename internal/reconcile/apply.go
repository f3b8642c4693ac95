package reconcile

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jonathan/ppi-assistant/internal/types"
)

// profileContent compares the stored content of two profiles. Timestamps are
// ignored and an absent section equals an empty one.
var profileContent = cmp.Options{
	cmpopts.IgnoreFields(types.StudentProfile{}, "CreatedAt", "UpdatedAt"),
	cmpopts.EquateEmpty(),
}

// Apply returns current with every section of patch written over it, the
// same way the store replaces top-level document keys.
func Apply(current types.StudentProfile, patch types.ProfilePatch) types.StudentProfile {
	out := current.Clone()

	if patch.BirthDate != nil {
		out.BirthDate = *patch.BirthDate
	}
	if patch.Level != nil {
		out.Level = *patch.Level
	}
	if patch.NotificationTitle != nil {
		out.NotificationTitle = *patch.NotificationTitle
	}
	if patch.NotificationExpiration != nil {
		out.NotificationExpiration = *patch.NotificationExpiration
	}
	if patch.FamilyContacts != nil {
		out.FamilyContacts = append([]types.FamilyContact{}, patch.FamilyContacts...)
	}
	for _, c := range types.Categories {
		if g := patch.Group(c); g != nil {
			out.SetGroup(c, g.Clone())
		}
	}

	return out
}

// Changes reports whether applying patch to current alters its content.
// A patch that only restates what current already holds changes nothing.
func Changes(current types.StudentProfile, patch types.ProfilePatch) bool {
	if patch.IsEmpty() {
		return false
	}
	return !cmp.Equal(current, Apply(current, patch), profileContent)
}
