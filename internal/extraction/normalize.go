package extraction

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/ppi-assistant/internal/types"
)

var validate = validator.New()

// dateLayouts are the date formats found in French administrative documents.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
}

// Sanitize normalizes an extraction in place so that it only carries real
// information: scalars are trimmed, blank values removed, unknown
// sub-categories dropped, and contacts without a name discarded. Empty
// collections become absent, because an empty extracted set adds nothing.
func Sanitize(p *types.ExtractedProfile) {
	if p == nil {
		return
	}

	p.BirthDate = NormalizeDate(p.BirthDate)
	p.Level = strings.TrimSpace(p.Level)
	p.NotificationTitle = strings.TrimSpace(p.NotificationTitle)
	p.NotificationExpiration = NormalizeDate(p.NotificationExpiration)

	p.FamilyContacts = sanitizeContacts(p.FamilyContacts)

	for _, c := range types.Categories {
		p.SetGroup(c, sanitizeGroup(c, p.Group(c)))
	}
}

// NormalizeDate rewrites a recognised date as YYYY-MM-DD. Anything else is
// returned trimmed, so partial dates ("mars 2014") survive.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func sanitizeContacts(contacts []types.FamilyContact) []types.FamilyContact {
	var out []types.FamilyContact
	for _, c := range contacts {
		c.Name = strings.Join(strings.Fields(c.Name), " ")
		if c.Name == "" {
			continue
		}
		c.Address = strings.TrimSpace(c.Address)
		c.Phone = strings.TrimSpace(c.Phone)
		c.Email = strings.TrimSpace(c.Email)
		if c.Email != "" && validate.Var(c.Email, "email") != nil {
			c.Email = ""
		}
		out = append(out, c)
	}
	return out
}

func sanitizeGroup(c types.Category, g types.CategoryGroup) types.CategoryGroup {
	var out types.CategoryGroup
	for key, tags := range g {
		if !types.IsSubCategory(c, key) {
			continue
		}
		var kept []string
		for _, tag := range tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				kept = append(kept, tag)
			}
		}
		if len(kept) == 0 {
			continue
		}
		if out == nil {
			out = types.CategoryGroup{}
		}
		out[key] = kept
	}
	return out
}
