package types

// Document keys of the top-level sections a patch can overwrite.
const (
	SectionBirthDate              = "birth_date"
	SectionLevel                  = "level"
	SectionNotificationTitle      = "notification_title"
	SectionNotificationExpiration = "notification_expiration"
	SectionFamilyContacts         = "family_contacts"
)

// ProfilePatch is a partial StudentProfile holding only the top-level
// sections to overwrite. Nil pointers, slices and groups are untouched.
// Its JSON form carries exactly the touched document keys.
type ProfilePatch struct {
	BirthDate              *string `json:"birth_date,omitempty"`
	Level                  *string `json:"level,omitempty"`
	NotificationTitle      *string `json:"notification_title,omitempty"`
	NotificationExpiration *string `json:"notification_expiration,omitempty"`

	FamilyContacts []FamilyContact `json:"family_contacts,omitempty"`

	Strengths     CategoryGroup `json:"strengths,omitempty"`
	Difficulties  CategoryGroup `json:"difficulties,omitempty"`
	Needs         CategoryGroup `json:"needs,omitempty"`
	GlobalProfile CategoryGroup `json:"global_profile,omitempty"`

	// Overwrites lists administrative fields whose existing value the patch
	// replaces with a different one. Not part of the stored document.
	Overwrites []FieldChange `json:"-"`
}

// FieldChange records one administrative value replaced by a merge.
type FieldChange struct {
	Field    string `json:"field"`
	Previous string `json:"previous"`
	Proposed string `json:"proposed"`
}

// Group returns the patch's group for a category, nil when untouched.
func (p *ProfilePatch) Group(c Category) CategoryGroup {
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

// SetGroup sets the patch's group for a category.
func (p *ProfilePatch) SetGroup(c Category, g CategoryGroup) {
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

// Sections returns the document keys the patch touches, in document order.
func (p *ProfilePatch) Sections() []string {
	var sections []string
	if p.BirthDate != nil {
		sections = append(sections, SectionBirthDate)
	}
	if p.Level != nil {
		sections = append(sections, SectionLevel)
	}
	if p.NotificationTitle != nil {
		sections = append(sections, SectionNotificationTitle)
	}
	if p.NotificationExpiration != nil {
		sections = append(sections, SectionNotificationExpiration)
	}
	if p.FamilyContacts != nil {
		sections = append(sections, SectionFamilyContacts)
	}
	for _, c := range Categories {
		if p.Group(c) != nil {
			sections = append(sections, string(c))
		}
	}
	return sections
}

// Document returns the patch as a map of document key to new value.
// Unlike the JSON encoding it keeps touched sections that are empty, so an
// explicit empty contact list or group still overwrites the stored one.
func (p *ProfilePatch) Document() map[string]any {
	doc := make(map[string]any)
	if p.BirthDate != nil {
		doc[SectionBirthDate] = *p.BirthDate
	}
	if p.Level != nil {
		doc[SectionLevel] = *p.Level
	}
	if p.NotificationTitle != nil {
		doc[SectionNotificationTitle] = *p.NotificationTitle
	}
	if p.NotificationExpiration != nil {
		doc[SectionNotificationExpiration] = *p.NotificationExpiration
	}
	if p.FamilyContacts != nil {
		doc[SectionFamilyContacts] = p.FamilyContacts
	}
	for _, c := range Categories {
		if g := p.Group(c); g != nil {
			doc[string(c)] = g
		}
	}
	return doc
}

// IsEmpty reports whether the patch touches nothing.
func (p *ProfilePatch) IsEmpty() bool {
	return len(p.Sections()) == 0
}
