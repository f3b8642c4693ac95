package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonathan/ppi-assistant/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func baseProfile() types.StudentProfile {
	p := types.NewStudentProfile("Lina", "Martin")
	p.Level = "CM2"
	p.BirthDate = "2014-03-02"
	p.FamilyContacts = []types.FamilyContact{
		{Name: "Marie Dupont", Phone: "0600000000"},
	}
	p.Strengths = types.CategoryGroup{
		"academic_skills": {"lecture"},
		"interests":       {"dessin", "musique"},
	}
	p.Needs = types.CategoryGroup{
		"pedagogical_accommodations": {"temps majoré"},
	}
	return p
}

func TestReconcile_TagUnionPreservesOrder(t *testing.T) {
	current := baseProfile()
	extracted := types.ExtractedProfile{
		Strengths: types.CategoryGroup{
			"academic_skills": {"lecture", "écriture"},
		},
	}

	patch := Reconcile(current, extracted)

	require.NotNil(t, patch.Strengths)
	assert.Equal(t, []string{"lecture", "écriture"}, patch.Strengths["academic_skills"])
	// Sub-categories missing from the extraction keep their values.
	assert.Equal(t, []string{"dessin", "musique"}, patch.Strengths["interests"])
	assert.Nil(t, patch.Needs, "needs were not extracted")
	assert.Nil(t, patch.Difficulties)
	assert.Nil(t, patch.GlobalProfile)
}

func TestReconcile_ContactsDedupedByName(t *testing.T) {
	current := baseProfile()
	extracted := types.ExtractedProfile{
		FamilyContacts: []types.FamilyContact{
			{Name: "marie dupont", Email: "m@d.fr"},
			{Name: "Paul Dupont"},
		},
	}

	patch := Reconcile(current, extracted)

	want := []types.FamilyContact{
		{Name: "Marie Dupont", Phone: "0600000000"},
		{Name: "Paul Dupont"},
	}
	assert.Equal(t, want, patch.FamilyContacts)
}

func TestReconcile_AdministrativeOverwrite(t *testing.T) {
	current := baseProfile()
	extracted := types.ExtractedProfile{
		AdministrativeFields: types.AdministrativeFields{Level: "6ème"},
	}

	patch := Reconcile(current, extracted)

	require.NotNil(t, patch.Level)
	assert.Equal(t, "6ème", *patch.Level)
	assert.Nil(t, patch.BirthDate)
	assert.Equal(t, []types.FieldChange{
		{Field: types.SectionLevel, Previous: "CM2", Proposed: "6ème"},
	}, patch.Overwrites)
}

func TestReconcile_FillEmptyPolicy(t *testing.T) {
	current := baseProfile()
	extracted := types.ExtractedProfile{
		AdministrativeFields: types.AdministrativeFields{
			Level:             "6ème",
			NotificationTitle: "Notification MDPH - AESH mutualisée",
		},
	}

	patch := Engine{Policy: AdminFillEmpty}.Reconcile(current, extracted)

	assert.Nil(t, patch.Level, "existing level must be kept")
	require.NotNil(t, patch.NotificationTitle)
	assert.Equal(t, "Notification MDPH - AESH mutualisée", *patch.NotificationTitle)
	assert.Empty(t, patch.Overwrites)
}

func TestReconcile_BlankValuesAreIgnored(t *testing.T) {
	current := baseProfile()
	extracted := types.ExtractedProfile{
		AdministrativeFields: types.AdministrativeFields{Level: "   ", BirthDate: ""},
		FamilyContacts:       []types.FamilyContact{{Name: "  "}},
		Strengths: types.CategoryGroup{
			"academic_skills": {"", "  ", " calcul "},
		},
	}

	patch := Reconcile(current, extracted)

	assert.Nil(t, patch.Level)
	assert.Nil(t, patch.BirthDate)
	assert.Equal(t, current.FamilyContacts, patch.FamilyContacts)
	assert.Equal(t, []string{"lecture", "calcul"}, patch.Strengths["academic_skills"])
}

func TestReconcile_SameNameTwiceInExtraction(t *testing.T) {
	current := types.NewStudentProfile("Noé", "Bernard")
	extracted := types.ExtractedProfile{
		FamilyContacts: []types.FamilyContact{
			{Name: "Sophie Bernard", Phone: "0611111111"},
			{Name: "SOPHIE BERNARD", Phone: "0622222222"},
		},
	}

	patch := Reconcile(current, extracted)

	assert.Equal(t, []types.FamilyContact{
		{Name: "Sophie Bernard", Phone: "0611111111"},
	}, patch.FamilyContacts)
}

func TestReconcile_NewGroupOnEmptyProfile(t *testing.T) {
	current := types.NewStudentProfile("Noé", "Bernard")
	extracted := types.ExtractedProfile{
		GlobalProfile: types.CategoryGroup{
			"disability_natures":  {"TSA"},
			"communication_modes": {},
		},
	}

	patch := Reconcile(current, extracted)

	assert.Equal(t, types.CategoryGroup{
		"disability_natures":  {"TSA"},
		"communication_modes": {},
	}, patch.GlobalProfile)
	assert.Equal(t, []string{string(types.CategoryGlobalProfile)}, patch.Sections())
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	current := baseProfile()
	snapshot := current.Clone()
	extracted := types.ExtractedProfile{
		FamilyContacts: []types.FamilyContact{{Name: "Paul Dupont"}},
		Strengths:      types.CategoryGroup{"academic_skills": {"écriture"}},
	}

	patch := Reconcile(current, extracted)
	patch.Strengths["academic_skills"][0] = "changed"
	patch.FamilyContacts[0].Name = "changed"

	if diff := cmp.Diff(snapshot, current); diff != "" {
		t.Errorf("current was modified (-want +got):\n%s", diff)
	}
}

func TestReconcile_EmptyExtractionIsNoop(t *testing.T) {
	current := baseProfile()

	patch := Reconcile(current, types.ExtractedProfile{})

	assert.True(t, patch.IsEmpty())
	if diff := cmp.Diff(current, Apply(current, patch)); diff != "" {
		t.Errorf("empty extraction changed the profile (-want +got):\n%s", diff)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	extractions := []types.ExtractedProfile{
		{},
		{AdministrativeFields: types.AdministrativeFields{Level: "6ème", NotificationExpiration: "2027-08-31"}},
		{
			FamilyContacts: []types.FamilyContact{
				{Name: "marie dupont", Email: "m@d.fr"},
				{Name: "Paul Dupont", Phone: "0700000000"},
			},
		},
		{
			Strengths:    types.CategoryGroup{"academic_skills": {"lecture", " écriture", "écriture"}},
			Difficulties: types.CategoryGroup{"motor": {"graphisme"}, "sensory": {}},
			Needs:        types.CategoryGroup{"human_assistance": {"AESH 12h"}},
		},
	}

	for _, extracted := range extractions {
		current := baseProfile()

		once := Apply(current, Reconcile(current, extracted))
		twice := Apply(once, Reconcile(once, extracted))

		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("second merge changed the profile (-once +twice):\n%s", diff)
		}
	}
}

func TestReconcile_NoDataLossNoDuplicates(t *testing.T) {
	current := baseProfile()
	current.Difficulties = types.CategoryGroup{"cognitive": {"attention", "mémoire de travail"}}
	extracted := types.ExtractedProfile{
		FamilyContacts: []types.FamilyContact{{Name: "MARIE DUPONT"}, {Name: "Jean Dupont"}},
		Strengths:      types.CategoryGroup{"academic_skills": {"lecture"}, "social_skills": {"coopération"}},
		Difficulties:   types.CategoryGroup{"cognitive": {"attention", "planification"}},
	}

	merged := Apply(current, Reconcile(current, extracted))

	for _, c := range types.Categories {
		for key, tags := range current.Group(c) {
			for _, tag := range tags {
				assert.Contains(t, merged.Group(c)[key], tag, "%s.%s lost %q", c, key, tag)
			}
		}
		for key, tags := range merged.Group(c) {
			assert.Len(t, tags, len(uniq(tags)), "%s.%s has duplicates", c, key)
		}
	}

	names := make(map[string]int)
	for _, contact := range merged.FamilyContacts {
		names[NameKey(contact.Name)]++
	}
	for name, n := range names {
		assert.Equal(t, 1, n, "contact %q duplicated", name)
	}
	assert.Len(t, merged.FamilyContacts, 2)
}

func TestReconcile_Deterministic(t *testing.T) {
	current := baseProfile()
	extracted := types.ExtractedProfile{
		AdministrativeFields: types.AdministrativeFields{Level: "6ème"},
		FamilyContacts:       []types.FamilyContact{{Name: "Paul Dupont"}},
		Strengths:            types.CategoryGroup{"academic_skills": {"écriture"}, "interests": {"football"}},
	}

	first := Reconcile(current, extracted)
	second := Reconcile(current, extracted)

	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("reconcile is not deterministic:\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	current := baseProfile()
	patch := types.ProfilePatch{
		Level:          strPtr("6ème"),
		FamilyContacts: []types.FamilyContact{},
		Needs:          types.CategoryGroup{},
	}

	got := Apply(current, patch)

	assert.Equal(t, "6ème", got.Level)
	assert.Equal(t, "2014-03-02", got.BirthDate)
	assert.Empty(t, got.FamilyContacts)
	assert.Empty(t, got.Needs)
	assert.Equal(t, current.Strengths, got.Strengths)
	assert.Len(t, current.FamilyContacts, 1, "input must not change")
}

func TestUnionTags(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		incoming []string
		want     []string
	}{
		{"both empty", nil, nil, []string{}},
		{"existing only", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"incoming appended", []string{"a"}, []string{"b", "a", "c"}, []string{"a", "b", "c"}},
		{"existing duplicates collapse", []string{"a", "a"}, nil, []string{"a"}},
		{"blank incoming dropped", nil, []string{" ", "\t", "x"}, []string{"x"}},
		{"case sensitive", []string{"Lecture"}, []string{"lecture"}, []string{"Lecture", "lecture"}},
		{"padded existing matches trimmed incoming", []string{"dessin "}, []string{"dessin"}, []string{"dessin "}},
		{"padded existing duplicates collapse", []string{"dessin", " dessin"}, nil, []string{"dessin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnionTags(tt.existing, tt.incoming))
		})
	}
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, NameKey("Marie Dupont"), NameKey("  marie DUPONT "))
	// Composed and decomposed accents compare equal.
	assert.Equal(t, NameKey("H\u00e9l\u00e8ne"), NameKey("He\u0301le\u0300ne"))
	assert.Equal(t, NameKey("ÉLODIE"), NameKey("élodie"))
	assert.Equal(t, "", NameKey("   "))
	assert.Equal(t, NameKey("Marie Dupont"), NameKey("Marie  \tDupont"))
}

func TestReconcile_StoredSpacingMatchesCleanExtraction(t *testing.T) {
	current := baseProfile()
	current.FamilyContacts = []types.FamilyContact{{Name: "Marie  Dupont", Phone: "06"}}
	current.Strengths["interests"] = []string{"dessin "}
	extracted := types.ExtractedProfile{
		FamilyContacts: []types.FamilyContact{{Name: "Marie Dupont"}},
		Strengths:      types.CategoryGroup{"interests": {"dessin"}},
	}

	patch := Reconcile(current, extracted)

	assert.Equal(t, current.FamilyContacts, patch.FamilyContacts)
	assert.Equal(t, []string{"dessin "}, patch.Strengths["interests"])
	assert.False(t, Changes(current, patch))
}

func TestChanges(t *testing.T) {
	current := baseProfile()

	tests := []struct {
		name  string
		patch types.ProfilePatch
		want  bool
	}{
		{"empty patch", types.ProfilePatch{}, false},
		{"same level", types.ProfilePatch{Level: strPtr("CM2")}, false},
		{"new level", types.ProfilePatch{Level: strPtr("6ème")}, true},
		{"same contacts", types.ProfilePatch{FamilyContacts: current.FamilyContacts}, false},
		{"extra contact", types.ProfilePatch{FamilyContacts: append([]types.FamilyContact{{Name: "Paul"}}, current.FamilyContacts...)}, true},
		{"same group", types.ProfilePatch{Strengths: current.Strengths.Clone()}, false},
		{"empty group over absent", types.ProfilePatch{Difficulties: types.CategoryGroup{}}, false},
		{"new tag", types.ProfilePatch{Needs: types.CategoryGroup{"pedagogical_accommodations": {"temps majoré", "AESH"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Changes(current, tt.patch))
		})
	}
}

func TestParseAdminPolicy(t *testing.T) {
	p, err := ParseAdminPolicy("")
	require.NoError(t, err)
	assert.Equal(t, AdminOverwrite, p)

	p, err = ParseAdminPolicy("Fill-Empty")
	require.NoError(t, err)
	assert.Equal(t, AdminFillEmpty, p)
	assert.Equal(t, "fill-empty", p.String())

	_, err = ParseAdminPolicy("merge")
	assert.Error(t, err)
}

func uniq(tags []string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}
