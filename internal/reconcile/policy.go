package reconcile

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// AdminPolicy decides what happens when an extraction proposes a value for
// an administrative field that already holds one.
type AdminPolicy string

const (
	// AdminOverwrite writes every non-blank extracted value.
	AdminOverwrite AdminPolicy = ""
	// AdminFillEmpty only writes extracted values into empty fields.
	AdminFillEmpty AdminPolicy = "fill-empty"
)

// ParseAdminPolicy parses a policy name as found in configuration.
func ParseAdminPolicy(s string) (AdminPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return AdminOverwrite, nil
	case "fill-empty", "fill_empty":
		return AdminFillEmpty, nil
	default:
		return AdminOverwrite, fmt.Errorf("unknown admin field policy %q (want overwrite or fill-empty)", s)
	}
}

func (p AdminPolicy) String() string {
	if p == AdminOverwrite {
		return "overwrite"
	}
	return string(p)
}

// NameKey returns the identity key of a contact name: runs of whitespace
// collapsed to one space, NFC normalised and case folded. Blank names
// yield "".
func NameKey(name string) string {
	name = CleanName(name)
	if name == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(name))
}

// CleanName trims name and collapses inner runs of whitespace.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
