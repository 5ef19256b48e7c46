package sax

import "strings"

// NameCase selects how element and attribute names are reported: as
// written, lowercased, or uppercased.
type NameCase int

const (
	CaseDefault NameCase = iota
	CaseLower
	CaseUpper
)

// ParseNameCase maps the property strings "default", "lower" and "upper".
// Unrecognized values fall back to CaseDefault.
func ParseNameCase(s string) NameCase {
	switch strings.ToLower(s) {
	case "lower":
		return CaseLower
	case "upper":
		return CaseUpper
	}
	return CaseDefault
}

// ApplyCase renders a name under the policy.
func ApplyCase(nc NameCase, s string) string {
	switch nc {
	case CaseLower:
		return strings.ToLower(s)
	case CaseUpper:
		return strings.ToUpper(s)
	}
	return s
}
