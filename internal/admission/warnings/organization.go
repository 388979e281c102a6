package warnings

import (
	"strings"
	"unicode"

	"training-admissions/internal/models"
)

type MatchKind string

const (
	MatchExact   MatchKind = "exact"
	MatchSimilar MatchKind = "similar"
)

// OrganizationWarning is raised when a new organization name collides
// with one or more existing organizations.
type OrganizationWarning struct {
	Kind       MatchKind             `json:"kind"`
	Name       string                `json:"name"`
	Candidates []models.Organization `json:"candidates"`
	Message    string                `json:"message"`
}

// Exact returns the exactly matching organization, if any.
func (w *OrganizationWarning) Exact() *models.Organization {
	if w == nil || w.Kind != MatchExact || len(w.Candidates) == 0 {
		return nil
	}
	return &w.Candidates[0]
}

var legalSuffixes = map[string]bool{
	"ltd": true, "limited": true, "inc": true, "plc": true,
	"llc": true, "co": true, "company": true, "corp": true,
}

// NormalizeOrganizationName lowercases name, drops punctuation and
// trailing legal-form words, and collapses whitespace, so that
// "Acme Ltd." and "ACME limited" normalise to "acme".
func NormalizeOrganizationName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for len(words) > 1 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// MatchOrganization compares a requested organization name with the
// candidates returned by the organization search. A candidate whose
// normalised name equals the request is an exact match; any other
// candidate is similar. Nil means the name is free.
func MatchOrganization(name string, candidates []models.Organization) *OrganizationWarning {
	want := NormalizeOrganizationName(name)
	if want == "" || len(candidates) == 0 {
		return nil
	}

	for _, c := range candidates {
		if NormalizeOrganizationName(c.Name) == want {
			return &OrganizationWarning{
				Kind:       MatchExact,
				Name:       name,
				Candidates: []models.Organization{c},
				Message:    "An organization named " + c.Name + " already exists.",
			}
		}
	}
	return &OrganizationWarning{
		Kind:       MatchSimilar,
		Name:       name,
		Candidates: candidates,
		Message:    "Organizations with similar names already exist.",
	}
}
