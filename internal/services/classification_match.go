package services

import (
	"strings"

	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/domain/ethnicity"
)

// Standardiser maps raw ethnicity labels, as they appear in uploaded chart
// and table source data, onto the canonical vocabulary. Lookup is
// case-insensitive and whitespace-trimmed; unmapped labels pass through
// unchanged.
type Standardiser struct {
	lookup map[string]string
}

func NewStandardiser(mapping map[string]string) *Standardiser {
	lookup := make(map[string]string, len(mapping))
	for raw, standard := range mapping {
		lookup[normaliseLabel(raw)] = standard
	}
	return &Standardiser{lookup: lookup}
}

func normaliseLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Standardiser) Standardise(raw string) string {
	if s != nil {
		if standard, ok := s.lookup[normaliseLabel(raw)]; ok {
			return standard
		}
	}
	return strings.TrimSpace(raw)
}

func (s *Standardiser) StandardiseAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		out = append(out, s.Standardise(r))
	}
	return out
}

func valueSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// BuildClassificationLink derives the three inclusion flags for an
// explicitly selected classification from the standardised values actually
// displayed:
//
//   - includes_all: the literal "All" value is present,
//   - includes_unknown: the literal "Unknown" value is present,
//   - includes_parents: the classification has a non-trivial parent
//     structure and every required parent value is displayed.
func BuildClassificationLink(c *types.Classification, standardised []string) types.ClassificationLink {
	present := valueSet(standardised)

	link := types.ClassificationLink{
		ClassificationID: c.ID,
		IncludesAll:      present[ethnicity.ValueAll],
		IncludesUnknown:  present[ethnicity.ValueUnknown],
	}

	if c.HasParentChildRelationship() {
		required := c.RequiredParentValueStrings()
		allPresent := len(required) > 0
		for _, p := range required {
			if !present[p] {
				allPresent = false
				break
			}
		}
		link.IncludesParents = allPresent
	}
	return link
}

// classificationMatches reports whether a classification is compatible with
// a standardised breakdown: every required standard value is displayed, and
// every displayed value (apart from the literal "All"/"Unknown") is known
// to the classification at either level.
func classificationMatches(c *types.Classification, standardised []string) bool {
	present := valueSet(standardised)

	for _, req := range c.RequiredValueStrings() {
		if !present[req] {
			return false
		}
	}

	known := valueSet(c.KnownValueStrings())
	for v := range present {
		if v == ethnicity.ValueAll || v == ethnicity.ValueUnknown {
			continue
		}
		if !known[v] {
			return false
		}
	}
	return true
}

// CompatibleClassifications filters the registered library down to the
// classifications compatible with a standardised breakdown, preserving
// input order.
func CompatibleClassifications(library []*types.Classification, standardised []string) []*types.Classification {
	var out []*types.Classification
	for _, c := range library {
		if classificationMatches(c, standardised) {
			out = append(out, c)
		}
	}
	return out
}
