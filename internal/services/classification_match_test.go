package services

import (
	"testing"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
)

func buildEthnicity(value string) *types.Ethnicity {
	return &types.Ethnicity{ID: uuid.New(), Value: value}
}

type valueSpec struct {
	value    string
	required bool
	parent   string
}

type parentSpec struct {
	value    string
	required bool
}

func buildClassification(code string, values []valueSpec, parents []parentSpec) *types.Classification {
	c := &types.Classification{ID: uuid.New(), Code: code, Family: "ONS", Title: "Classification " + code}
	parentByValue := map[string]*types.Ethnicity{}
	for i, p := range parents {
		e := buildEthnicity(p.value)
		parentByValue[p.value] = e
		c.ParentValues = append(c.ParentValues, types.ClassificationParentValue{
			ID:               uuid.New(),
			ClassificationID: c.ID,
			EthnicityID:      e.ID,
			Ethnicity:        e,
			Position:         i + 1,
			Required:         p.required,
		})
	}
	for i, v := range values {
		e := buildEthnicity(v.value)
		row := types.ClassificationValue{
			ID:               uuid.New(),
			ClassificationID: c.ID,
			EthnicityID:      e.ID,
			Ethnicity:        e,
			Position:         i + 1,
			Required:         v.required,
		}
		if v.parent != "" {
			p, ok := parentByValue[v.parent]
			if !ok {
				p = buildEthnicity(v.parent)
			}
			row.ParentEthnicityID = &p.ID
			row.ParentEthnicity = p
		}
		c.Values = append(c.Values, row)
	}
	return c
}

func TestStandardiser(t *testing.T) {
	s := NewStandardiser(map[string]string{
		"white british": "White British",
		"BAME ":         "Other",
	})

	cases := map[string]string{
		"White British":   "White British",
		"  WHITE BRITISH": "White British",
		"bame":            "Other",
		"Martian":         "Martian",
		"  Martian  ":     "Martian",
	}
	for raw, want := range cases {
		if got := s.Standardise(raw); got != want {
			t.Errorf("Standardise(%q) = %q, want %q", raw, got, want)
		}
	}

	all := s.StandardiseAll([]string{"white british", "Martian"})
	if len(all) != 2 || all[0] != "White British" || all[1] != "Martian" {
		t.Fatalf("StandardiseAll = %v", all)
	}
}

func TestBuildClassificationLinkFlags(t *testing.T) {
	flat := buildClassification("2A", []valueSpec{
		{value: "White", required: true},
		{value: "Other", required: true},
	}, nil)

	link := BuildClassificationLink(flat, []string{"White", "Other", "All"})
	if !link.IncludesAll || link.IncludesUnknown || link.IncludesParents {
		t.Fatalf("flat link flags = %+v", link)
	}
	if link.ClassificationID != flat.ID {
		t.Fatal("link carries wrong classification id")
	}

	link = BuildClassificationLink(flat, []string{"White", "Other", "Unknown"})
	if link.IncludesAll || !link.IncludesUnknown {
		t.Fatalf("unknown flag wrong: %+v", link)
	}
}

func TestBuildClassificationLinkParents(t *testing.T) {
	nested := buildClassification("5B", []valueSpec{
		{value: "Asian British", required: true, parent: "Asian"},
		{value: "Asian Other", required: true, parent: "Asian"},
		{value: "White British", required: true, parent: "White"},
		{value: "White Other", required: true, parent: "White"},
	}, []parentSpec{
		{value: "Asian", required: true},
		{value: "White", required: true},
	})

	displayed := []string{"Asian", "Asian British", "Asian Other", "White", "White British", "White Other"}
	link := BuildClassificationLink(nested, displayed)
	if !link.IncludesParents {
		t.Fatalf("expected includes_parents with all parents displayed: %+v", link)
	}

	missingParent := []string{"Asian", "Asian British", "Asian Other", "White British", "White Other"}
	link = BuildClassificationLink(nested, missingParent)
	if link.IncludesParents {
		t.Fatalf("includes_parents despite missing required parent: %+v", link)
	}

	// Trivial parent structure: every value is its own parent.
	trivial := buildClassification("2B", []valueSpec{
		{value: "White", required: true, parent: "White"},
		{value: "Other", required: true, parent: "Other"},
	}, []parentSpec{
		{value: "White", required: true},
		{value: "Other", required: true},
	})
	link = BuildClassificationLink(trivial, []string{"White", "Other"})
	if link.IncludesParents {
		t.Fatalf("includes_parents for trivial parent structure: %+v", link)
	}
}

func TestCompatibleClassifications(t *testing.T) {
	twoA := buildClassification("2A", []valueSpec{
		{value: "White", required: true},
		{value: "Other", required: true},
	}, nil)
	fiveA := buildClassification("5A", []valueSpec{
		{value: "Asian", required: true},
		{value: "Black", required: true},
		{value: "Mixed", required: true},
		{value: "White", required: true},
		{value: "Other", required: true},
	}, nil)
	library := []*types.Classification{twoA, fiveA}

	got := CompatibleClassifications(library, []string{"White", "Other", "All"})
	if len(got) != 1 || got[0].Code != "2A" {
		t.Fatalf("expected only 2A, got %d matches", len(got))
	}

	got = CompatibleClassifications(library, []string{"Asian", "Black", "Mixed", "White", "Other", "Unknown"})
	if len(got) != 1 || got[0].Code != "5A" {
		t.Fatalf("expected only 5A, got %d matches", len(got))
	}

	// A label no classification knows rules them all out.
	got = CompatibleClassifications(library, []string{"White", "Other", "Martian"})
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}

	// Missing required value rules a classification out.
	got = CompatibleClassifications(library, []string{"White"})
	if len(got) != 0 {
		t.Fatalf("expected no matches with missing required value, got %d", len(got))
	}
}
