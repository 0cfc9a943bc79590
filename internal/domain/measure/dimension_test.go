package measure

import (
	"testing"

	"github.com/google/uuid"
)

func chartWithLink(classificationID uuid.UUID, parents, all, unknown bool) *DimensionChart {
	return &DimensionChart{
		ClassificationID: &classificationID,
		IncludesParents:  parents,
		IncludesAll:      all,
		IncludesUnknown:  unknown,
	}
}

func tableWithLink(classificationID uuid.UUID, parents, all, unknown bool) *DimensionTable {
	return &DimensionTable{
		ClassificationID: &classificationID,
		IncludesParents:  parents,
		IncludesAll:      all,
		IncludesUnknown:  unknown,
	}
}

func dimensionLink(classificationID uuid.UUID, parents, all, unknown bool) *DimensionClassification {
	return &DimensionClassification{
		ClassificationID: classificationID,
		IncludesParents:  parents,
		IncludesAll:      all,
		IncludesUnknown:  unknown,
	}
}

func TestClassificationSource(t *testing.T) {
	twoA := uuid.New()
	fiveA := uuid.New()

	t.Run("no dimension classification", func(t *testing.T) {
		d := &Dimension{Chart: chartWithLink(twoA, false, true, false)}
		if got := d.ClassificationSource(); got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})

	t.Run("matches chart only", func(t *testing.T) {
		d := &Dimension{
			Chart:                   chartWithLink(twoA, false, true, false),
			Table:                   tableWithLink(fiveA, false, false, false),
			DimensionClassification: dimensionLink(twoA, false, true, false),
		}
		if got := d.ClassificationSource(); got != SourceChart {
			t.Fatalf("got %q, want %q", got, SourceChart)
		}
	})

	t.Run("matches table only", func(t *testing.T) {
		d := &Dimension{
			Chart:                   chartWithLink(twoA, false, true, false),
			Table:                   tableWithLink(fiveA, true, false, false),
			DimensionClassification: dimensionLink(fiveA, true, false, false),
		}
		if got := d.ClassificationSource(); got != SourceTable {
			t.Fatalf("got %q, want %q", got, SourceTable)
		}
	})

	t.Run("three-way match resolves to table", func(t *testing.T) {
		d := &Dimension{
			Chart:                   chartWithLink(twoA, false, true, false),
			Table:                   tableWithLink(twoA, false, true, false),
			DimensionClassification: dimensionLink(twoA, false, true, false),
		}
		if got := d.ClassificationSource(); got != SourceTable {
			t.Fatalf("got %q, want %q", got, SourceTable)
		}
	})

	t.Run("matches neither", func(t *testing.T) {
		d := &Dimension{
			Chart:                   chartWithLink(twoA, false, true, false),
			Table:                   tableWithLink(fiveA, false, false, false),
			DimensionClassification: dimensionLink(twoA, true, true, false),
		}
		if got := d.ClassificationSource(); got != SourceManuallySelected {
			t.Fatalf("got %q, want %q", got, SourceManuallySelected)
		}
	})

	t.Run("flags differ from chart by one flag", func(t *testing.T) {
		d := &Dimension{
			Chart:                   chartWithLink(twoA, false, true, false),
			DimensionClassification: dimensionLink(twoA, false, true, true),
		}
		if got := d.ClassificationSource(); got != SourceManuallySelected {
			t.Fatalf("got %q, want %q", got, SourceManuallySelected)
		}
	})
}

func TestLinkMatches(t *testing.T) {
	id := uuid.New()
	a := &ClassificationLink{ClassificationID: id, IncludesAll: true}
	b := &ClassificationLink{ClassificationID: id, IncludesAll: true}
	if !a.Matches(b) {
		t.Fatal("identical links should match")
	}
	b.IncludesUnknown = true
	if a.Matches(b) {
		t.Fatal("flag mismatch should not match")
	}
	if a.Matches(nil) {
		t.Fatal("nil should not match")
	}
}
