package ethnicity

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/statspub/measures-backend/internal/data/repos/testutil"
	types "github.com/statspub/measures-backend/internal/domain"
	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
)

func TestClassificationRepoLifecycle(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewClassificationRepo(tx, log)

	c := &types.Classification{
		ID:     uuid.New(),
		Code:   "2A",
		Family: "ONS",
		Title:  "White and Other",
	}
	if err := repo.Create(ctx, tx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	white := testutil.SeedEthnicity(t, ctx, tx, "White", 1)
	other := testutil.SeedEthnicity(t, ctx, tx, "Other", 2)
	rows := []*types.ClassificationValue{
		{ID: uuid.New(), ClassificationID: c.ID, EthnicityID: white.ID, Position: 1, Required: true},
		{ID: uuid.New(), ClassificationID: c.ID, EthnicityID: other.ID, Position: 2, Required: true},
	}
	if err := repo.CreateValues(ctx, tx, rows); err != nil {
		t.Fatalf("create values: %v", err)
	}
	// Re-inserting the same (classification, ethnicity) pairs is a no-op.
	if err := repo.CreateValues(ctx, tx, rows); err != nil {
		t.Fatalf("idempotent create values: %v", err)
	}

	got, err := repo.GetByCode(ctx, tx, "2A")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got == nil {
		t.Fatal("classification not found by code")
	}
	if len(got.Values) != 2 {
		t.Fatalf("loaded %d values, want 2", len(got.Values))
	}
	if got.Values[0].Ethnicity == nil || got.Values[0].Ethnicity.Value != "White" {
		t.Fatalf("values not ordered by position with ethnicity preloaded: %+v", got.Values[0])
	}

	exists, err := repo.ExistsByFamilyTitle(ctx, tx, "ONS", "White and Other")
	if err != nil {
		t.Fatalf("exists check: %v", err)
	}
	if !exists {
		t.Fatal("family/title pair should exist")
	}

	missing, err := repo.GetByCode(ctx, tx, "99Z")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected (nil, nil) for missing code")
	}

	if err := repo.Delete(ctx, tx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := repo.GetByID(ctx, tx, c.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if gone != nil {
		t.Fatal("classification still present after delete")
	}
}

func TestClassificationRepoReferenceCount(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewClassificationRepo(tx, log)

	topic := testutil.SeedTopic(t, ctx, tx, "health")
	subtopic := testutil.SeedSubtopic(t, ctx, tx, topic.ID, "diagnoses")
	m := testutil.SeedMeasure(t, ctx, tx, subtopic.ID, "diabetes")
	mv := testutil.SeedMeasureVersion(t, ctx, tx, m.ID, "1.0", dommeasure.StatusDraft, true)
	d := testutil.SeedDimension(t, ctx, tx, mv.ID, 0)

	c := testutil.SeedClassification(t, ctx, tx, "2A", []testutil.ClassificationValueSpec{
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)

	n, err := repo.ReferenceCount(ctx, tx, c.ID)
	if err != nil {
		t.Fatalf("reference count: %v", err)
	}
	if n != 0 {
		t.Fatalf("unreferenced count = %d", n)
	}

	testutil.SeedChart(t, ctx, tx, d.ID, c.ID, false, false, false)
	testutil.SeedTable(t, ctx, tx, d.ID, c.ID, false, true, false)
	link := &types.DimensionClassification{
		ID:               uuid.New(),
		DimensionID:      d.ID,
		ClassificationID: c.ID,
	}
	if err := tx.WithContext(ctx).Create(link).Error; err != nil {
		t.Fatalf("seed dimension classification: %v", err)
	}

	n, err = repo.ReferenceCount(ctx, tx, c.ID)
	if err != nil {
		t.Fatalf("reference count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3 across chart, table and dimension links", n)
	}
}

func TestEthnicityRepoGetOrCreateAndOrphans(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewEthnicityRepo(tx, log)

	first, err := repo.GetOrCreateByValues(ctx, tx, []string{"White", "Other"})
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("created %d rows, want 2", len(first))
	}
	second, err := repo.GetOrCreateByValues(ctx, tx, []string{"White", "Mixed"})
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("resolved %d rows, want 2", len(second))
	}
	for _, e := range second {
		if e.Value == "White" && e.ID != first[0].ID && e.ID != first[1].ID {
			t.Fatal("existing vocabulary row was duplicated")
		}
	}

	// Everything is unreferenced inside this transaction, so a cleanup
	// pass reclaims all three rows.
	n, err := repo.DeleteOrphans(ctx, tx)
	if err != nil {
		t.Fatalf("delete orphans: %v", err)
	}
	if n != 3 {
		t.Fatalf("reclaimed %d rows, want 3", n)
	}
}
