package measure

import (
	"context"
	"testing"

	"github.com/statspub/measures-backend/internal/data/repos/testutil"
	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
)

func TestMeasureVersionRepoLookups(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewMeasureVersionRepo(tx, log)

	topic := testutil.SeedTopic(t, ctx, tx, "work")
	subtopic := testutil.SeedSubtopic(t, ctx, tx, topic.ID, "employment")
	m := testutil.SeedMeasure(t, ctx, tx, subtopic.ID, "employment-rate")
	v10 := testutil.SeedMeasureVersion(t, ctx, tx, m.ID, "1.0", dommeasure.StatusApproved, false)
	v11 := testutil.SeedMeasureVersion(t, ctx, tx, m.ID, "1.1", dommeasure.StatusDraft, true)

	got, err := repo.GetByMeasureAndVersion(ctx, tx, m.ID, "1.0")
	if err != nil {
		t.Fatalf("get by measure and version: %v", err)
	}
	if got == nil || got.ID != v10.ID {
		t.Fatal("wrong row for 1.0")
	}

	missing, err := repo.GetByMeasureAndVersion(ctx, tx, m.ID, "9.9")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected (nil, nil) for missing version")
	}

	exists, err := repo.ExistsVersion(ctx, tx, m.ID, "1.1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("1.1 should exist")
	}

	latest, err := repo.GetLatest(ctx, tx, m.ID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest == nil || latest.ID != v11.ID {
		t.Fatal("latest should be 1.1")
	}

	all, err := repo.GetByMeasure(ctx, tx, m.ID)
	if err != nil {
		t.Fatalf("get by measure: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d versions, want 2", len(all))
	}
}

func TestMeasureVersionRepoLatestFlag(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewMeasureVersionRepo(tx, log)

	topic := testutil.SeedTopic(t, ctx, tx, "housing")
	subtopic := testutil.SeedSubtopic(t, ctx, tx, topic.ID, "social-housing")
	m := testutil.SeedMeasure(t, ctx, tx, subtopic.ID, "social-housing-lettings")
	testutil.SeedMeasureVersion(t, ctx, tx, m.ID, "1.0", dommeasure.StatusApproved, true)
	v20 := testutil.SeedMeasureVersion(t, ctx, tx, m.ID, "2.0", dommeasure.StatusDraft, false)

	if err := repo.ClearLatest(ctx, tx, m.ID); err != nil {
		t.Fatalf("clear latest: %v", err)
	}
	count, err := repo.CountLatest(ctx, tx, m.ID)
	if err != nil {
		t.Fatalf("count latest: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after clear = %d", count)
	}

	v20.Latest = true
	if err := repo.Save(ctx, tx, v20); err != nil {
		t.Fatalf("save: %v", err)
	}
	count, err = repo.CountLatest(ctx, tx, m.ID)
	if err != nil {
		t.Fatalf("count latest: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	latest, err := repo.GetLatest(ctx, tx, m.ID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.ID != v20.ID {
		t.Fatal("latest did not move to 2.0")
	}
}

func TestMeasureVersionRepoLoadsChildren(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()
	repo := NewMeasureVersionRepo(tx, log)

	topic := testutil.SeedTopic(t, ctx, tx, "education")
	subtopic := testutil.SeedSubtopic(t, ctx, tx, topic.ID, "absence")
	m := testutil.SeedMeasure(t, ctx, tx, subtopic.ID, "pupil-absence")
	mv := testutil.SeedMeasureVersion(t, ctx, tx, m.ID, "1.0", dommeasure.StatusDraft, true)

	// Seed out of order; the preload orders by position.
	testutil.SeedDimension(t, ctx, tx, mv.ID, 1)
	d0 := testutil.SeedDimension(t, ctx, tx, mv.ID, 0)
	testutil.SeedUpload(t, ctx, tx, mv.ID, "absence.csv")

	got, err := repo.GetByID(ctx, tx, mv.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if len(got.Dimensions) != 2 {
		t.Fatalf("loaded %d dimensions, want 2", len(got.Dimensions))
	}
	if got.Dimensions[0].ID != d0.ID {
		t.Fatal("dimensions not ordered by position")
	}
	if len(got.Uploads) != 1 || got.Uploads[0].FileName != "absence.csv" {
		t.Fatal("uploads not loaded")
	}
}
