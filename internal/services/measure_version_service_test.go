package services

import (
	"context"
	"errors"
	"testing"

	"github.com/statspub/measures-backend/internal/data/repos"
	"github.com/statspub/measures-backend/internal/data/repos/testutil"
	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
)

func TestGetMeasureVersionBySlugs(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, ctx, env.tx, "health")
	subtopic := testutil.SeedSubtopic(t, ctx, env.tx, topic.ID, "access-to-treatment")
	m := testutil.SeedMeasure(t, ctx, env.tx, subtopic.ID, "talking-therapies")
	testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.0", dommeasure.StatusApproved, false)
	testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.1", dommeasure.StatusDraft, true)

	mv, err := env.measureVersions.GetMeasureVersion(ctx, env.tx, "health", "access-to-treatment", "talking-therapies", "1.0")
	if err != nil {
		t.Fatalf("get 1.0: %v", err)
	}
	if mv.Version != "1.0" {
		t.Fatalf("got version %q", mv.Version)
	}

	mv, err = env.measureVersions.GetMeasureVersion(ctx, env.tx, "health", "access-to-treatment", "talking-therapies", VersionLatest)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if mv.Version != "1.1" {
		t.Fatalf("latest resolved to %q, want 1.1", mv.Version)
	}

	_, err = env.measureVersions.GetMeasureVersion(ctx, env.tx, "health", "access-to-treatment", "no-such-measure", "1.0")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
	_, err = env.measureVersions.GetMeasureVersion(ctx, env.tx, "no-such-topic", "access-to-treatment", "talking-therapies", "1.0")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound for broken chain, got %v", err)
	}
}

func TestApprovalChainPublishBookkeeping(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, ctx, env.tx, "education")
	subtopic := testutil.SeedSubtopic(t, ctx, env.tx, topic.ID, "attainment")
	m := testutil.SeedMeasure(t, ctx, env.tx, subtopic.ID, "gcse-results")
	old := testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.0", dommeasure.StatusApproved, true)
	mv := testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.1", dommeasure.StatusDraft, false)

	for _, want := range []dommeasure.Status{
		dommeasure.StatusInternalReview,
		dommeasure.StatusDepartmentReview,
		dommeasure.StatusApproved,
	} {
		got, err := env.measureVersions.SendToNextState(ctx, mv.ID, "editor@example.com")
		if err != nil {
			t.Fatalf("advance to %s: %v", want, err)
		}
		if got.Status != want {
			t.Fatalf("status = %s, want %s", got.Status, want)
		}
	}

	repo := repos.NewMeasureVersionRepo(env.tx, env.log)
	approved, err := repo.GetByID(ctx, env.tx, mv.ID)
	if err != nil {
		t.Fatalf("reload approved: %v", err)
	}
	if !approved.Published || approved.PublishedAt == nil {
		t.Fatal("approval did not stamp publication state")
	}
	if !approved.Latest {
		t.Fatal("approved version should carry latest")
	}

	prev, err := repo.GetByID(ctx, env.tx, old.ID)
	if err != nil {
		t.Fatalf("reload predecessor: %v", err)
	}
	if prev.Latest {
		t.Fatal("predecessor still carries latest")
	}
	count, err := repo.CountLatest(ctx, env.tx, m.ID)
	if err != nil {
		t.Fatalf("count latest: %v", err)
	}
	if count != 1 {
		t.Fatalf("latest count = %d, want 1", count)
	}

	// No forward step exists past approved.
	if _, err := env.measureVersions.SendToNextState(ctx, mv.ID, "editor@example.com"); !errors.Is(err, dommeasure.ErrNoNextState) {
		t.Fatalf("expected ErrNoNextState, got %v", err)
	}
}

func TestRejectAndReturnToDraft(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, ctx, env.tx, "housing")
	subtopic := testutil.SeedSubtopic(t, ctx, env.tx, topic.ID, "ownership")
	m := testutil.SeedMeasure(t, ctx, env.tx, subtopic.ID, "home-ownership")
	mv := testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.0", dommeasure.StatusInternalReview, true)

	rejected, err := env.measureVersions.RejectMeasureVersion(ctx, mv.ID, "reviewer@example.com")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != dommeasure.StatusRejected {
		t.Fatalf("status = %s", rejected.Status)
	}

	// Reject is invalid outside the review states and leaves the row alone.
	if _, err := env.measureVersions.RejectMeasureVersion(ctx, mv.ID, "reviewer@example.com"); !errors.Is(err, dommeasure.ErrRejectionImpossible) {
		t.Fatalf("expected ErrRejectionImpossible, got %v", err)
	}

	back, err := env.measureVersions.SendMeasureVersionToDraft(ctx, mv.ID, "editor@example.com")
	if err != nil {
		t.Fatalf("return to draft: %v", err)
	}
	if back.Status != dommeasure.StatusDraft {
		t.Fatalf("status = %s, want draft", back.Status)
	}
}

func TestUpdateMeasureVersionGuards(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, ctx, env.tx, "work")
	subtopic := testutil.SeedSubtopic(t, ctx, env.tx, topic.ID, "pay")
	m := testutil.SeedMeasure(t, ctx, env.tx, subtopic.ID, "median-hourly-pay")
	inReview := testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.0", dommeasure.StatusDepartmentReview, true)

	title := "new title"
	_, err := env.measureVersions.UpdateMeasureVersion(ctx, env.tx, inReview.ID, MeasureVersionUpdate{
		DBVersion: 1,
		Title:     &title,
	}, "editor@example.com")
	if !errors.Is(err, dommeasure.ErrPageNotEditable) {
		t.Fatalf("expected ErrPageNotEditable, got %v", err)
	}
}

func TestUpdateMeasureVersionStaleHeuristic(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, ctx, env.tx, "justice")
	subtopic := testutil.SeedSubtopic(t, ctx, env.tx, topic.ID, "policing")
	m := testutil.SeedMeasure(t, ctx, env.tx, subtopic.ID, "stop-and-search")
	mv := testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.0", dommeasure.StatusDraft, true)

	summary := "first edit"
	updated, err := env.measureVersions.UpdateMeasureVersion(ctx, env.tx, mv.ID, MeasureVersionUpdate{
		DBVersion: 1,
		Summary:   &summary,
	}, "alice@example.com")
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if updated.DBVersion != 2 {
		t.Fatalf("db_version = %d, want 2", updated.DBVersion)
	}
	if updated.LastUpdatedBy != "alice@example.com" {
		t.Fatalf("last_updated_by = %q", updated.LastUpdatedBy)
	}

	// A second editor still holding counter 1 and changing content conflicts.
	conflicting := "competing edit"
	_, err = env.measureVersions.UpdateMeasureVersion(ctx, env.tx, mv.ID, MeasureVersionUpdate{
		DBVersion: 1,
		Summary:   &conflicting,
	}, "bob@example.com")
	if !errors.Is(err, ErrStaleUpdate) {
		t.Fatalf("expected ErrStaleUpdate, got %v", err)
	}

	// Resubmitting identical content with a stale counter is a no-op, not a
	// conflict.
	same := "first edit"
	resubmitted, err := env.measureVersions.UpdateMeasureVersion(ctx, env.tx, mv.ID, MeasureVersionUpdate{
		DBVersion: 1,
		Summary:   &same,
	}, "bob@example.com")
	if err != nil {
		t.Fatalf("no-op resubmission: %v", err)
	}
	if resubmitted.DBVersion != 2 {
		t.Fatalf("no-op bumped db_version to %d", resubmitted.DBVersion)
	}

	// Filling a field that is still blank overwrites nobody's work, so a
	// stale counter does not block it.
	methodology := "administrative data, annual"
	filled, err := env.measureVersions.UpdateMeasureVersion(ctx, env.tx, mv.ID, MeasureVersionUpdate{
		DBVersion:   1,
		Methodology: &methodology,
	}, "carol@example.com")
	if err != nil {
		t.Fatalf("blank fill with stale counter: %v", err)
	}
	if filled.Methodology != methodology {
		t.Fatalf("methodology = %q", filled.Methodology)
	}
	if filled.DBVersion != 3 {
		t.Fatalf("db_version = %d, want 3", filled.DBVersion)
	}

	// The same stale counter changing the now non-blank field conflicts.
	rewrite := "survey data, quarterly"
	_, err = env.measureVersions.UpdateMeasureVersion(ctx, env.tx, mv.ID, MeasureVersionUpdate{
		DBVersion:   1,
		Methodology: &rewrite,
	}, "dave@example.com")
	if !errors.Is(err, ErrStaleUpdate) {
		t.Fatalf("expected ErrStaleUpdate overwriting non-blank field, got %v", err)
	}
}

func TestUnpublishMeasureVersion(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, ctx, env.tx, "culture")
	subtopic := testutil.SeedSubtopic(t, ctx, env.tx, topic.ID, "participation")
	m := testutil.SeedMeasure(t, ctx, env.tx, subtopic.ID, "museum-visits")
	mv := testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.0", dommeasure.StatusApproved, true)

	got, err := env.measureVersions.UnpublishMeasureVersion(ctx, mv.ID, "admin@example.com")
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if got.Status != dommeasure.StatusUnpublished {
		t.Fatalf("status = %s", got.Status)
	}
	if got.Published || got.UnpublishedAt == nil {
		t.Fatal("unpublish bookkeeping missing")
	}
	// Unpublished versions become editable again.
	if !got.Editable() {
		t.Fatal("unpublished version should be editable")
	}
}
