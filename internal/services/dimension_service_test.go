package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/statspub/measures-backend/internal/data/repos/testutil"
	types "github.com/statspub/measures-backend/internal/domain"
	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
)

func seedDraftVersion(t *testing.T, env *serviceEnv, topicSlug, measureSlug string) *types.MeasureVersion {
	t.Helper()
	ctx := context.Background()
	topic := testutil.SeedTopic(t, ctx, env.tx, topicSlug)
	subtopic := testutil.SeedSubtopic(t, ctx, env.tx, topic.ID, topicSlug+"-sub")
	m := testutil.SeedMeasure(t, ctx, env.tx, subtopic.ID, measureSlug)
	return testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.0", dommeasure.StatusDraft, true)
}

func TestCreateDimensionAssignsPosition(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	mv := seedDraftVersion(t, env, "health", "self-reported-wellbeing")

	first, err := env.dimensions.CreateDimension(ctx, env.tx, mv.ID, "By ethnicity", "2019/20", "")
	if err != nil {
		t.Fatalf("create first dimension: %v", err)
	}
	if first.Position != 0 {
		t.Fatalf("first position = %d, want 0", first.Position)
	}
	second, err := env.dimensions.CreateDimension(ctx, env.tx, mv.ID, "By ethnicity and age", "2019/20", "")
	if err != nil {
		t.Fatalf("create second dimension: %v", err)
	}
	if second.Position != 1 {
		t.Fatalf("second position = %d, want 1", second.Position)
	}
	if first.GUID == second.GUID {
		t.Fatal("dimensions share a guid")
	}
}

func TestDimensionMutationsBlockedWhenNotEditable(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	topic := testutil.SeedTopic(t, ctx, env.tx, "work")
	subtopic := testutil.SeedSubtopic(t, ctx, env.tx, topic.ID, "pay-gaps")
	m := testutil.SeedMeasure(t, ctx, env.tx, subtopic.ID, "pay-gap")
	mv := testutil.SeedMeasureVersion(t, ctx, env.tx, m.ID, "1.0", dommeasure.StatusInternalReview, true)

	_, err := env.dimensions.CreateDimension(ctx, env.tx, mv.ID, "By ethnicity", "", "")
	if !errors.Is(err, dommeasure.ErrPageNotEditable) {
		t.Fatalf("expected ErrPageNotEditable, got %v", err)
	}
}

func TestUpdateDimensionPatchesOnlyProvidedFields(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	mv := seedDraftVersion(t, env, "justice", "stop-and-search")

	d, err := env.dimensions.CreateDimension(ctx, env.tx, mv.ID, "By ethnicity", "2019/20", "Rates per 1,000 people")
	if err != nil {
		t.Fatalf("create dimension: %v", err)
	}

	title := "By ethnicity and area"
	got, err := env.dimensions.UpdateDimension(ctx, env.tx, d.ID, DimensionUpdate{Title: &title})
	if err != nil {
		t.Fatalf("update dimension: %v", err)
	}
	if got.Title != title {
		t.Fatalf("title = %q, want %q", got.Title, title)
	}
	if got.TimePeriod != "2019/20" || got.Summary != "Rates per 1,000 people" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.Position != d.Position || got.GUID != d.GUID {
		t.Fatal("identity fields changed on update")
	}
}

func TestReconciliationPrefersHigherCardinality(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	mv := seedDraftVersion(t, env, "education", "a-level-results")

	twoA := testutil.SeedClassification(t, ctx, env.tx, "2A", []testutil.ClassificationValueSpec{
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)
	fiveA := testutil.SeedClassification(t, ctx, env.tx, "5A", []testutil.ClassificationValueSpec{
		{Value: "Asian", Required: true},
		{Value: "Black", Required: true},
		{Value: "Mixed", Required: true},
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)

	d := testutil.SeedDimension(t, ctx, env.tx, mv.ID, 0)
	testutil.SeedChart(t, ctx, env.tx, d.ID, twoA.ID, false, true, false)
	testutil.SeedTable(t, ctx, env.tx, d.ID, fiveA.ID, false, true, true)

	if err := env.dimensions.UpdateDimensionClassificationFromChartOrTable(ctx, env.tx, d.ID); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got, err := env.dimensions.GetDimension(ctx, env.tx, d.ID)
	if err != nil {
		t.Fatalf("reload dimension: %v", err)
	}
	link := got.DimensionClassification
	if link == nil {
		t.Fatal("no dimension classification after reconciliation")
	}
	if link.ClassificationID != fiveA.ID {
		t.Fatal("reconciliation did not pick the larger breakdown")
	}
	if !link.IncludesAll || !link.IncludesUnknown || link.IncludesParents {
		t.Fatalf("flags not copied verbatim from table: %+v", link)
	}
	if src := got.ClassificationSource(); src != dommeasure.SourceTable {
		t.Fatalf("source = %q, want %q", src, dommeasure.SourceTable)
	}
}

func TestReconciliationChartWinsWhenLarger(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	mv := seedDraftVersion(t, env, "housing", "overcrowding")

	twoA := testutil.SeedClassification(t, ctx, env.tx, "2A", []testutil.ClassificationValueSpec{
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)
	fiveA := testutil.SeedClassification(t, ctx, env.tx, "5A", []testutil.ClassificationValueSpec{
		{Value: "Asian", Required: true},
		{Value: "Black", Required: true},
		{Value: "Mixed", Required: true},
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)

	d := testutil.SeedDimension(t, ctx, env.tx, mv.ID, 0)
	testutil.SeedChart(t, ctx, env.tx, d.ID, fiveA.ID, false, false, false)
	testutil.SeedTable(t, ctx, env.tx, d.ID, twoA.ID, false, true, false)

	if err := env.dimensions.UpdateDimensionClassificationFromChartOrTable(ctx, env.tx, d.ID); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got, err := env.dimensions.GetDimension(ctx, env.tx, d.ID)
	if err != nil {
		t.Fatalf("reload dimension: %v", err)
	}
	if got.DimensionClassification.ClassificationID != fiveA.ID {
		t.Fatal("chart with larger breakdown should win")
	}
	if src := got.ClassificationSource(); src != dommeasure.SourceChart {
		t.Fatalf("source = %q, want %q", src, dommeasure.SourceChart)
	}
}

func TestReconciliationTieGoesToTable(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	mv := seedDraftVersion(t, env, "crime", "arrests")

	twoA := testutil.SeedClassification(t, ctx, env.tx, "2A", []testutil.ClassificationValueSpec{
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)
	twoB := testutil.SeedClassification(t, ctx, env.tx, "2B", []testutil.ClassificationValueSpec{
		{Value: "White British", Required: true},
		{Value: "All other", Required: true},
	}, nil)

	d := testutil.SeedDimension(t, ctx, env.tx, mv.ID, 0)
	testutil.SeedChart(t, ctx, env.tx, d.ID, twoA.ID, false, false, false)
	testutil.SeedTable(t, ctx, env.tx, d.ID, twoB.ID, false, true, false)

	if err := env.dimensions.UpdateDimensionClassificationFromChartOrTable(ctx, env.tx, d.ID); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got, err := env.dimensions.GetDimension(ctx, env.tx, d.ID)
	if err != nil {
		t.Fatalf("reload dimension: %v", err)
	}
	if got.DimensionClassification.ClassificationID != twoB.ID {
		t.Fatal("equal-cardinality tie should resolve to the table")
	}
}

func TestReconciliationSingleAndNone(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	mv := seedDraftVersion(t, env, "justice", "custody")

	twoA := testutil.SeedClassification(t, ctx, env.tx, "2A", []testutil.ClassificationValueSpec{
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)

	d := testutil.SeedDimension(t, ctx, env.tx, mv.ID, 0)
	testutil.SeedChart(t, ctx, env.tx, d.ID, twoA.ID, false, true, false)

	if err := env.dimensions.UpdateDimensionClassificationFromChartOrTable(ctx, env.tx, d.ID); err != nil {
		t.Fatalf("reconcile with chart only: %v", err)
	}
	got, err := env.dimensions.GetDimension(ctx, env.tx, d.ID)
	if err != nil {
		t.Fatalf("reload dimension: %v", err)
	}
	if got.DimensionClassification == nil || !got.DimensionClassification.IncludesAll {
		t.Fatal("chart link not copied verbatim")
	}

	// Deleting the chart removes the derived link too.
	if err := env.dimensions.DeleteChart(ctx, env.tx, d.ID); err != nil {
		t.Fatalf("delete chart: %v", err)
	}
	got, err = env.dimensions.GetDimension(ctx, env.tx, d.ID)
	if err != nil {
		t.Fatalf("reload dimension: %v", err)
	}
	if got.Chart != nil {
		t.Fatal("chart row survived deletion")
	}
	if got.DimensionClassification != nil {
		t.Fatal("derived link survived chart deletion")
	}
}

func TestDeleteChartKeepsManuallySelectedLink(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	mv := seedDraftVersion(t, env, "culture", "sports-participation")

	twoA := testutil.SeedClassification(t, ctx, env.tx, "2A", []testutil.ClassificationValueSpec{
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)
	fiveA := testutil.SeedClassification(t, ctx, env.tx, "5A", []testutil.ClassificationValueSpec{
		{Value: "Asian", Required: true},
		{Value: "Black", Required: true},
		{Value: "Mixed", Required: true},
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)

	d := testutil.SeedDimension(t, ctx, env.tx, mv.ID, 0)
	testutil.SeedChart(t, ctx, env.tx, d.ID, twoA.ID, false, false, false)

	if _, err := env.dimensions.LinkClassificationToDimension(ctx, env.tx, d.ID, fiveA.ID, false, false, false); err != nil {
		t.Fatalf("manual link: %v", err)
	}
	if err := env.dimensions.DeleteChart(ctx, env.tx, d.ID); err != nil {
		t.Fatalf("delete chart: %v", err)
	}

	got, err := env.dimensions.GetDimension(ctx, env.tx, d.ID)
	if err != nil {
		t.Fatalf("reload dimension: %v", err)
	}
	if got.DimensionClassification == nil || got.DimensionClassification.ClassificationID != fiveA.ID {
		t.Fatal("manually selected link should survive chart deletion")
	}
	if src := got.ClassificationSource(); src != dommeasure.SourceManuallySelected {
		t.Fatalf("source = %q, want %q", src, dommeasure.SourceManuallySelected)
	}
}

func TestSetChartReplacesRowOutright(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	mv := seedDraftVersion(t, env, "transport", "car-ownership")

	twoA := testutil.SeedClassification(t, ctx, env.tx, "2A", []testutil.ClassificationValueSpec{
		{Value: "White", Required: true},
		{Value: "Other", Required: true},
	}, nil)

	d := testutil.SeedDimension(t, ctx, env.tx, mv.ID, 0)
	old := testutil.SeedChart(t, ctx, env.tx, d.ID, twoA.ID, false, true, true)

	chart, err := env.dimensions.SetChart(ctx, env.tx, d.ID,
		datatypes.JSON([]byte(`{"type":"line"}`)),
		datatypes.JSON([]byte(`{}`)),
		&types.ClassificationLink{ClassificationID: twoA.ID})
	if err != nil {
		t.Fatalf("set chart: %v", err)
	}
	if chart.ID == old.ID {
		t.Fatal("chart row was updated in place instead of replaced")
	}
	if chart.IncludesAll || chart.IncludesUnknown {
		t.Fatal("old link flags bled into the replacement")
	}

	got, err := env.dimensions.GetDimension(ctx, env.tx, d.ID)
	if err != nil {
		t.Fatalf("reload dimension: %v", err)
	}
	if got.Chart == nil || got.Chart.ID != chart.ID {
		t.Fatal("dimension does not carry the replacement chart")
	}
}
