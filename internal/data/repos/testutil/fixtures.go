package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "x",
		Name:         "Test User",
		Active:       true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedTopic(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string) *types.Topic {
	tb.Helper()
	t := &types.Topic{
		ID:    uuid.New(),
		Slug:  slug,
		Title: "Topic " + slug,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed topic: %v", err)
	}
	return t
}

func SeedSubtopic(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID uuid.UUID, slug string) *types.Subtopic {
	tb.Helper()
	s := &types.Subtopic{
		ID:      uuid.New(),
		TopicID: topicID,
		Slug:    slug,
		Title:   "Subtopic " + slug,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed subtopic: %v", err)
	}
	return s
}

func SeedMeasure(tb testing.TB, ctx context.Context, tx *gorm.DB, subtopicID uuid.UUID, slug string) *types.Measure {
	tb.Helper()
	m := &types.Measure{
		ID:   uuid.New(),
		Slug: slug,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed measure: %v", err)
	}
	join := &types.MeasureSubtopic{MeasureID: m.ID, SubtopicID: subtopicID}
	if err := tx.WithContext(ctx).Create(join).Error; err != nil {
		tb.Fatalf("seed measure subtopic join: %v", err)
	}
	return m
}

func SeedMeasureVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, measureID uuid.UUID, version string, status dommeasure.Status, latest bool) *types.MeasureVersion {
	tb.Helper()
	mv := &types.MeasureVersion{
		ID:        uuid.New(),
		MeasureID: measureID,
		Version:   version,
		Status:    status,
		Latest:    latest,
		Title:     "measure version",
		DBVersion: 1,
	}
	if err := tx.WithContext(ctx).Create(mv).Error; err != nil {
		tb.Fatalf("seed measure version: %v", err)
	}
	return mv
}

func SeedDimension(tb testing.TB, ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID, position int) *types.Dimension {
	tb.Helper()
	d := &types.Dimension{
		ID:               uuid.New(),
		MeasureVersionID: measureVersionID,
		GUID:             uuid.NewString(),
		Title:            "dimension",
		Position:         position,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed dimension: %v", err)
	}
	return d
}

func SeedUpload(tb testing.TB, ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID, fileName string) *types.Upload {
	tb.Helper()
	u := &types.Upload{
		ID:               uuid.New(),
		MeasureVersionID: measureVersionID,
		GUID:             uuid.NewString() + "_" + fileName,
		FileName:         fileName,
		Title:            fileName,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed upload: %v", err)
	}
	return u
}

func SeedDataSource(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.DataSource {
	tb.Helper()
	ds := &types.DataSource{
		ID:    uuid.New(),
		Title: title,
	}
	if err := tx.WithContext(ctx).Create(ds).Error; err != nil {
		tb.Fatalf("seed data source: %v", err)
	}
	return ds
}

func SeedEthnicity(tb testing.TB, ctx context.Context, tx *gorm.DB, value string, position int) *types.Ethnicity {
	tb.Helper()
	var existing []*types.Ethnicity
	if err := tx.WithContext(ctx).Where("value = ?", value).Limit(1).Find(&existing).Error; err != nil {
		tb.Fatalf("lookup ethnicity: %v", err)
	}
	if len(existing) > 0 {
		return existing[0]
	}
	e := &types.Ethnicity{
		ID:       uuid.New(),
		Value:    value,
		Position: position,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed ethnicity: %v", err)
	}
	return e
}

// ClassificationValueSpec describes one standard value of a seeded
// classification; Parent names the parent-level display value, empty when
// the classification is flat.
type ClassificationValueSpec struct {
	Value    string
	Required bool
	Parent   string
}

type ClassificationParentSpec struct {
	Value    string
	Required bool
}

// SeedClassification builds a classification with full value sets, creating
// vocabulary rows as needed, and returns it reloaded with preloads.
func SeedClassification(tb testing.TB, ctx context.Context, tx *gorm.DB, code string, values []ClassificationValueSpec, parents []ClassificationParentSpec) *types.Classification {
	tb.Helper()
	c := &types.Classification{
		ID:     uuid.New(),
		Code:   code,
		Family: "ONS",
		Title:  fmt.Sprintf("Test classification %s", code),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed classification: %v", err)
	}

	for i, p := range parents {
		e := SeedEthnicity(tb, ctx, tx, p.Value, i+1)
		row := &types.ClassificationParentValue{
			ID:               uuid.New(),
			ClassificationID: c.ID,
			EthnicityID:      e.ID,
			Position:         i + 1,
			Required:         p.Required,
		}
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			tb.Fatalf("seed classification parent value: %v", err)
		}
	}

	for i, v := range values {
		e := SeedEthnicity(tb, ctx, tx, v.Value, i+1)
		row := &types.ClassificationValue{
			ID:               uuid.New(),
			ClassificationID: c.ID,
			EthnicityID:      e.ID,
			Position:         i + 1,
			Required:         v.Required,
		}
		if v.Parent != "" {
			p := SeedEthnicity(tb, ctx, tx, v.Parent, 100+i)
			row.ParentEthnicityID = &p.ID
		}
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			tb.Fatalf("seed classification value: %v", err)
		}
	}

	var reloaded []*types.Classification
	if err := tx.WithContext(ctx).
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Values.Ethnicity").
		Preload("Values.ParentEthnicity").
		Preload("ParentValues", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("ParentValues.Ethnicity").
		Where("id = ?", c.ID).
		Find(&reloaded).Error; err != nil || len(reloaded) == 0 {
		tb.Fatalf("reload classification: %v", err)
	}
	return reloaded[0]
}

// SeedChart attaches a chart with a classification link to a dimension.
func SeedChart(tb testing.TB, ctx context.Context, tx *gorm.DB, dimensionID, classificationID uuid.UUID, parents, all, unknown bool) *types.DimensionChart {
	tb.Helper()
	ch := &types.DimensionChart{
		ID:               uuid.New(),
		DimensionID:      dimensionID,
		ChartObject:      datatypes.JSON([]byte(`{"type":"bar"}`)),
		Settings:         datatypes.JSON([]byte(`{}`)),
		ClassificationID: &classificationID,
		IncludesParents:  parents,
		IncludesAll:      all,
		IncludesUnknown:  unknown,
	}
	if err := tx.WithContext(ctx).Create(ch).Error; err != nil {
		tb.Fatalf("seed dimension chart: %v", err)
	}
	return ch
}

func SeedTable(tb testing.TB, ctx context.Context, tx *gorm.DB, dimensionID, classificationID uuid.UUID, parents, all, unknown bool) *types.DimensionTable {
	tb.Helper()
	tbl := &types.DimensionTable{
		ID:               uuid.New(),
		DimensionID:      dimensionID,
		TableObject:      datatypes.JSON([]byte(`{"rows":[]}`)),
		Settings:         datatypes.JSON([]byte(`{}`)),
		ClassificationID: &classificationID,
		IncludesParents:  parents,
		IncludesAll:      all,
		IncludesUnknown:  unknown,
	}
	if err := tx.WithContext(ctx).Create(tbl).Error; err != nil {
		tb.Fatalf("seed dimension table: %v", err)
	}
	return tbl
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }
