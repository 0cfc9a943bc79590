package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/statspub/measures-backend/internal/data/repos"
	types "github.com/statspub/measures-backend/internal/domain"
	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
	"github.com/statspub/measures-backend/internal/platform/logger"
)

type DimensionService interface {
	CreateDimension(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID, title, timePeriod, summary string) (*types.Dimension, error)
	GetDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) (*types.Dimension, error)
	UpdateDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID, update DimensionUpdate) (*types.Dimension, error)
	DeleteDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error
	// SetChart replaces the dimension's chart outright: the old row and its
	// embedded classification link are deleted and a fresh row is created.
	SetChart(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID, chartObject, settings datatypes.JSON, link *types.ClassificationLink) (*types.DimensionChart, error)
	SetTable(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID, tableObject, settings datatypes.JSON, link *types.ClassificationLink) (*types.DimensionTable, error)
	DeleteChart(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error
	DeleteTable(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error
	// LinkClassificationToDimension sets the dimension-level link manually.
	LinkClassificationToDimension(ctx context.Context, tx *gorm.DB, dimensionID, classificationID uuid.UUID, includesParents, includesAll, includesUnknown bool) (*types.DimensionClassification, error)
	// UpdateDimensionClassificationFromChartOrTable recomputes the
	// dimension-level link from whichever of chart/table is present. Only
	// runs when explicitly invoked; callers decide whether an edit should
	// overwrite a manually selected link.
	UpdateDimensionClassificationFromChartOrTable(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error
	// ClassificationSourceString reports "Chart", "Table", "Manually
	// selected", or "" when the dimension has no classification.
	ClassificationSourceString(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) (string, error)
}

type dimensionService struct {
	db                 *gorm.DB
	log                *logger.Logger
	dimensionRepo      repos.DimensionRepo
	chartRepo          repos.DimensionChartRepo
	tableRepo          repos.DimensionTableRepo
	linkRepo           repos.DimensionClassificationRepo
	measureVersionRepo repos.MeasureVersionRepo
	classificationRepo repos.ClassificationRepo
}

func NewDimensionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	dimensionRepo repos.DimensionRepo,
	chartRepo repos.DimensionChartRepo,
	tableRepo repos.DimensionTableRepo,
	linkRepo repos.DimensionClassificationRepo,
	measureVersionRepo repos.MeasureVersionRepo,
	classificationRepo repos.ClassificationRepo,
) DimensionService {
	return &dimensionService{
		db:                 db,
		log:                baseLog.With("service", "DimensionService"),
		dimensionRepo:      dimensionRepo,
		chartRepo:          chartRepo,
		tableRepo:          tableRepo,
		linkRepo:           linkRepo,
		measureVersionRepo: measureVersionRepo,
		classificationRepo: classificationRepo,
	}
}

func (s *dimensionService) ensureEditable(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) error {
	mv, err := s.measureVersionRepo.GetByID(ctx, tx, measureVersionID)
	if err != nil {
		return fmt.Errorf("load measure version: %w", err)
	}
	if mv == nil {
		return fmt.Errorf("%w: measure version %s", ErrPageNotFound, measureVersionID)
	}
	if !mv.Editable() {
		return fmt.Errorf("%w: status %q", dommeasure.ErrPageNotEditable, mv.Status)
	}
	return nil
}

func (s *dimensionService) loadDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) (*types.Dimension, error) {
	d, err := s.dimensionRepo.GetByID(ctx, tx, dimensionID)
	if err != nil {
		return nil, fmt.Errorf("load dimension: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrDimensionNotFound, dimensionID)
	}
	return d, nil
}

func (s *dimensionService) CreateDimension(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID, title, timePeriod, summary string) (*types.Dimension, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	if err := s.ensureEditable(ctx, transaction, measureVersionID); err != nil {
		return nil, err
	}

	// Position is the dimension count at creation time.
	count, err := s.dimensionRepo.CountByMeasureVersion(ctx, transaction, measureVersionID)
	if err != nil {
		return nil, fmt.Errorf("count dimensions: %w", err)
	}

	d := &types.Dimension{
		ID:               uuid.New(),
		MeasureVersionID: measureVersionID,
		GUID:             uuid.NewString(),
		Title:            title,
		TimePeriod:       timePeriod,
		Summary:          summary,
		Position:         int(count),
	}
	if err := s.dimensionRepo.Create(ctx, transaction, d); err != nil {
		return nil, fmt.Errorf("create dimension: %w", err)
	}
	return d, nil
}

func (s *dimensionService) GetDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) (*types.Dimension, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return s.loadDimension(ctx, transaction, dimensionID)
}

// DimensionUpdate carries the editable scalar fields. Nil pointers leave
// the stored value unchanged.
type DimensionUpdate struct {
	Title      *string
	TimePeriod *string
	Summary    *string
}

func (s *dimensionService) UpdateDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID, update DimensionUpdate) (*types.Dimension, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, transaction, d.MeasureVersionID); err != nil {
		return nil, err
	}

	if update.Title != nil {
		d.Title = *update.Title
	}
	if update.TimePeriod != nil {
		d.TimePeriod = *update.TimePeriod
	}
	if update.Summary != nil {
		d.Summary = *update.Summary
	}
	if err := s.dimensionRepo.Save(ctx, transaction, d); err != nil {
		return nil, fmt.Errorf("save dimension: %w", err)
	}
	return d, nil
}

func (s *dimensionService) DeleteDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return err
	}
	if err := s.ensureEditable(ctx, transaction, d.MeasureVersionID); err != nil {
		return err
	}
	if err := s.dimensionRepo.Delete(ctx, transaction, dimensionID); err != nil {
		return fmt.Errorf("delete dimension: %w", err)
	}
	return nil
}

func (s *dimensionService) SetChart(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID, chartObject, settings datatypes.JSON, link *types.ClassificationLink) (*types.DimensionChart, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, transaction, d.MeasureVersionID); err != nil {
		return nil, err
	}

	if err := s.chartRepo.DeleteByDimension(ctx, transaction, dimensionID); err != nil {
		return nil, fmt.Errorf("delete old chart: %w", err)
	}
	chart := &types.DimensionChart{
		ID:          uuid.New(),
		DimensionID: dimensionID,
		ChartObject: chartObject,
		Settings:    settings,
	}
	if link != nil {
		chart.ClassificationID = &link.ClassificationID
		chart.IncludesParents = link.IncludesParents
		chart.IncludesAll = link.IncludesAll
		chart.IncludesUnknown = link.IncludesUnknown
	}
	if err := s.chartRepo.Create(ctx, transaction, chart); err != nil {
		return nil, fmt.Errorf("create chart: %w", err)
	}
	return chart, nil
}

func (s *dimensionService) SetTable(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID, tableObject, settings datatypes.JSON, link *types.ClassificationLink) (*types.DimensionTable, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, transaction, d.MeasureVersionID); err != nil {
		return nil, err
	}

	if err := s.tableRepo.DeleteByDimension(ctx, transaction, dimensionID); err != nil {
		return nil, fmt.Errorf("delete old table: %w", err)
	}
	table := &types.DimensionTable{
		ID:          uuid.New(),
		DimensionID: dimensionID,
		TableObject: tableObject,
		Settings:    settings,
	}
	if link != nil {
		table.ClassificationID = &link.ClassificationID
		table.IncludesParents = link.IncludesParents
		table.IncludesAll = link.IncludesAll
		table.IncludesUnknown = link.IncludesUnknown
	}
	if err := s.tableRepo.Create(ctx, transaction, table); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	return table, nil
}

func (s *dimensionService) DeleteChart(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return err
	}
	if err := s.ensureEditable(ctx, transaction, d.MeasureVersionID); err != nil {
		return err
	}

	derivedFromChart := d.DimensionClassification.Link().Matches(d.Chart.Link())
	if err := s.chartRepo.DeleteByDimension(ctx, transaction, dimensionID); err != nil {
		return fmt.Errorf("delete chart: %w", err)
	}
	if derivedFromChart {
		return s.UpdateDimensionClassificationFromChartOrTable(ctx, transaction, dimensionID)
	}
	return nil
}

func (s *dimensionService) DeleteTable(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return err
	}
	if err := s.ensureEditable(ctx, transaction, d.MeasureVersionID); err != nil {
		return err
	}

	derivedFromTable := d.DimensionClassification.Link().Matches(d.Table.Link())
	if err := s.tableRepo.DeleteByDimension(ctx, transaction, dimensionID); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	if derivedFromTable {
		return s.UpdateDimensionClassificationFromChartOrTable(ctx, transaction, dimensionID)
	}
	return nil
}

func (s *dimensionService) LinkClassificationToDimension(ctx context.Context, tx *gorm.DB, dimensionID, classificationID uuid.UUID, includesParents, includesAll, includesUnknown bool) (*types.DimensionClassification, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, transaction, d.MeasureVersionID); err != nil {
		return nil, err
	}

	c, err := s.classificationRepo.GetByID(ctx, transaction, classificationID)
	if err != nil {
		return nil, fmt.Errorf("load classification: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: id %s", ErrClassificationNotFound, classificationID)
	}

	link := &types.DimensionClassification{
		ID:               uuid.New(),
		DimensionID:      dimensionID,
		ClassificationID: classificationID,
		IncludesParents:  includesParents,
		IncludesAll:      includesAll,
		IncludesUnknown:  includesUnknown,
	}
	if err := s.linkRepo.Replace(ctx, transaction, link); err != nil {
		return nil, fmt.Errorf("replace dimension classification: %w", err)
	}
	return link, nil
}

func (s *dimensionService) UpdateDimensionClassificationFromChartOrTable(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return err
	}

	winner, err := s.winningLink(ctx, transaction, d)
	if err != nil {
		return err
	}
	if winner == nil {
		if err := s.linkRepo.DeleteByDimension(ctx, transaction, dimensionID); err != nil {
			return fmt.Errorf("delete dimension classification: %w", err)
		}
		return nil
	}

	link := &types.DimensionClassification{
		ID:               uuid.New(),
		DimensionID:      dimensionID,
		ClassificationID: winner.ClassificationID,
		IncludesParents:  winner.IncludesParents,
		IncludesAll:      winner.IncludesAll,
		IncludesUnknown:  winner.IncludesUnknown,
	}
	if err := s.linkRepo.Replace(ctx, transaction, link); err != nil {
		return fmt.Errorf("replace dimension classification: %w", err)
	}
	return nil
}

// winningLink picks the link the dimension as a whole should carry: the
// only one present, or the one whose classification has the larger
// standard value set. On an exact cardinality tie the table wins; the tie
// rule is deliberate and deterministic, not an accident of evaluation
// order.
func (s *dimensionService) winningLink(ctx context.Context, tx *gorm.DB, d *types.Dimension) (*types.ClassificationLink, error) {
	chartLink := d.Chart.Link()
	tableLink := d.Table.Link()

	switch {
	case chartLink == nil && tableLink == nil:
		return nil, nil
	case tableLink == nil:
		return chartLink, nil
	case chartLink == nil:
		return tableLink, nil
	}

	classifications, err := s.classificationRepo.GetByIDs(ctx, tx, []uuid.UUID{chartLink.ClassificationID, tableLink.ClassificationID})
	if err != nil {
		return nil, fmt.Errorf("load linked classifications: %w", err)
	}
	complexity := map[uuid.UUID]int{}
	for _, c := range classifications {
		complexity[c.ID] = c.Complexity()
	}

	if complexity[chartLink.ClassificationID] > complexity[tableLink.ClassificationID] {
		return chartLink, nil
	}
	return tableLink, nil
}

func (s *dimensionService) ClassificationSourceString(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) (string, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	d, err := s.loadDimension(ctx, transaction, dimensionID)
	if err != nil {
		return "", err
	}
	return d.ClassificationSource(), nil
}
