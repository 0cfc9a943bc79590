package measure

import (
	"context"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type DimensionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, d *types.Dimension) error
	// GetByID loads the dimension with chart, table and dimension-level
	// classification link. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Dimension, error)
	GetByGUID(ctx context.Context, tx *gorm.DB, guid string) (*types.Dimension, error)
	CountByMeasureVersion(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) (int64, error)
	Save(ctx context.Context, tx *gorm.DB, d *types.Dimension) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type dimensionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDimensionRepo(db *gorm.DB, baseLog *logger.Logger) DimensionRepo {
	return &dimensionRepo{db: db, log: baseLog.With("repo", "DimensionRepo")}
}

func withLinks(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Chart").
		Preload("Table").
		Preload("DimensionClassification")
}

func (r *dimensionRepo) Create(ctx context.Context, tx *gorm.DB, d *types.Dimension) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(d).Error
}

func (r *dimensionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Dimension, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Dimension
	if err := withLinks(transaction.WithContext(ctx)).
		Where("id = ?", id).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *dimensionRepo) GetByGUID(ctx context.Context, tx *gorm.DB, guid string) (*types.Dimension, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Dimension
	if err := withLinks(transaction.WithContext(ctx)).
		Where("guid = ?", guid).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *dimensionRepo) CountByMeasureVersion(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Dimension{}).
		Where("measure_version_id = ?", measureVersionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *dimensionRepo) Save(ctx context.Context, tx *gorm.DB, d *types.Dimension) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Omit("Chart", "Table", "DimensionClassification", "MeasureVersion").
		Save(d).Error
}

func (r *dimensionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	// Owned sub-objects and their links go with the dimension.
	if err := transaction.WithContext(ctx).
		Where("dimension_id = ?", id).
		Delete(&types.DimensionChart{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Where("dimension_id = ?", id).
		Delete(&types.DimensionTable{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Where("dimension_id = ?", id).
		Delete(&types.DimensionClassification{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Dimension{}).Error
}

type DimensionChartRepo interface {
	Create(ctx context.Context, tx *gorm.DB, c *types.DimensionChart) error
	DeleteByDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error
}

type dimensionChartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDimensionChartRepo(db *gorm.DB, baseLog *logger.Logger) DimensionChartRepo {
	return &dimensionChartRepo{db: db, log: baseLog.With("repo", "DimensionChartRepo")}
}

func (r *dimensionChartRepo) Create(ctx context.Context, tx *gorm.DB, c *types.DimensionChart) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(c).Error
}

func (r *dimensionChartRepo) DeleteByDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("dimension_id = ?", dimensionID).
		Delete(&types.DimensionChart{}).Error
}

type DimensionTableRepo interface {
	Create(ctx context.Context, tx *gorm.DB, t *types.DimensionTable) error
	DeleteByDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error
}

type dimensionTableRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDimensionTableRepo(db *gorm.DB, baseLog *logger.Logger) DimensionTableRepo {
	return &dimensionTableRepo{db: db, log: baseLog.With("repo", "DimensionTableRepo")}
}

func (r *dimensionTableRepo) Create(ctx context.Context, tx *gorm.DB, t *types.DimensionTable) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(t).Error
}

func (r *dimensionTableRepo) DeleteByDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("dimension_id = ?", dimensionID).
		Delete(&types.DimensionTable{}).Error
}

type DimensionClassificationRepo interface {
	// Replace swaps the dimension-level link for a fresh row.
	Replace(ctx context.Context, tx *gorm.DB, link *types.DimensionClassification) error
	DeleteByDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error
}

type dimensionClassificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDimensionClassificationRepo(db *gorm.DB, baseLog *logger.Logger) DimensionClassificationRepo {
	return &dimensionClassificationRepo{db: db, log: baseLog.With("repo", "DimensionClassificationRepo")}
}

func (r *dimensionClassificationRepo) Replace(ctx context.Context, tx *gorm.DB, link *types.DimensionClassification) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("dimension_id = ?", link.DimensionID).
		Delete(&types.DimensionClassification{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).Create(link).Error
}

func (r *dimensionClassificationRepo) DeleteByDimension(ctx context.Context, tx *gorm.DB, dimensionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("dimension_id = ?", dimensionID).
		Delete(&types.DimensionClassification{}).Error
}
