package measure

import (
	"context"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type MeasureVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, mv *types.MeasureVersion) error
	// GetByID loads the version with its owned children: dimensions (with
	// chart, table and classification links), uploads and data source
	// associations. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MeasureVersion, error)
	GetByMeasureAndVersion(ctx context.Context, tx *gorm.DB, measureID uuid.UUID, version string) (*types.MeasureVersion, error)
	GetByMeasure(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) ([]*types.MeasureVersion, error)
	ExistsVersion(ctx context.Context, tx *gorm.DB, measureID uuid.UUID, version string) (bool, error)
	GetLatest(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) (*types.MeasureVersion, error)
	// CountLatest is the single-latest invariant probe; more than one row
	// indicates a prior transactional failure and is treated as fatal by
	// callers.
	CountLatest(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) (int64, error)
	ClearLatest(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) error
	Save(ctx context.Context, tx *gorm.DB, mv *types.MeasureVersion) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type measureVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeasureVersionRepo(db *gorm.DB, baseLog *logger.Logger) MeasureVersionRepo {
	return &measureVersionRepo{db: db, log: baseLog.With("repo", "MeasureVersionRepo")}
}

func withChildren(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Dimensions", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Dimensions.Chart").
		Preload("Dimensions.Table").
		Preload("Dimensions.DimensionClassification").
		Preload("Uploads").
		Preload("DataSources").
		Preload("DataSources.DataSource")
}

func (r *measureVersionRepo) Create(ctx context.Context, tx *gorm.DB, mv *types.MeasureVersion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(mv).Error
}

func (r *measureVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MeasureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeasureVersion
	if err := withChildren(transaction.WithContext(ctx)).
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

func (r *measureVersionRepo) GetByMeasureAndVersion(ctx context.Context, tx *gorm.DB, measureID uuid.UUID, version string) (*types.MeasureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeasureVersion
	if err := withChildren(transaction.WithContext(ctx)).
		Where("measure_id = ? AND version = ?", measureID, version).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *measureVersionRepo) GetByMeasure(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) ([]*types.MeasureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeasureVersion
	if err := transaction.WithContext(ctx).
		Where("measure_id = ?", measureID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measureVersionRepo) ExistsVersion(ctx context.Context, tx *gorm.DB, measureID uuid.UUID, version string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.MeasureVersion{}).
		Where("measure_id = ? AND version = ?", measureID, version).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *measureVersionRepo) GetLatest(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) (*types.MeasureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeasureVersion
	if err := transaction.WithContext(ctx).
		Where("measure_id = ? AND latest = ?", measureID, true).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *measureVersionRepo) CountLatest(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.MeasureVersion{}).
		Where("measure_id = ? AND latest = ?", measureID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *measureVersionRepo) ClearLatest(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.MeasureVersion{}).
		Where("measure_id = ? AND latest = ?", measureID, true).
		Update("latest", false).Error
}

func (r *measureVersionRepo) Save(ctx context.Context, tx *gorm.DB, mv *types.MeasureVersion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Omit("Dimensions", "Uploads", "DataSources", "Measure").
		Save(mv).Error
}

func (r *measureVersionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.MeasureVersion{}).Error
}
