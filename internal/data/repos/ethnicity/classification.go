package ethnicity

import (
	"context"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClassificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, c *types.Classification) error
	// GetByID loads the classification with its value sets (and their
	// ethnicities) ordered by position. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Classification, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Classification, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Classification, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Classification, error)
	ExistsByFamilyTitle(ctx context.Context, tx *gorm.DB, family, title string) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// ReferenceCount counts chart, table and dimension-level links still
	// pointing at the classification.
	ReferenceCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	CreateValues(ctx context.Context, tx *gorm.DB, rows []*types.ClassificationValue) error
	CreateParentValues(ctx context.Context, tx *gorm.DB, rows []*types.ClassificationParentValue) error
}

type classificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassificationRepo(db *gorm.DB, baseLog *logger.Logger) ClassificationRepo {
	return &classificationRepo{db: db, log: baseLog.With("repo", "ClassificationRepo")}
}

func withValueSets(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Values.Ethnicity").
		Preload("Values.ParentEthnicity").
		Preload("ParentValues", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("ParentValues.Ethnicity")
}

func (r *classificationRepo) Create(ctx context.Context, tx *gorm.DB, c *types.Classification) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(c).Error
}

func (r *classificationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Classification
	if err := withValueSets(transaction.WithContext(ctx)).
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

func (r *classificationRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Classification
	if err := withValueSets(transaction.WithContext(ctx)).
		Where("code = ?", code).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *classificationRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Classification
	if len(ids) == 0 {
		return results, nil
	}
	if err := withValueSets(transaction.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *classificationRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Classification
	if err := withValueSets(transaction.WithContext(ctx)).
		Order("position").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *classificationRepo) ExistsByFamilyTitle(ctx context.Context, tx *gorm.DB, family, title string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Classification{}).
		Where("family = ? AND title = ?", family, title).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *classificationRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("classification_id = ?", id).
		Delete(&types.ClassificationValue{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Where("classification_id = ?", id).
		Delete(&types.ClassificationParentValue{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Classification{}).Error
}

func (r *classificationRepo) ReferenceCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.DimensionChart{}).
		Where("classification_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	total += count
	if err := transaction.WithContext(ctx).
		Model(&types.DimensionTable{}).
		Where("classification_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	total += count
	if err := transaction.WithContext(ctx).
		Model(&types.DimensionClassification{}).
		Where("classification_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	total += count
	return total, nil
}

func (r *classificationRepo) CreateValues(ctx context.Context, tx *gorm.DB, rows []*types.ClassificationValue) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *classificationRepo) CreateParentValues(ctx context.Context, tx *gorm.DB, rows []*types.ClassificationParentValue) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
