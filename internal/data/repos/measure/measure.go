package measure

import (
	"context"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type MeasureRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *types.Measure) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Measure, error)
	// GetBySubtopicAndSlug resolves a measure through its subtopic
	// membership join.
	GetBySubtopicAndSlug(ctx context.Context, tx *gorm.DB, subtopicID uuid.UUID, slug string) (*types.Measure, error)
	SlugExistsInSubtopic(ctx context.Context, tx *gorm.DB, subtopicID uuid.UUID, slug string) (bool, error)
	AddToSubtopic(ctx context.Context, tx *gorm.DB, measureID, subtopicID uuid.UUID) error
	SubtopicIDs(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) ([]uuid.UUID, error)
	CountVersions(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type measureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeasureRepo(db *gorm.DB, baseLog *logger.Logger) MeasureRepo {
	return &measureRepo{db: db, log: baseLog.With("repo", "MeasureRepo")}
}

func (r *measureRepo) Create(ctx context.Context, tx *gorm.DB, m *types.Measure) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(m).Error
}

func (r *measureRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Measure, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Measure
	if err := transaction.WithContext(ctx).
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

func (r *measureRepo) GetBySubtopicAndSlug(ctx context.Context, tx *gorm.DB, subtopicID uuid.UUID, slug string) (*types.Measure, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Measure
	if err := transaction.WithContext(ctx).
		Joins("JOIN measure_subtopic ON measure_subtopic.measure_id = measure.id").
		Where("measure_subtopic.subtopic_id = ? AND measure.slug = ?", subtopicID, slug).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *measureRepo) SlugExistsInSubtopic(ctx context.Context, tx *gorm.DB, subtopicID uuid.UUID, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Measure{}).
		Joins("JOIN measure_subtopic ON measure_subtopic.measure_id = measure.id").
		Where("measure_subtopic.subtopic_id = ? AND measure.slug = ?", subtopicID, slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *measureRepo) AddToSubtopic(ctx context.Context, tx *gorm.DB, measureID, subtopicID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.MeasureSubtopic{MeasureID: measureID, SubtopicID: subtopicID}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *measureRepo) SubtopicIDs(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.MeasureSubtopic
	if err := transaction.WithContext(ctx).
		Where("measure_id = ?", measureID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.SubtopicID)
	}
	return out, nil
}

func (r *measureRepo) CountVersions(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.MeasureVersion{}).
		Where("measure_id = ?", measureID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *measureRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("measure_id = ?", id).
		Delete(&types.MeasureSubtopic{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Measure{}).Error
}
