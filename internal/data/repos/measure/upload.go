package measure

import (
	"context"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UploadRepo interface {
	Create(ctx context.Context, tx *gorm.DB, u *types.Upload) error
	GetByMeasureVersion(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) ([]*types.Upload, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type uploadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadRepo(db *gorm.DB, baseLog *logger.Logger) UploadRepo {
	return &uploadRepo{db: db, log: baseLog.With("repo", "UploadRepo")}
}

func (r *uploadRepo) Create(ctx context.Context, tx *gorm.DB, u *types.Upload) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(u).Error
}

func (r *uploadRepo) GetByMeasureVersion(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) ([]*types.Upload, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Upload
	if err := transaction.WithContext(ctx).
		Where("measure_version_id = ?", measureVersionID).
		Order("file_name").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *uploadRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Upload{}).Error
}
