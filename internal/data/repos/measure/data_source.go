package measure

import (
	"context"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type DataSourceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ds *types.DataSource) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.DataSource, error)
	// Associate links shared data source rows to a version; the rows
	// themselves are never owned or copied.
	Associate(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID, dataSourceIDs []uuid.UUID) error
	AssociationsByVersion(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) ([]*types.MeasureVersionDataSource, error)
	// DeleteAssociations removes a version's join rows; the shared data
	// source rows themselves stay.
	DeleteAssociations(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) error
}

type dataSourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDataSourceRepo(db *gorm.DB, baseLog *logger.Logger) DataSourceRepo {
	return &dataSourceRepo{db: db, log: baseLog.With("repo", "DataSourceRepo")}
}

func (r *dataSourceRepo) Create(ctx context.Context, tx *gorm.DB, ds *types.DataSource) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(ds).Error
}

func (r *dataSourceRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.DataSource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DataSource
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *dataSourceRepo) Associate(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID, dataSourceIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(dataSourceIDs) == 0 {
		return nil
	}
	rows := make([]*types.MeasureVersionDataSource, 0, len(dataSourceIDs))
	for _, id := range dataSourceIDs {
		rows = append(rows, &types.MeasureVersionDataSource{
			MeasureVersionID: measureVersionID,
			DataSourceID:     id,
		})
	}
	return transaction.WithContext(ctx).Create(&rows).Error
}

func (r *dataSourceRepo) DeleteAssociations(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("measure_version_id = ?", measureVersionID).
		Delete(&types.MeasureVersionDataSource{}).Error
}

func (r *dataSourceRepo) AssociationsByVersion(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID) ([]*types.MeasureVersionDataSource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeasureVersionDataSource
	if err := transaction.WithContext(ctx).
		Where("measure_version_id = ?", measureVersionID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
