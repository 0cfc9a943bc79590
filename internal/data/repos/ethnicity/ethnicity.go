package ethnicity

import (
	"context"

	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type EthnicityRepo interface {
	GetByValues(ctx context.Context, tx *gorm.DB, values []string) ([]*types.Ethnicity, error)
	// GetOrCreateByValues resolves every named value to an ethnicity row,
	// creating missing ones. Idempotent.
	GetOrCreateByValues(ctx context.Context, tx *gorm.DB, values []string) ([]*types.Ethnicity, error)
	// DeleteOrphans removes ethnicities referenced by no classification
	// value or parent value row. Explicit cleanup pass, never automatic.
	DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error)
}

type ethnicityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEthnicityRepo(db *gorm.DB, baseLog *logger.Logger) EthnicityRepo {
	return &ethnicityRepo{db: db, log: baseLog.With("repo", "EthnicityRepo")}
}

func (r *ethnicityRepo) GetByValues(ctx context.Context, tx *gorm.DB, values []string) ([]*types.Ethnicity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Ethnicity
	if len(values) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("value IN ?", values).
		Order("position").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ethnicityRepo) GetOrCreateByValues(ctx context.Context, tx *gorm.DB, values []string) ([]*types.Ethnicity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	existing, err := r.GetByValues(ctx, transaction, values)
	if err != nil {
		return nil, err
	}
	byValue := make(map[string]*types.Ethnicity, len(existing))
	for _, e := range existing {
		byValue[e.Value] = e
	}

	out := make([]*types.Ethnicity, 0, len(values))
	for _, v := range values {
		if e, ok := byValue[v]; ok {
			out = append(out, e)
			continue
		}
		e := &types.Ethnicity{Value: v}
		if err := transaction.WithContext(ctx).Create(e).Error; err != nil {
			return nil, err
		}
		byValue[v] = e
		out = append(out, e)
	}
	return out, nil
}

func (r *ethnicityRepo) DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("id NOT IN (SELECT ethnicity_id FROM classification_value)").
		Where("id NOT IN (SELECT ethnicity_id FROM classification_parent_value)").
		Where("id NOT IN (SELECT parent_ethnicity_id FROM classification_value WHERE parent_ethnicity_id IS NOT NULL)").
		Delete(&types.Ethnicity{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
