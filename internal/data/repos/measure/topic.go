package measure

import (
	"context"

	"github.com/google/uuid"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type TopicRepo interface {
	Create(ctx context.Context, tx *gorm.DB, t *types.Topic) error
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Topic, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Topic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) Create(ctx context.Context, tx *gorm.DB, t *types.Topic) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(t).Error
}

func (r *topicRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Topic
	if err := transaction.WithContext(ctx).
		Where("slug = ?", slug).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *topicRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Topic
	if err := transaction.WithContext(ctx).
		Order("position").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type SubtopicRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *types.Subtopic) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Subtopic, error)
	GetByTopicAndSlug(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, slug string) (*types.Subtopic, error)
}

type subtopicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubtopicRepo(db *gorm.DB, baseLog *logger.Logger) SubtopicRepo {
	return &subtopicRepo{db: db, log: baseLog.With("repo", "SubtopicRepo")}
}

func (r *subtopicRepo) Create(ctx context.Context, tx *gorm.DB, s *types.Subtopic) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(s).Error
}

func (r *subtopicRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Subtopic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Subtopic
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

func (r *subtopicRepo) GetByTopicAndSlug(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, slug string) (*types.Subtopic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Subtopic
	if err := transaction.WithContext(ctx).
		Where("topic_id = ? AND slug = ?", topicID, slug).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
