package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statspub/measures-backend/internal/data/repos"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
)

// ClassificationRegistryService manages the canonical classification
// library. It is constructor-injected wherever needed; there is no global
// registry state.
type ClassificationRegistryService interface {
	CreateClassification(ctx context.Context, tx *gorm.DB, code, family, subfamily, title string, position int) (*types.Classification, error)
	AddValuesToClassification(ctx context.Context, tx *gorm.DB, classificationID uuid.UUID, values []string) error
	AddParentValuesToClassification(ctx context.Context, tx *gorm.DB, classificationID uuid.UUID, values []string) error
	GetClassificationByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Classification, error)
	GetClassificationByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Classification, error)
	ListClassifications(ctx context.Context, tx *gorm.DB) ([]*types.Classification, error)
	DeleteClassification(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// CleanupOrphanEthnicities reclaims vocabulary rows referenced by no
	// classification. Explicit pass; never runs as a side effect.
	CleanupOrphanEthnicities(ctx context.Context, tx *gorm.DB) (int64, error)
	// InferClassification picks the registered classification compatible
	// with a raw breakdown, preferring the least complex match.
	InferClassification(ctx context.Context, tx *gorm.DB, rawLabels []string, standardiser *Standardiser) (*types.Classification, error)
	SyncFromFile(ctx context.Context, path string) error
}

type classificationRegistryService struct {
	db                 *gorm.DB
	log                *logger.Logger
	classificationRepo repos.ClassificationRepo
	ethnicityRepo      repos.EthnicityRepo
}

func NewClassificationRegistryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	classificationRepo repos.ClassificationRepo,
	ethnicityRepo repos.EthnicityRepo,
) ClassificationRegistryService {
	return &classificationRegistryService{
		db:                 db,
		log:                baseLog.With("service", "ClassificationRegistryService"),
		classificationRepo: classificationRepo,
		ethnicityRepo:      ethnicityRepo,
	}
}

func (s *classificationRegistryService) CreateClassification(ctx context.Context, tx *gorm.DB, code, family, subfamily, title string, position int) (*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	exists, err := s.classificationRepo.ExistsByFamilyTitle(ctx, transaction, family, title)
	if err != nil {
		return nil, fmt.Errorf("check classification family/title: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: family %q title %q", ErrDuplicateClassification, family, title)
	}

	c := &types.Classification{
		ID:        uuid.New(),
		Code:      code,
		Family:    family,
		Subfamily: subfamily,
		Title:     title,
		Position:  position,
	}
	if err := s.classificationRepo.Create(ctx, transaction, c); err != nil {
		return nil, fmt.Errorf("create classification: %w", err)
	}
	return c, nil
}

func (s *classificationRegistryService) AddValuesToClassification(ctx context.Context, tx *gorm.DB, classificationID uuid.UUID, values []string) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	ethnicities, err := s.ethnicityRepo.GetOrCreateByValues(ctx, transaction, values)
	if err != nil {
		return fmt.Errorf("resolve ethnicities: %w", err)
	}
	rows := make([]*types.ClassificationValue, 0, len(ethnicities))
	for i, e := range ethnicities {
		rows = append(rows, &types.ClassificationValue{
			ID:               uuid.New(),
			ClassificationID: classificationID,
			EthnicityID:      e.ID,
			Position:         i + 1,
			Required:         true,
		})
	}
	if err := s.classificationRepo.CreateValues(ctx, transaction, rows); err != nil {
		return fmt.Errorf("append classification values: %w", err)
	}
	return nil
}

func (s *classificationRegistryService) AddParentValuesToClassification(ctx context.Context, tx *gorm.DB, classificationID uuid.UUID, values []string) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	ethnicities, err := s.ethnicityRepo.GetOrCreateByValues(ctx, transaction, values)
	if err != nil {
		return fmt.Errorf("resolve ethnicities: %w", err)
	}
	rows := make([]*types.ClassificationParentValue, 0, len(ethnicities))
	for i, e := range ethnicities {
		rows = append(rows, &types.ClassificationParentValue{
			ID:               uuid.New(),
			ClassificationID: classificationID,
			EthnicityID:      e.ID,
			Position:         i + 1,
			Required:         true,
		})
	}
	if err := s.classificationRepo.CreateParentValues(ctx, transaction, rows); err != nil {
		return fmt.Errorf("append classification parent values: %w", err)
	}
	return nil
}

func (s *classificationRegistryService) GetClassificationByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	c, err := s.classificationRepo.GetByCode(ctx, transaction, code)
	if err != nil {
		return nil, fmt.Errorf("get classification by code: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: code %q", ErrClassificationNotFound, code)
	}
	return c, nil
}

func (s *classificationRegistryService) GetClassificationByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	c, err := s.classificationRepo.GetByID(ctx, transaction, id)
	if err != nil {
		return nil, fmt.Errorf("get classification by id: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: id %s", ErrClassificationNotFound, id)
	}
	return c, nil
}

func (s *classificationRegistryService) ListClassifications(ctx context.Context, tx *gorm.DB) ([]*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return s.classificationRepo.List(ctx, transaction)
}

func (s *classificationRegistryService) DeleteClassification(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	refs, err := s.classificationRepo.ReferenceCount(ctx, transaction, id)
	if err != nil {
		return fmt.Errorf("count classification references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d links", ErrClassificationInUse, refs)
	}
	if err := s.classificationRepo.Delete(ctx, transaction, id); err != nil {
		return fmt.Errorf("delete classification: %w", err)
	}
	return nil
}

func (s *classificationRegistryService) CleanupOrphanEthnicities(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	n, err := s.ethnicityRepo.DeleteOrphans(ctx, transaction)
	if err != nil {
		return 0, fmt.Errorf("delete orphan ethnicities: %w", err)
	}
	if n > 0 {
		s.log.Info("Reclaimed orphan ethnicities", "count", n)
	}
	return n, nil
}

func (s *classificationRegistryService) InferClassification(ctx context.Context, tx *gorm.DB, rawLabels []string, standardiser *Standardiser) (*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	library, err := s.classificationRepo.List(ctx, transaction)
	if err != nil {
		return nil, fmt.Errorf("load classification library: %w", err)
	}
	standardised := standardiser.StandardiseAll(rawLabels)
	matches := CompatibleClassifications(library, standardised)
	if len(matches) == 0 {
		return nil, ErrCouldNotClassify
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if m.Complexity() < best.Complexity() {
			best = m
		}
	}
	return best, nil
}
