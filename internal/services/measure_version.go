package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/statspub/measures-backend/internal/data/repos"
	types "github.com/statspub/measures-backend/internal/domain"
	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
	"github.com/statspub/measures-backend/internal/platform/audit"
	"github.com/statspub/measures-backend/internal/platform/logger"
)

// MeasureVersionUpdate carries a content edit. Nil fields are left alone;
// DBVersion is the stale counter the editor loaded the page with.
type MeasureVersionUpdate struct {
	DBVersion int

	Title                       *string
	Summary                     *string
	MeasureSummary              *string
	NeedToKnow                  *string
	EthnicityDefinitions        *string
	Methodology                 *string
	SuppressionAndDisclosure    *string
	EstimationProcess           *string
	RelatedPublications         *string
	QMIURL                      *string
	FurtherTechnicalInformation *string
	TimeCoveredPhrase           *string
	LowestLevelOfGeography      *string
	AreaCovered                 *datatypes.JSON

	InternalEditSummary       *string
	ExternalEditSummary       *string
	UpdateCorrectsDataMistake *bool
}

type MeasureVersionService interface {
	// GetMeasure resolves a measure through the topic/subtopic/measure slug
	// chain. A break anywhere in the chain is reported as PageNotFound.
	GetMeasure(ctx context.Context, tx *gorm.DB, topicSlug, subtopicSlug, measureSlug string) (*types.Measure, error)
	// GetMeasureVersion resolves one version by slugs. The version string
	// "latest" selects the row carrying the latest flag.
	GetMeasureVersion(ctx context.Context, tx *gorm.DB, topicSlug, subtopicSlug, measureSlug, version string) (*types.MeasureVersion, error)
	ListVersions(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) ([]*types.MeasureVersion, error)
	// UpdateMeasureVersion applies a content edit to an editable version,
	// bumping the stale counter.
	UpdateMeasureVersion(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID, update MeasureVersionUpdate, updatedBy string) (*types.MeasureVersion, error)
	// SendToNextState advances the approval chain one step. Reaching
	// approved performs the publish bookkeeping in the same transaction.
	SendToNextState(ctx context.Context, measureVersionID uuid.UUID, actor string) (*types.MeasureVersion, error)
	RejectMeasureVersion(ctx context.Context, measureVersionID uuid.UUID, actor string) (*types.MeasureVersion, error)
	SendMeasureVersionToDraft(ctx context.Context, measureVersionID uuid.UUID, actor string) (*types.MeasureVersion, error)
	UnpublishMeasureVersion(ctx context.Context, measureVersionID uuid.UUID, actor string) (*types.MeasureVersion, error)
}

type measureVersionService struct {
	db                 *gorm.DB
	log                *logger.Logger
	auditSink          audit.Sink
	topicRepo          repos.TopicRepo
	subtopicRepo       repos.SubtopicRepo
	measureRepo        repos.MeasureRepo
	measureVersionRepo repos.MeasureVersionRepo
}

func NewMeasureVersionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	auditSink audit.Sink,
	topicRepo repos.TopicRepo,
	subtopicRepo repos.SubtopicRepo,
	measureRepo repos.MeasureRepo,
	measureVersionRepo repos.MeasureVersionRepo,
) MeasureVersionService {
	return &measureVersionService{
		db:                 db,
		log:                baseLog.With("service", "MeasureVersionService"),
		auditSink:          auditSink,
		topicRepo:          topicRepo,
		subtopicRepo:       subtopicRepo,
		measureRepo:        measureRepo,
		measureVersionRepo: measureVersionRepo,
	}
}

const VersionLatest = "latest"

func (s *measureVersionService) GetMeasure(ctx context.Context, tx *gorm.DB, topicSlug, subtopicSlug, measureSlug string) (*types.Measure, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	topic, err := s.topicRepo.GetBySlug(ctx, transaction, topicSlug)
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}
	if topic == nil {
		return nil, fmt.Errorf("%w: topic %q", ErrPageNotFound, topicSlug)
	}

	subtopic, err := s.subtopicRepo.GetByTopicAndSlug(ctx, transaction, topic.ID, subtopicSlug)
	if err != nil {
		return nil, fmt.Errorf("get subtopic: %w", err)
	}
	if subtopic == nil {
		return nil, fmt.Errorf("%w: subtopic %q/%q", ErrPageNotFound, topicSlug, subtopicSlug)
	}

	m, err := s.measureRepo.GetBySubtopicAndSlug(ctx, transaction, subtopic.ID, measureSlug)
	if err != nil {
		return nil, fmt.Errorf("get measure: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: measure %q/%q/%q", ErrPageNotFound, topicSlug, subtopicSlug, measureSlug)
	}
	return m, nil
}

func (s *measureVersionService) GetMeasureVersion(ctx context.Context, tx *gorm.DB, topicSlug, subtopicSlug, measureSlug, version string) (*types.MeasureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	m, err := s.GetMeasure(ctx, transaction, topicSlug, subtopicSlug, measureSlug)
	if err != nil {
		return nil, err
	}

	var mv *types.MeasureVersion
	if version == VersionLatest {
		latest, err := s.measureVersionRepo.GetLatest(ctx, transaction, m.ID)
		if err != nil {
			return nil, fmt.Errorf("get latest version: %w", err)
		}
		if latest == nil {
			return nil, fmt.Errorf("%w: measure %q has no latest version", ErrPageNotFound, measureSlug)
		}
		// Reload with children; GetLatest is a bare row.
		mv, err = s.measureVersionRepo.GetByID(ctx, transaction, latest.ID)
		if err != nil {
			return nil, fmt.Errorf("load latest version: %w", err)
		}
	} else {
		mv, err = s.measureVersionRepo.GetByMeasureAndVersion(ctx, transaction, m.ID, version)
		if err != nil {
			return nil, fmt.Errorf("get version: %w", err)
		}
	}
	if mv == nil {
		return nil, fmt.Errorf("%w: version %q of measure %q", ErrPageNotFound, version, measureSlug)
	}
	return mv, nil
}

func (s *measureVersionService) ListVersions(ctx context.Context, tx *gorm.DB, measureID uuid.UUID) ([]*types.MeasureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return s.measureVersionRepo.GetByMeasure(ctx, transaction, measureID)
}

func (s *measureVersionService) UpdateMeasureVersion(ctx context.Context, tx *gorm.DB, measureVersionID uuid.UUID, update MeasureVersionUpdate, updatedBy string) (*types.MeasureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	mv, err := s.measureVersionRepo.GetByID(ctx, transaction, measureVersionID)
	if err != nil {
		return nil, fmt.Errorf("load measure version: %w", err)
	}
	if mv == nil {
		return nil, fmt.Errorf("%w: measure version %s", ErrPageNotFound, measureVersionID)
	}
	if !mv.Editable() {
		return nil, fmt.Errorf("%w: status %q", dommeasure.ErrPageNotEditable, mv.Status)
	}

	changed, conflicted := applyUpdate(mv, update)
	if update.DBVersion != 0 && update.DBVersion != mv.DBVersion && conflicted {
		// A counter mismatch only conflicts when this edit would overwrite
		// someone else's non-blank value; filling in blank fields and no-op
		// resubmissions sail through.
		return nil, fmt.Errorf("%w: loaded db_version %d, current %d", ErrStaleUpdate, update.DBVersion, mv.DBVersion)
	}
	if !changed {
		return mv, nil
	}

	mv.DBVersion++
	mv.LastUpdatedBy = updatedBy
	mv.LastUpdatedAt = time.Now().UTC()
	if err := s.measureVersionRepo.Save(ctx, transaction, mv); err != nil {
		return nil, fmt.Errorf("save measure version: %w", err)
	}

	s.auditSink.Publish(ctx, audit.Event{
		Kind:             audit.EventVersionUpdated,
		MeasureID:        mv.MeasureID,
		MeasureVersionID: mv.ID,
		Version:          mv.Version,
		Status:           string(mv.Status),
		Actor:            updatedBy,
	})
	return mv, nil
}

// applyUpdate copies set fields onto the version. changed reports whether
// anything differs from the stored row; conflicted reports whether a
// differing field overwrites a non-blank stored value.
func applyUpdate(mv *types.MeasureVersion, u MeasureVersionUpdate) (changed, conflicted bool) {
	setString := func(dst *string, src *string) {
		if src == nil || *dst == *src {
			return
		}
		if *dst != "" {
			conflicted = true
		}
		*dst = *src
		changed = true
	}
	setString(&mv.Title, u.Title)
	setString(&mv.Summary, u.Summary)
	setString(&mv.MeasureSummary, u.MeasureSummary)
	setString(&mv.NeedToKnow, u.NeedToKnow)
	setString(&mv.EthnicityDefinitions, u.EthnicityDefinitions)
	setString(&mv.Methodology, u.Methodology)
	setString(&mv.SuppressionAndDisclosure, u.SuppressionAndDisclosure)
	setString(&mv.EstimationProcess, u.EstimationProcess)
	setString(&mv.RelatedPublications, u.RelatedPublications)
	setString(&mv.QMIURL, u.QMIURL)
	setString(&mv.FurtherTechnicalInformation, u.FurtherTechnicalInformation)
	setString(&mv.TimeCoveredPhrase, u.TimeCoveredPhrase)
	setString(&mv.LowestLevelOfGeography, u.LowestLevelOfGeography)

	if u.AreaCovered != nil && string(mv.AreaCovered) != string(*u.AreaCovered) {
		if len(mv.AreaCovered) != 0 {
			conflicted = true
		}
		mv.AreaCovered = *u.AreaCovered
		changed = true
	}
	if u.InternalEditSummary != nil && (mv.InternalEditSummary == nil || *mv.InternalEditSummary != *u.InternalEditSummary) {
		if mv.InternalEditSummary != nil && *mv.InternalEditSummary != "" {
			conflicted = true
		}
		mv.InternalEditSummary = u.InternalEditSummary
		changed = true
	}
	if u.ExternalEditSummary != nil && (mv.ExternalEditSummary == nil || *mv.ExternalEditSummary != *u.ExternalEditSummary) {
		if mv.ExternalEditSummary != nil && *mv.ExternalEditSummary != "" {
			conflicted = true
		}
		mv.ExternalEditSummary = u.ExternalEditSummary
		changed = true
	}
	if u.UpdateCorrectsDataMistake != nil && mv.UpdateCorrectsDataMistake != *u.UpdateCorrectsDataMistake {
		// Only flipping the flag back off overwrites prior work; the zero
		// value counts as blank.
		if mv.UpdateCorrectsDataMistake {
			conflicted = true
		}
		mv.UpdateCorrectsDataMistake = *u.UpdateCorrectsDataMistake
		changed = true
	}
	return changed, conflicted
}

func (s *measureVersionService) SendToNextState(ctx context.Context, measureVersionID uuid.UUID, actor string) (*types.MeasureVersion, error) {
	var mv *types.MeasureVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		mv, err = s.measureVersionRepo.GetByID(ctx, tx, measureVersionID)
		if err != nil {
			return fmt.Errorf("load measure version: %w", err)
		}
		if mv == nil {
			return fmt.Errorf("%w: measure version %s", ErrPageNotFound, measureVersionID)
		}

		if err := mv.NextState(); err != nil {
			return err
		}

		if mv.Status == dommeasure.StatusApproved {
			// Publish bookkeeping: the approved version becomes the single
			// latest version; its first approval stamps published_at.
			mv.Published = true
			if mv.PublishedAt == nil {
				now := time.Now().UTC()
				mv.PublishedAt = &now
			}
			if err := s.measureVersionRepo.ClearLatest(ctx, tx, mv.MeasureID); err != nil {
				return fmt.Errorf("clear latest: %w", err)
			}
			mv.Latest = true
		}

		mv.LastUpdatedBy = actor
		mv.LastUpdatedAt = time.Now().UTC()
		if err := s.measureVersionRepo.Save(ctx, tx, mv); err != nil {
			return fmt.Errorf("save measure version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Measure version moved forward",
		"measure_version_id", mv.ID, "version", mv.Version, "status", mv.Status)
	s.publishStatusChange(ctx, mv, actor)
	return mv, nil
}

func (s *measureVersionService) RejectMeasureVersion(ctx context.Context, measureVersionID uuid.UUID, actor string) (*types.MeasureVersion, error) {
	mv, err := s.transition(ctx, measureVersionID, actor, func(mv *types.MeasureVersion) error {
		return mv.Reject()
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, mv, actor)
	return mv, nil
}

func (s *measureVersionService) SendMeasureVersionToDraft(ctx context.Context, measureVersionID uuid.UUID, actor string) (*types.MeasureVersion, error) {
	mv, err := s.transition(ctx, measureVersionID, actor, func(mv *types.MeasureVersion) error {
		mv.ReturnToDraft()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, mv, actor)
	return mv, nil
}

func (s *measureVersionService) UnpublishMeasureVersion(ctx context.Context, measureVersionID uuid.UUID, actor string) (*types.MeasureVersion, error) {
	mv, err := s.transition(ctx, measureVersionID, actor, func(mv *types.MeasureVersion) error {
		mv.Status = dommeasure.StatusUnpublished
		mv.Published = false
		now := time.Now().UTC()
		mv.UnpublishedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, mv, actor)
	return mv, nil
}

func (s *measureVersionService) transition(ctx context.Context, measureVersionID uuid.UUID, actor string, apply func(*types.MeasureVersion) error) (*types.MeasureVersion, error) {
	var mv *types.MeasureVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		mv, err = s.measureVersionRepo.GetByID(ctx, tx, measureVersionID)
		if err != nil {
			return fmt.Errorf("load measure version: %w", err)
		}
		if mv == nil {
			return fmt.Errorf("%w: measure version %s", ErrPageNotFound, measureVersionID)
		}
		if err := apply(mv); err != nil {
			return err
		}
		mv.LastUpdatedBy = actor
		mv.LastUpdatedAt = time.Now().UTC()
		return s.measureVersionRepo.Save(ctx, tx, mv)
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

func (s *measureVersionService) publishStatusChange(ctx context.Context, mv *types.MeasureVersion, actor string) {
	s.auditSink.Publish(ctx, audit.Event{
		Kind:             audit.EventStatusChanged,
		MeasureID:        mv.MeasureID,
		MeasureVersionID: mv.ID,
		Version:          mv.Version,
		Status:           string(mv.Status),
		Actor:            actor,
	})
}
