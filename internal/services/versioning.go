package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/statspub/measures-backend/internal/data/repos"
	types "github.com/statspub/measures-backend/internal/domain"
	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
	"github.com/statspub/measures-backend/internal/platform/audit"
	"github.com/statspub/measures-backend/internal/platform/bucket"
	"github.com/statspub/measures-backend/internal/platform/logger"
)

// UpdateType selects how a new version relates to its source.
type UpdateType string

const (
	// UpdateMinor branches {major}.{minor+1}: a correction to existing data.
	UpdateMinor UpdateType = "minor"
	// UpdateMajor branches {major+1}.0: new data or methodology.
	UpdateMajor UpdateType = "major"
	// UpdateCopy clones the version onto a brand-new measure at 1.0.
	UpdateCopy UpdateType = "copy"
)

type VersioningService interface {
	// CreateMeasure creates a measure under a subtopic together with its
	// 1.0 draft version.
	CreateMeasure(ctx context.Context, subtopicID uuid.UUID, slug, title, createdBy string) (*types.MeasureVersion, error)
	// CreateMeasureVersion branches a new draft version off an existing
	// one. Dimensions with their charts, tables and classification links,
	// uploads, and data source associations are deep-copied; workflow and
	// publication state reset to a clean draft.
	CreateMeasureVersion(ctx context.Context, sourceVersionID uuid.UUID, updateType UpdateType, createdBy string) (*types.MeasureVersion, error)
	// DeleteMeasureVersion removes a version; removing the sole 1.0 version
	// removes the measure itself.
	DeleteMeasureVersion(ctx context.Context, measureVersionID uuid.UUID) error
}

type versioningService struct {
	db                 *gorm.DB
	log                *logger.Logger
	auditSink          audit.Sink
	uploadStore        bucket.UploadStore
	measureRepo        repos.MeasureRepo
	measureVersionRepo repos.MeasureVersionRepo
	dimensionRepo      repos.DimensionRepo
	chartRepo          repos.DimensionChartRepo
	tableRepo          repos.DimensionTableRepo
	linkRepo           repos.DimensionClassificationRepo
	uploadRepo         repos.UploadRepo
	dataSourceRepo     repos.DataSourceRepo
}

func NewVersioningService(
	db *gorm.DB,
	baseLog *logger.Logger,
	auditSink audit.Sink,
	uploadStore bucket.UploadStore,
	measureRepo repos.MeasureRepo,
	measureVersionRepo repos.MeasureVersionRepo,
	dimensionRepo repos.DimensionRepo,
	chartRepo repos.DimensionChartRepo,
	tableRepo repos.DimensionTableRepo,
	linkRepo repos.DimensionClassificationRepo,
	uploadRepo repos.UploadRepo,
	dataSourceRepo repos.DataSourceRepo,
) VersioningService {
	return &versioningService{
		db:                 db,
		log:                baseLog.With("service", "VersioningService"),
		auditSink:          auditSink,
		uploadStore:        uploadStore,
		measureRepo:        measureRepo,
		measureVersionRepo: measureVersionRepo,
		dimensionRepo:      dimensionRepo,
		chartRepo:          chartRepo,
		tableRepo:          tableRepo,
		linkRepo:           linkRepo,
		uploadRepo:         uploadRepo,
		dataSourceRepo:     dataSourceRepo,
	}
}

func (s *versioningService) CreateMeasure(ctx context.Context, subtopicID uuid.UUID, slug, title, createdBy string) (*types.MeasureVersion, error) {
	var mv *types.MeasureVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.measureRepo.SlugExistsInSubtopic(ctx, tx, subtopicID, slug)
		if err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: slug %q already exists in subtopic", ErrUpdateAlreadyExists, slug)
		}

		m := &types.Measure{ID: uuid.New(), Slug: slug}
		if err := s.measureRepo.Create(ctx, tx, m); err != nil {
			return fmt.Errorf("create measure: %w", err)
		}
		if err := s.measureRepo.AddToSubtopic(ctx, tx, m.ID, subtopicID); err != nil {
			return fmt.Errorf("place measure under subtopic: %w", err)
		}

		now := time.Now().UTC()
		mv = &types.MeasureVersion{
			ID:            uuid.New(),
			MeasureID:     m.ID,
			Version:       dommeasure.FirstVersion,
			Status:        dommeasure.StatusDraft,
			Latest:        true,
			Title:         title,
			DBVersion:     1,
			CreatedAt:     now,
			CreatedBy:     createdBy,
			LastUpdatedAt: now,
			LastUpdatedBy: createdBy,
		}
		if err := s.measureVersionRepo.Create(ctx, tx, mv); err != nil {
			return fmt.Errorf("create first version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Measure created", "measure_id", mv.MeasureID, "slug", slug)
	s.auditSink.Publish(ctx, audit.Event{
		Kind:             audit.EventVersionCreated,
		MeasureID:        mv.MeasureID,
		MeasureVersionID: mv.ID,
		Version:          mv.Version,
		Status:           string(mv.Status),
		Actor:            createdBy,
	})
	return mv, nil
}

func (s *versioningService) CreateMeasureVersion(ctx context.Context, sourceVersionID uuid.UUID, updateType UpdateType, createdBy string) (*types.MeasureVersion, error) {
	source, err := s.measureVersionRepo.GetByID(ctx, nil, sourceVersionID)
	if err != nil {
		return nil, fmt.Errorf("load source version: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: measure version %s", ErrPageNotFound, sourceVersionID)
	}

	var mv *types.MeasureVersion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch updateType {
		case UpdateMinor, UpdateMajor:
			mv, err = s.branchVersion(ctx, tx, source, updateType, createdBy)
		case UpdateCopy:
			mv, err = s.copyToNewMeasure(ctx, tx, source, createdBy)
		default:
			return fmt.Errorf("unknown update type %q", updateType)
		}
		if err != nil {
			return err
		}

		// Invariant probe: after the commit exactly one version per measure
		// may carry latest. More than one means a prior transaction tore.
		count, err := s.measureVersionRepo.CountLatest(ctx, tx, mv.MeasureID)
		if err != nil {
			return fmt.Errorf("probe latest count: %w", err)
		}
		if count != 1 {
			return fmt.Errorf("measure %s has %d latest versions", mv.MeasureID, count)
		}

		// Object copies happen before commit so a version never lands
		// without its source files; a failed copy aborts the version and
		// already-copied objects are removed again best-effort.
		if err := s.copyUploadFiles(ctx, source, mv); err != nil {
			s.discardUploadFiles(ctx, source, mv)
			return fmt.Errorf("copy upload files: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Measure version created",
		"measure_id", mv.MeasureID, "version", mv.Version, "update_type", updateType)
	s.auditSink.Publish(ctx, audit.Event{
		Kind:             audit.EventVersionCreated,
		MeasureID:        mv.MeasureID,
		MeasureVersionID: mv.ID,
		Version:          mv.Version,
		Status:           string(mv.Status),
		Actor:            createdBy,
	})
	return mv, nil
}

func (s *versioningService) branchVersion(ctx context.Context, tx *gorm.DB, source *types.MeasureVersion, updateType UpdateType, createdBy string) (*types.MeasureVersion, error) {
	var target string
	var err error
	if updateType == UpdateMinor {
		target, err = dommeasure.NextMinorVersion(source.Version)
	} else {
		target, err = dommeasure.NextMajorVersion(source.Version)
	}
	if err != nil {
		return nil, err
	}

	exists, err := s.measureVersionRepo.ExistsVersion(ctx, tx, source.MeasureID, target)
	if err != nil {
		return nil, fmt.Errorf("check target version: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: version %s", ErrUpdateAlreadyExists, target)
	}

	mv := cloneVersion(source, source.MeasureID, target, source.Title, createdBy)
	if err := s.measureVersionRepo.ClearLatest(ctx, tx, source.MeasureID); err != nil {
		return nil, fmt.Errorf("clear latest: %w", err)
	}
	if err := s.measureVersionRepo.Create(ctx, tx, mv); err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}
	if err := s.copyChildren(ctx, tx, source, mv); err != nil {
		return nil, err
	}
	return mv, nil
}

func (s *versioningService) copyToNewMeasure(ctx context.Context, tx *gorm.DB, source *types.MeasureVersion, createdBy string) (*types.MeasureVersion, error) {
	sourceMeasure, err := s.measureRepo.GetByID(ctx, tx, source.MeasureID)
	if err != nil {
		return nil, fmt.Errorf("load source measure: %w", err)
	}
	if sourceMeasure == nil {
		return nil, fmt.Errorf("%w: measure %s", ErrPageNotFound, source.MeasureID)
	}
	subtopicIDs, err := s.measureRepo.SubtopicIDs(ctx, tx, source.MeasureID)
	if err != nil {
		return nil, fmt.Errorf("load subtopics: %w", err)
	}
	if len(subtopicIDs) == 0 {
		return nil, fmt.Errorf("measure %s belongs to no subtopic", source.MeasureID)
	}

	slug, err := s.availableCopySlug(ctx, tx, subtopicIDs[0], sourceMeasure.Slug)
	if err != nil {
		return nil, err
	}

	m := &types.Measure{ID: uuid.New(), Slug: slug}
	if err := s.measureRepo.Create(ctx, tx, m); err != nil {
		return nil, fmt.Errorf("create copied measure: %w", err)
	}
	for _, subtopicID := range subtopicIDs {
		if err := s.measureRepo.AddToSubtopic(ctx, tx, m.ID, subtopicID); err != nil {
			return nil, fmt.Errorf("place copied measure: %w", err)
		}
	}

	mv := cloneVersion(source, m.ID, dommeasure.FirstVersion, "COPY OF "+source.Title, createdBy)
	if err := s.measureVersionRepo.Create(ctx, tx, mv); err != nil {
		return nil, fmt.Errorf("create copied version: %w", err)
	}
	if err := s.copyChildren(ctx, tx, source, mv); err != nil {
		return nil, err
	}
	return mv, nil
}

// availableCopySlug appends "-copy" until the slug is free in the subtopic.
func (s *versioningService) availableCopySlug(ctx context.Context, tx *gorm.DB, subtopicID uuid.UUID, slug string) (string, error) {
	candidate := slug
	for {
		candidate = candidate + "-copy"
		taken, err := s.measureRepo.SlugExistsInSubtopic(ctx, tx, subtopicID, candidate)
		if err != nil {
			return "", fmt.Errorf("check copy slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

// cloneVersion copies the content fields of a version and resets workflow
// and publication state to a fresh draft.
func cloneVersion(source *types.MeasureVersion, measureID uuid.UUID, version, title, createdBy string) *types.MeasureVersion {
	now := time.Now().UTC()
	return &types.MeasureVersion{
		ID:        uuid.New(),
		MeasureID: measureID,
		Version:   version,
		Status:    dommeasure.StatusDraft,
		Latest:    true,

		Title:                       title,
		Summary:                     source.Summary,
		MeasureSummary:              source.MeasureSummary,
		NeedToKnow:                  source.NeedToKnow,
		EthnicityDefinitions:        source.EthnicityDefinitions,
		Methodology:                 source.Methodology,
		SuppressionAndDisclosure:    source.SuppressionAndDisclosure,
		EstimationProcess:           source.EstimationProcess,
		RelatedPublications:         source.RelatedPublications,
		QMIURL:                      source.QMIURL,
		FurtherTechnicalInformation: source.FurtherTechnicalInformation,
		TimeCoveredPhrase:           source.TimeCoveredPhrase,
		LowestLevelOfGeography:      source.LowestLevelOfGeography,
		AreaCovered:                 source.AreaCovered,

		DBVersion:     1,
		CreatedAt:     now,
		CreatedBy:     createdBy,
		LastUpdatedAt: now,
		LastUpdatedBy: createdBy,
	}
}

func (s *versioningService) copyChildren(ctx context.Context, tx *gorm.DB, source, target *types.MeasureVersion) error {
	for i := range source.Dimensions {
		if err := s.copyDimension(ctx, tx, &source.Dimensions[i], target.ID); err != nil {
			return err
		}
	}
	for i := range source.Uploads {
		src := &source.Uploads[i]
		dup := &types.Upload{
			ID:               uuid.New(),
			MeasureVersionID: target.ID,
			GUID:             uuid.NewString() + "_" + sanitizeGUIDPart(src.FileName),
			Title:            src.Title,
			FileName:         src.FileName,
			Description:      src.Description,
			Size:             src.Size,
		}
		if err := s.uploadRepo.Create(ctx, tx, dup); err != nil {
			return fmt.Errorf("copy upload %q: %w", src.FileName, err)
		}
	}

	dataSourceIDs := make([]uuid.UUID, 0, len(source.DataSources))
	for _, assoc := range source.DataSources {
		dataSourceIDs = append(dataSourceIDs, assoc.DataSourceID)
	}
	if err := s.dataSourceRepo.Associate(ctx, tx, target.ID, dataSourceIDs); err != nil {
		return fmt.Errorf("copy data source associations: %w", err)
	}
	return nil
}

func (s *versioningService) copyDimension(ctx context.Context, tx *gorm.DB, src *types.Dimension, targetVersionID uuid.UUID) error {
	dup := &types.Dimension{
		ID:               uuid.New(),
		MeasureVersionID: targetVersionID,
		GUID:             uuid.NewString(),
		Title:            src.Title,
		TimePeriod:       src.TimePeriod,
		Summary:          src.Summary,
		Position:         src.Position,
	}
	if err := s.dimensionRepo.Create(ctx, tx, dup); err != nil {
		return fmt.Errorf("copy dimension %q: %w", src.Title, err)
	}

	if src.Chart != nil {
		chart := &types.DimensionChart{
			ID:               uuid.New(),
			DimensionID:      dup.ID,
			ChartObject:      src.Chart.ChartObject,
			Settings:         src.Chart.Settings,
			ClassificationID: src.Chart.ClassificationID,
			IncludesParents:  src.Chart.IncludesParents,
			IncludesAll:      src.Chart.IncludesAll,
			IncludesUnknown:  src.Chart.IncludesUnknown,
		}
		if err := s.chartRepo.Create(ctx, tx, chart); err != nil {
			return fmt.Errorf("copy chart: %w", err)
		}
	}
	if src.Table != nil {
		table := &types.DimensionTable{
			ID:               uuid.New(),
			DimensionID:      dup.ID,
			TableObject:      src.Table.TableObject,
			Settings:         src.Table.Settings,
			ClassificationID: src.Table.ClassificationID,
			IncludesParents:  src.Table.IncludesParents,
			IncludesAll:      src.Table.IncludesAll,
			IncludesUnknown:  src.Table.IncludesUnknown,
		}
		if err := s.tableRepo.Create(ctx, tx, table); err != nil {
			return fmt.Errorf("copy table: %w", err)
		}
	}
	if src.DimensionClassification != nil {
		link := &types.DimensionClassification{
			ID:               uuid.New(),
			DimensionID:      dup.ID,
			ClassificationID: src.DimensionClassification.ClassificationID,
			IncludesParents:  src.DimensionClassification.IncludesParents,
			IncludesAll:      src.DimensionClassification.IncludesAll,
			IncludesUnknown:  src.DimensionClassification.IncludesUnknown,
		}
		if err := s.linkRepo.Replace(ctx, tx, link); err != nil {
			return fmt.Errorf("copy dimension classification: %w", err)
		}
	}
	return nil
}

// copyUploadFiles duplicates the source version's objects under the new
// version's key prefix, fanning out per file.
func (s *versioningService) copyUploadFiles(ctx context.Context, source, target *types.MeasureVersion) error {
	if s.uploadStore == nil || len(source.Uploads) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range source.Uploads {
		src := &source.Uploads[i]
		dst := &types.Upload{MeasureVersionID: target.ID, FileName: src.FileName}
		g.Go(func() error {
			return s.uploadStore.CopyObject(gctx, src.StorageKey(), dst.StorageKey())
		})
	}
	return g.Wait()
}

// discardUploadFiles removes the target version's object copies after a
// failed copy set, so a rolled-back version leaves nothing in storage.
func (s *versioningService) discardUploadFiles(ctx context.Context, source, target *types.MeasureVersion) {
	if s.uploadStore == nil {
		return
	}
	for i := range source.Uploads {
		dst := &types.Upload{MeasureVersionID: target.ID, FileName: source.Uploads[i].FileName}
		if err := s.uploadStore.DeleteObject(ctx, dst.StorageKey()); err != nil {
			s.log.Warn("discard copied object failed", "key", dst.StorageKey(), "error", err)
		}
	}
}

func sanitizeGUIDPart(fileName string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '-'
	}, fileName)
}

func (s *versioningService) DeleteMeasureVersion(ctx context.Context, measureVersionID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mv, err := s.measureVersionRepo.GetByID(ctx, tx, measureVersionID)
		if err != nil {
			return fmt.Errorf("load measure version: %w", err)
		}
		if mv == nil {
			return fmt.Errorf("%w: measure version %s", ErrPageNotFound, measureVersionID)
		}

		for i := range mv.Dimensions {
			if err := s.dimensionRepo.Delete(ctx, tx, mv.Dimensions[i].ID); err != nil {
				return fmt.Errorf("delete dimension: %w", err)
			}
		}
		for i := range mv.Uploads {
			if err := s.uploadRepo.Delete(ctx, tx, mv.Uploads[i].ID); err != nil {
				return fmt.Errorf("delete upload: %w", err)
			}
		}
		if err := s.dataSourceRepo.DeleteAssociations(ctx, tx, mv.ID); err != nil {
			return fmt.Errorf("delete data source associations: %w", err)
		}
		if err := s.measureVersionRepo.Delete(ctx, tx, mv.ID); err != nil {
			return fmt.Errorf("delete measure version: %w", err)
		}

		remaining, err := s.measureRepo.CountVersions(ctx, tx, mv.MeasureID)
		if err != nil {
			return fmt.Errorf("count remaining versions: %w", err)
		}
		if remaining == 0 {
			// The sole version is gone; the measure identity goes with it.
			if err := s.measureRepo.Delete(ctx, tx, mv.MeasureID); err != nil {
				return fmt.Errorf("delete measure: %w", err)
			}
			return nil
		}

		// Hand latest back to the highest remaining version if the deleted
		// one carried it.
		if mv.Latest {
			versions, err := s.measureVersionRepo.GetByMeasure(ctx, tx, mv.MeasureID)
			if err != nil {
				return fmt.Errorf("load remaining versions: %w", err)
			}
			highest := versions[0]
			for _, v := range versions[1:] {
				cmp, err := dommeasure.CompareVersions(v.Version, highest.Version)
				if err != nil {
					return err
				}
				if cmp > 0 {
					highest = v
				}
			}
			highest.Latest = true
			if err := s.measureVersionRepo.Save(ctx, tx, highest); err != nil {
				return fmt.Errorf("reassign latest: %w", err)
			}
		}
		return nil
	})
}
