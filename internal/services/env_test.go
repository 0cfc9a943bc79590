package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/statspub/measures-backend/internal/data/repos"
	"github.com/statspub/measures-backend/internal/data/repos/testutil"
	"github.com/statspub/measures-backend/internal/platform/audit"
	"github.com/statspub/measures-backend/internal/platform/bucket"
	"github.com/statspub/measures-backend/internal/platform/logger"
)

// serviceEnv wires every service over a single rolled-back transaction so
// tests never leak rows. Services opening their own transactions nest as
// savepoints.
type serviceEnv struct {
	tx    *gorm.DB
	log   *logger.Logger
	store *bucket.MemoryStore

	registry        ClassificationRegistryService
	dimensions      DimensionService
	measureVersions MeasureVersionService
	versioning      VersioningService
	users           UserService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	store := bucket.NewMemoryStore()

	userRepo := repos.NewUserRepo(tx, log)
	ethnicityRepo := repos.NewEthnicityRepo(tx, log)
	classificationRepo := repos.NewClassificationRepo(tx, log)
	topicRepo := repos.NewTopicRepo(tx, log)
	subtopicRepo := repos.NewSubtopicRepo(tx, log)
	measureRepo := repos.NewMeasureRepo(tx, log)
	measureVersionRepo := repos.NewMeasureVersionRepo(tx, log)
	dimensionRepo := repos.NewDimensionRepo(tx, log)
	chartRepo := repos.NewDimensionChartRepo(tx, log)
	tableRepo := repos.NewDimensionTableRepo(tx, log)
	linkRepo := repos.NewDimensionClassificationRepo(tx, log)
	uploadRepo := repos.NewUploadRepo(tx, log)
	dataSourceRepo := repos.NewDataSourceRepo(tx, log)

	return &serviceEnv{
		tx:    tx,
		log:   log,
		store: store,
		registry: NewClassificationRegistryService(
			tx, log, classificationRepo, ethnicityRepo),
		dimensions: NewDimensionService(
			tx, log, dimensionRepo, chartRepo, tableRepo, linkRepo,
			measureVersionRepo, classificationRepo),
		measureVersions: NewMeasureVersionService(
			tx, log, audit.NopSink{}, topicRepo, subtopicRepo,
			measureRepo, measureVersionRepo),
		versioning: NewVersioningService(
			tx, log, audit.NopSink{}, store, measureRepo, measureVersionRepo,
			dimensionRepo, chartRepo, tableRepo, linkRepo,
			uploadRepo, dataSourceRepo),
		users: NewUserService(tx, log, userRepo),
	}
}
