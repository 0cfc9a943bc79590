package main

import (
	"context"
	"fmt"
	"os"

	"github.com/statspub/measures-backend/internal/data/db"
	"github.com/statspub/measures-backend/internal/data/repos"
	"github.com/statspub/measures-backend/internal/handlers"
	"github.com/statspub/measures-backend/internal/platform/audit"
	"github.com/statspub/measures-backend/internal/platform/bucket"
	"github.com/statspub/measures-backend/internal/platform/envutil"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"github.com/statspub/measures-backend/internal/platform/tracing"
	"github.com/statspub/measures-backend/internal/server"
	"github.com/statspub/measures-backend/internal/services"
)

const serviceName = "measures-backend"

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownTracing, err := tracing.Setup(ctx, serviceName)
	if err != nil {
		log.Warn("Tracing init failed", "error", err)
	} else {
		defer shutdownTracing(ctx)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	ethnicityRepo := repos.NewEthnicityRepo(thePG, log)
	classificationRepo := repos.NewClassificationRepo(thePG, log)
	topicRepo := repos.NewTopicRepo(thePG, log)
	subtopicRepo := repos.NewSubtopicRepo(thePG, log)
	measureRepo := repos.NewMeasureRepo(thePG, log)
	measureVersionRepo := repos.NewMeasureVersionRepo(thePG, log)
	dimensionRepo := repos.NewDimensionRepo(thePG, log)
	chartRepo := repos.NewDimensionChartRepo(thePG, log)
	tableRepo := repos.NewDimensionTableRepo(thePG, log)
	linkRepo := repos.NewDimensionClassificationRepo(thePG, log)
	uploadRepo := repos.NewUploadRepo(thePG, log)
	dataSourceRepo := repos.NewDataSourceRepo(thePG, log)

	// Platform collaborators. Object storage and the audit sink degrade to
	// in-process fallbacks so a local run needs nothing but postgres.
	var uploadStore bucket.UploadStore
	uploadStore, err = bucket.NewGCSStore(log)
	if err != nil {
		log.Warn("GCS init failed, using in-memory upload store", "error", err)
		uploadStore = bucket.NewMemoryStore()
	}
	var auditSink audit.Sink
	auditSink, err = audit.NewRedisSink(log)
	if err != nil {
		log.Warn("Redis audit sink init failed, events will be dropped", "error", err)
		auditSink = audit.NopSink{}
	}

	// Services
	log.Info("Setting up Services from main...")
	registryService := services.NewClassificationRegistryService(thePG, log, classificationRepo, ethnicityRepo)
	dimensionService := services.NewDimensionService(thePG, log, dimensionRepo, chartRepo, tableRepo, linkRepo, measureVersionRepo, classificationRepo)
	measureVersionService := services.NewMeasureVersionService(thePG, log, auditSink, topicRepo, subtopicRepo, measureRepo, measureVersionRepo)
	versioningService := services.NewVersioningService(thePG, log, auditSink, uploadStore, measureRepo, measureVersionRepo, dimensionRepo, chartRepo, tableRepo, linkRepo, uploadRepo, dataSourceRepo)
	userService := services.NewUserService(thePG, log, userRepo)

	// Classification library seed
	seedPath := envutil.Str("CLASSIFICATION_SEED_PATH", "config/classifications.yaml")
	if err := registryService.SyncFromFile(ctx, seedPath); err != nil {
		log.Warn("Classification library sync failed", "error", err, "path", seedPath)
	}

	standardiser, err := services.LoadStandardiser(seedPath)
	if err != nil {
		log.Warn("Standardiser load failed, labels pass through unchanged", "error", err)
		standardiser = services.NewStandardiser(nil)
	}

	// Handlers
	userHandler := handlers.NewUserHandler(userService)
	measureHandler := handlers.NewMeasureHandler(measureVersionService, versioningService)
	dimensionHandler := handlers.NewDimensionHandler(dimensionService)
	classificationHandler := handlers.NewClassificationHandler(registryService, standardiser)

	router := server.NewRouter(server.RouterConfig{
		ServiceName:           serviceName,
		UserHandler:           userHandler,
		MeasureHandler:        measureHandler,
		DimensionHandler:      dimensionHandler,
		ClassificationHandler: classificationHandler,
	})

	port := envutil.Str("PORT", "8080")
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
