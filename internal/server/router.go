package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/statspub/measures-backend/internal/handlers"
	"github.com/statspub/measures-backend/internal/platform/envutil"
)

type RouterConfig struct {
	ServiceName           string
	UserHandler           *handlers.UserHandler
	MeasureHandler        *handlers.MeasureHandler
	DimensionHandler      *handlers.DimensionHandler
	ClassificationHandler *handlers.ClassificationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			envutil.Str("CMS_ORIGIN", "http://localhost:3000"),
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware(cfg.ServiceName))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/register", cfg.UserHandler.Register)
		api.POST("/login", cfg.UserHandler.Login)

		// Public page resolution by slugs.
		api.GET("/measure/:topic/:subtopic/:measure", cfg.MeasureHandler.GetMeasure)
		api.GET("/measure/:topic/:subtopic/:measure/:version", cfg.MeasureHandler.GetMeasureVersion)

		// Measure lifecycle.
		api.POST("/measure", cfg.MeasureHandler.CreateMeasure)
		api.PATCH("/measure-version/:id", cfg.MeasureHandler.UpdateMeasureVersion)
		api.POST("/measure-version/:id/versions", cfg.MeasureHandler.CreateMeasureVersion)
		api.DELETE("/measure-version/:id", cfg.MeasureHandler.DeleteMeasureVersion)

		// Workflow transitions.
		api.POST("/measure-version/:id/approve", cfg.MeasureHandler.Approve)
		api.POST("/measure-version/:id/reject", cfg.MeasureHandler.Reject)
		api.POST("/measure-version/:id/return-to-draft", cfg.MeasureHandler.ReturnToDraft)
		api.POST("/measure-version/:id/unpublish", cfg.MeasureHandler.Unpublish)

		// Dimensions and their chart/table sub-objects.
		api.POST("/dimension", cfg.DimensionHandler.CreateDimension)
		api.GET("/dimension/:id", cfg.DimensionHandler.GetDimension)
		api.PATCH("/dimension/:id", cfg.DimensionHandler.UpdateDimension)
		api.DELETE("/dimension/:id", cfg.DimensionHandler.DeleteDimension)
		api.PUT("/dimension/:id/chart", cfg.DimensionHandler.SetChart)
		api.DELETE("/dimension/:id/chart", cfg.DimensionHandler.DeleteChart)
		api.PUT("/dimension/:id/table", cfg.DimensionHandler.SetTable)
		api.DELETE("/dimension/:id/table", cfg.DimensionHandler.DeleteTable)
		api.PUT("/dimension/:id/classification", cfg.DimensionHandler.LinkClassification)
		api.POST("/dimension/:id/classification/reconcile", cfg.DimensionHandler.Reconcile)

		// Classification registry. Lookup by code goes through the list
		// endpoint's ?code= filter to keep the :id segment unambiguous.
		api.GET("/classifications", cfg.ClassificationHandler.List)
		api.POST("/classifications", cfg.ClassificationHandler.Create)
		api.GET("/classifications/:id", cfg.ClassificationHandler.GetByID)
		api.POST("/classifications/:id/values", cfg.ClassificationHandler.AddValues)
		api.DELETE("/classifications/:id", cfg.ClassificationHandler.Delete)
		api.POST("/classify", cfg.ClassificationHandler.Infer)
		api.POST("/ethnicities/cleanup", cfg.ClassificationHandler.CleanupOrphans)
	}

	return router
}
