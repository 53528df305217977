package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/derivedconcept-backend/internal/http/handlers"
	httpMW "github.com/yungbote/derivedconcept-backend/internal/http/middleware"
	"github.com/yungbote/derivedconcept-backend/internal/observability"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	DerivedConceptHandler *httpH.DerivedConceptHandler
	CalculationHandler    *httpH.CalculationHandler
	JobRecordHandler      *httpH.JobRecordHandler
	HealthHandler         *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Derived concepts
		if cfg.DerivedConceptHandler != nil {
			api.GET("/derived-concepts", cfg.DerivedConceptHandler.List)
			api.POST("/derived-concepts", cfg.DerivedConceptHandler.Create)
			api.GET("/derived-concepts/:id", cfg.DerivedConceptHandler.Get)
			api.PUT("/derived-concepts/:id", cfg.DerivedConceptHandler.Update)
			api.DELETE("/derived-concepts/:id", cfg.DerivedConceptHandler.Delete)
		}

		// Scheduling
		if cfg.CalculationHandler != nil {
			api.POST("/derived-concepts/:id/calculate", cfg.CalculationHandler.CalculateConcept)
			api.POST("/calculations", cfg.CalculationHandler.Calculate)
			api.GET("/dependency-hierarchies", cfg.CalculationHandler.DependencyHierarchies)
		}

		// Job records
		if cfg.JobRecordHandler != nil {
			api.GET("/job-records", cfg.JobRecordHandler.List)
			api.GET("/job-records/:id", cfg.JobRecordHandler.Get)
			api.POST("/job-records/:id/complete", cfg.JobRecordHandler.Complete)
			api.POST("/job-records/:id/error", cfg.JobRecordHandler.Fail)
		}
	}

	return r
}
