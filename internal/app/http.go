package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/derivedconcept-backend/internal/http"
	httpH "github.com/yungbote/derivedconcept-backend/internal/http/handlers"
	httpMW "github.com/yungbote/derivedconcept-backend/internal/http/middleware"
	"github.com/yungbote/derivedconcept-backend/internal/observability"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

func wireServer(db *gorm.DB, log *logger.Logger, cfg Config, services Services, metrics *observability.Metrics) *apphttp.Server {
	log.Info("Wiring handlers...")
	var auth *httpMW.AuthMiddleware
	if cfg.JWTSecretKey != "" {
		auth = httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey)
	} else {
		log.Warn("JWT_SECRET_KEY not set; /api is unauthenticated")
	}
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:                   log,
		ServiceName:           serviceName,
		CORSOrigins:           cfg.CORSOrigins,
		Metrics:               metrics,
		AuthMiddleware:        auth,
		DerivedConceptHandler: httpH.NewDerivedConceptHandler(services.DerivedConcept),
		CalculationHandler:    httpH.NewCalculationHandler(services.Calculation),
		JobRecordHandler:      httpH.NewJobRecordHandler(services.JobRecord),
		HealthHandler:         httpH.NewHealthHandler(db),
	})
}
