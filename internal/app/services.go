package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
	"github.com/yungbote/derivedconcept-backend/internal/services"
)

type Services struct {
	Notifier       services.JobNotifier
	DerivedConcept services.DerivedConceptService
	Calculation    services.CalculationService
	JobRecord      services.JobRecordService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	notifier := services.NewJobNotifier(clients.EventBus, log)

	// The SQL store stays authoritative; neo4j only mirrors it unless it is
	// selected as the scheduling edge source.
	var graphSource services.DependencyGraph = repos.Dependency
	var mirror services.DependencyMirror
	if clients.Graph != nil {
		mirror = clients.Graph
		if cfg.GraphBackend == GraphBackendNeo4j {
			graphSource = clients.Graph
		}
	}
	log.Info("Dependency graph backend", "backend", cfg.GraphBackend, "mirror", mirror != nil, "workers", cfg.HierarchyWorkers)

	return Services{
		Notifier:       notifier,
		DerivedConcept: services.NewDerivedConceptService(db, log, repos.DerivedConcept, repos.Dependency, mirror),
		Calculation:    services.NewCalculationService(log, repos.DerivedConcept, graphSource, repos.JobRecord, notifier, cfg.HierarchyWorkers),
		JobRecord:      services.NewJobRecordService(log, repos.JobRecord, notifier),
	}
}
