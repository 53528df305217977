package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

type Repos struct {
	DerivedConcept repos.DerivedConceptRepo
	Dependency     repos.DependencyRepo
	JobRecord      repos.JobRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		DerivedConcept: repos.NewDerivedConceptRepo(db, log),
		Dependency:     repos.NewDependencyRepo(db, log),
		JobRecord:      repos.NewJobRecordRepo(db, log),
	}
}
