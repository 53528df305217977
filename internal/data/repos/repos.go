package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos/concepts"
	"github.com/yungbote/derivedconcept-backend/internal/data/repos/jobs"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

type DerivedConceptRepo = concepts.DerivedConceptRepo
type DependencyRepo = concepts.DependencyRepo

type JobRecordRepo = jobs.JobRecordRepo
type JobRecordFilter = jobs.JobRecordFilter

func NewDerivedConceptRepo(db *gorm.DB, baseLog *logger.Logger) DerivedConceptRepo {
	return concepts.NewDerivedConceptRepo(db, baseLog)
}
func NewDependencyRepo(db *gorm.DB, baseLog *logger.Logger) DependencyRepo {
	return concepts.NewDependencyRepo(db, baseLog)
}

func NewJobRecordRepo(db *gorm.DB, baseLog *logger.Logger) JobRecordRepo {
	return jobs.NewJobRecordRepo(db, baseLog)
}
