package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Concept definitions + dependency graph
		&types.DerivedConcept{},
		&types.DependencyEdge{},

		// Calculation scheduling
		&types.JobRecord{},
	)
}
