// Package domain re-exports the persisted model types so callers can import
// a single package (conventionally aliased as types).
package domain

import (
	"github.com/yungbote/derivedconcept-backend/internal/domain/concepts"
	"github.com/yungbote/derivedconcept-backend/internal/domain/jobs"
)

type ConceptPath = concepts.Path
type DerivedConcept = concepts.DerivedConcept
type DependencyEdge = concepts.DependencyEdge
type EdgeKey = concepts.EdgeKey

var ParseConceptPath = concepts.ParsePath

type JobRecord = jobs.JobRecord
type JobStatus = jobs.JobStatus

const (
	JobStatusPending   = jobs.JobStatusPending
	JobStatusCompleted = jobs.JobStatusCompleted
	JobStatusError     = jobs.JobStatusError
)
