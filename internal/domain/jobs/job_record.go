package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusError     JobStatus = "ERROR"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusCompleted, JobStatusError:
		return true
	default:
		return false
	}
}

// JobRecord is one requested (re)calculation of a derived concept.
// The scheduler only ever inserts PENDING or ERROR rows; the execution
// engine moves PENDING rows to COMPLETED or ERROR.
type JobRecord struct {
	ID               uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	DerivedConceptID uint           `gorm:"column:derived_concept_id;not null;index" json:"derived_concept_id"`
	BatchID          uuid.UUID      `gorm:"type:uuid;column:batch_id;not null;index" json:"batch_id"`
	Status           JobStatus      `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	ErrorStack       string         `gorm:"column:error_stack;type:text" json:"error_stack,omitempty"`
	StartedOn        time.Time      `gorm:"column:started_on;not null;index" json:"started_on"`
	CompletedOn      *time.Time     `gorm:"column:completed_on;index" json:"completed_on,omitempty"`
	Detail           datatypes.JSON `gorm:"column:detail" json:"detail,omitempty"`
}

func (JobRecord) TableName() string { return "derived_concept_job" }
