package concepts

import "time"

// DerivedConcept is a concept whose facts are produced by running Query
// against the facts of the concepts it depends on.
type DerivedConcept struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Path        string    `gorm:"column:path;not null;uniqueIndex" json:"path"`
	Code        string    `gorm:"column:code;index" json:"code"`
	Query       string    `gorm:"column:query;type:text;not null" json:"query"`
	Unit        string    `gorm:"column:unit" json:"unit,omitempty"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	UpdatedOn   time.Time `gorm:"column:updated_on;not null;index" json:"updated_on"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`

	// Dependencies is materialized from the concept's outgoing edges.
	Dependencies []string `gorm:"-" json:"dependencies"`
}

func (DerivedConcept) TableName() string { return "derived_concept" }
