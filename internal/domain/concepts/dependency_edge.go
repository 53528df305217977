package concepts

// DependencyEdge states that DerivedConceptPath requires ParentConceptPath
// to be computed first. The parent may be a source concept or another
// derived concept.
type DependencyEdge struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DerivedConceptID   uint   `gorm:"column:derived_concept_id;not null;index" json:"derived_concept_id"`
	ParentConceptPath  string `gorm:"column:parent_concept_path;not null;index" json:"parent_concept_path"`
	DerivedConceptPath string `gorm:"column:derived_concept_path;not null;index" json:"derived_concept_path"`
}

func (DependencyEdge) TableName() string { return "derived_concept_dependency" }

// EdgeKey identifies an edge by its endpoints. Row ids are ignored so that
// probe edges and freshly loaded rows compare equal.
type EdgeKey struct {
	Derived string
	Parent  string
}

func (e *DependencyEdge) Key() EdgeKey {
	return EdgeKey{Derived: e.DerivedConceptPath, Parent: e.ParentConceptPath}
}

// Complete reports whether both endpoints are set.
func (e *DependencyEdge) Complete() bool {
	return e != nil && e.DerivedConceptPath != "" && e.ParentConceptPath != ""
}
