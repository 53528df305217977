package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
)

// SeedDerivedConcept inserts a concept at path and one edge per parent.
func SeedDerivedConcept(tb testing.TB, ctx context.Context, tx *gorm.DB, path string, updatedOn time.Time, parents ...string) *types.DerivedConcept {
	tb.Helper()
	dc := &types.DerivedConcept{
		Path:      path,
		Code:      "code",
		Query:     "SELECT 1",
		UpdatedOn: updatedOn.UTC(),
		CreatedAt: updatedOn.UTC(),
	}
	if err := tx.WithContext(ctx).Create(dc).Error; err != nil {
		tb.Fatalf("seed derived concept %s: %v", path, err)
	}
	for _, parent := range parents {
		SeedEdge(tb, ctx, tx, dc, parent)
	}
	dc.Dependencies = parents
	return dc
}

func SeedEdge(tb testing.TB, ctx context.Context, tx *gorm.DB, derived *types.DerivedConcept, parent string) *types.DependencyEdge {
	tb.Helper()
	e := &types.DependencyEdge{
		DerivedConceptID:   derived.ID,
		DerivedConceptPath: derived.Path,
		ParentConceptPath:  parent,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed edge %s -> %s: %v", parent, derived.Path, err)
	}
	return e
}

// SeedJobRecord inserts a record for concept. completedOn may be nil.
func SeedJobRecord(tb testing.TB, ctx context.Context, tx *gorm.DB, conceptID uint, status types.JobStatus, startedOn time.Time, completedOn *time.Time) *types.JobRecord {
	tb.Helper()
	rec := &types.JobRecord{
		DerivedConceptID: conceptID,
		BatchID:          uuid.New(),
		Status:           status,
		StartedOn:        startedOn.UTC(),
		CompletedOn:      completedOn,
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed job record: %v", err)
	}
	return rec
}

func PtrUint(v uint) *uint { return &v }

func PtrTime(v time.Time) *time.Time {
	v = v.UTC()
	return &v
}
