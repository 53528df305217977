package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos/testutil"
	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
)

func TestJobRecordRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewJobRecordRepo(db, testutil.Logger(t))

	now := time.Now().UTC().Truncate(time.Second)
	batch := uuid.New()
	created, err := repo.CreateBatch(dbc, []*types.JobRecord{
		{DerivedConceptID: 1, BatchID: batch, Status: types.JobStatusPending, StartedOn: now},
		{DerivedConceptID: 2, BatchID: batch, Status: types.JobStatusError, StartedOn: now, ErrorStack: "boom"},
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if len(created) != 2 || created[0].ID == 0 || created[1].ID == 0 {
		t.Fatalf("CreateBatch: expected ids to be assigned, got %+v", created)
	}

	rows, err := repo.List(dbc, JobRecordFilter{BatchID: &batch})
	if err != nil || len(rows) != 2 {
		t.Fatalf("List by batch: err=%v len=%d", err, len(rows))
	}
	rows, err = repo.List(dbc, JobRecordFilter{Status: types.JobStatusError})
	if err != nil || len(rows) != 1 || rows[0].ErrorStack != "boom" {
		t.Fatalf("List by status: err=%v rows=%v", err, rows)
	}

	done, err := repo.TransitionFromPending(dbc, created[0].ID, types.JobStatusCompleted, now, "")
	if err != nil {
		t.Fatalf("TransitionFromPending: %v", err)
	}
	if done.Status != types.JobStatusCompleted || done.CompletedOn == nil || !done.CompletedOn.Equal(now) {
		t.Fatalf("TransitionFromPending: got %+v", done)
	}
	if _, err := repo.TransitionFromPending(dbc, created[0].ID, types.JobStatusError, now, "late"); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("TransitionFromPending twice: want ErrConflict got %v", err)
	}
	if _, err := repo.TransitionFromPending(dbc, 9999, types.JobStatusCompleted, now, ""); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("TransitionFromPending missing: want ErrNotFound got %v", err)
	}
	if _, err := repo.TransitionFromPending(dbc, created[1].ID, types.JobStatusPending, now, ""); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("TransitionFromPending to pending: want ErrInvalidArgument got %v", err)
	}
}

func TestJobRecordRepoGetLatest(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewJobRecordRepo(db, testutil.Logger(t))

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	testutil.SeedJobRecord(t, ctx, db, 1, types.JobStatusCompleted, base, testutil.PtrTime(base.Add(time.Minute)))
	latest := testutil.SeedJobRecord(t, ctx, db, 1, types.JobStatusCompleted, base, testutil.PtrTime(base.Add(2*time.Minute)))
	// A later failure does not replace the last successful run.
	testutil.SeedJobRecord(t, ctx, db, 1, types.JobStatusError, base, testutil.PtrTime(base.Add(3*time.Minute)))
	// Pending rows have no completedOn and never win.
	testutil.SeedJobRecord(t, ctx, db, 1, types.JobStatusPending, base.Add(10*time.Minute), nil)

	tieA := testutil.SeedJobRecord(t, ctx, db, 2, types.JobStatusCompleted, base, testutil.PtrTime(base.Add(time.Minute)))
	tieB := testutil.SeedJobRecord(t, ctx, db, 2, types.JobStatusCompleted, base, testutil.PtrTime(base.Add(time.Minute)))

	testutil.SeedJobRecord(t, ctx, db, 3, types.JobStatusPending, base, nil)
	testutil.SeedJobRecord(t, ctx, db, 4, types.JobStatusError, base, testutil.PtrTime(base.Add(time.Minute)))

	got, err := repo.GetLatestCompletedByDerivedConceptIDs(dbctx.Context{Ctx: ctx}, []uint{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("GetLatestCompletedByDerivedConceptIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetLatestCompletedByDerivedConceptIDs: want 2 entries got %d", len(got))
	}
	if got[1].ID != latest.ID {
		t.Fatalf("latest for 1: want=%d got=%d", latest.ID, got[1].ID)
	}
	if tieB.ID < tieA.ID || got[2].ID != tieB.ID {
		t.Fatalf("latest for 2: want=%d got=%d", tieB.ID, got[2].ID)
	}
	if _, ok := got[3]; ok {
		t.Fatalf("latest for 3: pending-only concept must be absent")
	}
	if _, ok := got[4]; ok {
		t.Fatalf("latest for 4: failed-only concept must be absent")
	}
}
