package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos"
	"github.com/yungbote/derivedconcept-backend/internal/data/repos/testutil"
	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
)

type recordingNotifier struct {
	mu        sync.Mutex
	batches   []CalculationBatch
	completed []*types.JobRecord
	failed    []*types.JobRecord
}

func (n *recordingNotifier) CalculationScheduled(_ context.Context, b CalculationBatch) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, b)
}

func (n *recordingNotifier) JobRecordCompleted(_ context.Context, rec *types.JobRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, rec)
}

func (n *recordingNotifier) JobRecordFailed(_ context.Context, rec *types.JobRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, rec)
}

type fixture struct {
	db       *gorm.DB
	ctx      context.Context
	dbc      dbctx.Context
	concepts repos.DerivedConceptRepo
	edges    repos.DependencyRepo
	jobs     repos.JobRecordRepo
	notify   *recordingNotifier
	calc     CalculationService
	records  JobRecordService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &fixture{
		db:       db,
		ctx:      context.Background(),
		concepts: repos.NewDerivedConceptRepo(db, log),
		edges:    repos.NewDependencyRepo(db, log),
		jobs:     repos.NewJobRecordRepo(db, log),
		notify:   &recordingNotifier{},
	}
	f.dbc = dbctx.Context{Ctx: f.ctx}
	f.calc = NewCalculationService(log, f.concepts, f.edges, f.jobs, f.notify, 2)
	f.records = NewJobRecordService(log, f.jobs, f.notify)
	return f
}

type recordView struct {
	conceptID uint
	status    types.JobStatus
}

func view(recs []*types.JobRecord) []recordView {
	out := make([]recordView, 0, len(recs))
	for _, r := range recs {
		out = append(out, recordView{conceptID: r.DerivedConceptID, status: r.Status})
	}
	return out
}
