package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos"
	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/modules/dependency"
	"github.com/yungbote/derivedconcept-backend/internal/observability"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

var tracer = otel.Tracer("github.com/yungbote/derivedconcept-backend/internal/services")

const (
	scopeGlobal = "global"
	scopeSingle = "single"
)

// DependencyGraph is the dependency store the scheduler reads from: the SQL
// repo or the neo4j mirror.
type DependencyGraph interface {
	dependency.EdgeSource
	GetAllEdges(dbc dbctx.Context) ([]*types.DependencyEdge, error)
}

type CalculationService interface {
	// Calculate schedules (re)calculation of one derived concept and its
	// upstream, or of every derived concept when derivedConceptID is nil.
	// It returns the records it inserted; concepts already current get none.
	Calculate(dbc dbctx.Context, derivedConceptID *uint) ([]*types.JobRecord, error)
	// DependencyHierarchies lists every connected dependency hierarchy.
	DependencyHierarchies(dbc dbctx.Context) ([]*dependency.Hierarchy, error)
}

type calculationService struct {
	log      *logger.Logger
	concepts repos.DerivedConceptRepo
	graph    DependencyGraph
	jobs     repos.JobRecordRepo
	expander *dependency.Expander
	notify   JobNotifier
	workers  int
	now      func() time.Time
}

func NewCalculationService(
	baseLog *logger.Logger,
	concepts repos.DerivedConceptRepo,
	graph DependencyGraph,
	jobs repos.JobRecordRepo,
	notify JobNotifier,
	workers int,
) CalculationService {
	if notify == nil {
		notify = NewNoopJobNotifier()
	}
	if workers <= 0 {
		workers = dependency.DefaultWorkers
	}
	return &calculationService{
		log:      baseLog.With("service", "CalculationService"),
		concepts: concepts,
		graph:    graph,
		jobs:     jobs,
		expander: dependency.NewExpander(graph, baseLog),
		notify:   notify,
		workers:  workers,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// planEntry is one selected concept. ordered is false when the concept sits
// on or behind a cycle.
type planEntry struct {
	concept       *types.DerivedConcept
	ordered       bool
	hierarchySize int
}

func (s *calculationService) Calculate(dbc dbctx.Context, derivedConceptID *uint) ([]*types.JobRecord, error) {
	scope := scopeGlobal
	if derivedConceptID != nil {
		scope = scopeSingle
	}
	start := time.Now()
	ctx, span := tracer.Start(dbc.Context(), "calculation.Calculate")
	defer span.End()
	span.SetAttributes(attribute.String("calculation.scope", scope))
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	records, err := s.calculate(dbc, derivedConceptID)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	observability.Current().ObserveCalculation(scope, outcome, time.Since(start))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("calculation.records", len(records)))
	return records, nil
}

func (s *calculationService) calculate(dbc dbctx.Context, derivedConceptID *uint) ([]*types.JobRecord, error) {
	var (
		plan []planEntry
		err  error
	)
	if derivedConceptID == nil {
		plan, err = s.planGlobal(dbc)
	} else {
		plan, err = s.planSingle(dbc, *derivedConceptID)
	}
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	records, err := s.buildRecords(dbc, plan, batchID, derivedConceptID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		s.log.Info("Nothing to schedule", "selected", len(plan), "derived_concept_id", idOrZero(derivedConceptID))
		return []*types.JobRecord{}, nil
	}
	created, err := s.jobs.CreateBatch(dbc, records)
	if err != nil {
		return nil, fmt.Errorf("create job records: %w", err)
	}

	batch := CalculationBatch{BatchID: batchID, DerivedConceptID: derivedConceptID}
	for _, r := range created {
		batch.JobRecordIDs = append(batch.JobRecordIDs, r.ID)
		if r.Status == types.JobStatusError {
			batch.Errors++
		} else {
			batch.Pending++
		}
	}
	observability.Current().AddJobRecords(string(types.JobStatusPending), batch.Pending)
	observability.Current().AddJobRecords(string(types.JobStatusError), batch.Errors)
	s.notify.CalculationScheduled(dbc.Context(), batch)

	s.log.Info("Scheduled calculation batch",
		"batch_id", batchID,
		"derived_concept_id", idOrZero(derivedConceptID),
		"pending", batch.Pending,
		"errors", batch.Errors,
		"skipped", len(plan)-len(created),
	)
	return created, nil
}

// planGlobal selects every derived concept: hierarchy members in each
// hierarchy's execution order, then concepts no edge touches.
func (s *calculationService) planGlobal(dbc dbctx.Context) ([]planEntry, error) {
	all, err := s.concepts.List(dbc)
	if err != nil {
		return nil, fmt.Errorf("list derived concepts: %w", err)
	}
	edges, err := s.graph.GetAllEdges(dbc)
	if err != nil {
		return nil, fmt.Errorf("list dependency edges: %w", err)
	}
	hierarchies, err := s.expander.Partition(dbc, edges, s.workers)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]*types.DerivedConcept, len(all))
	for _, c := range all {
		byPath[c.Path] = c
	}
	touched := map[string]bool{}
	selected := map[uint]bool{}
	plan := make([]planEntry, 0, len(all))
	for _, h := range hierarchies {
		res := dependency.Sort(h.Edges())
		observability.Current().ObserveHierarchy(h.Len(), res.HasCycle())
		if res.HasCycle() {
			s.log.Warn("Cyclic dependency in hierarchy", "unordered", res.UnorderedPaths())
		}
		for _, p := range res.Members() {
			touched[p] = true
			c := byPath[p]
			if c == nil || selected[c.ID] {
				continue
			}
			selected[c.ID] = true
			plan = append(plan, planEntry{concept: c, ordered: res.Ordered(p), hierarchySize: h.Len()})
		}
	}
	for _, c := range all {
		if touched[c.Path] || selected[c.ID] {
			continue
		}
		selected[c.ID] = true
		plan = append(plan, planEntry{concept: c, ordered: true})
	}
	return plan, nil
}

// planSingle selects the target and everything it transitively depends on.
// Concepts derived from the target are left alone.
func (s *calculationService) planSingle(dbc dbctx.Context, id uint) ([]planEntry, error) {
	target, err := s.concepts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	h, err := s.expander.Expand(dbc, []*types.DependencyEdge{{DerivedConceptPath: target.Path}})
	if err != nil {
		return nil, err
	}
	if h.Empty() {
		return []planEntry{{concept: target, ordered: true}}, nil
	}

	res := dependency.Sort(h.Edges())
	observability.Current().ObserveHierarchy(h.Len(), res.HasCycle())
	upstream := res.Upstream(target.Path)
	members, err := s.concepts.GetByPaths(dbc, upstream)
	if err != nil {
		return nil, fmt.Errorf("resolve hierarchy members: %w", err)
	}
	byPath := make(map[string]*types.DerivedConcept, len(members))
	for _, c := range members {
		byPath[c.Path] = c
	}
	plan := make([]planEntry, 0, len(upstream))
	for _, p := range upstream {
		c := byPath[p]
		if c == nil {
			continue
		}
		plan = append(plan, planEntry{concept: c, ordered: res.Ordered(p), hierarchySize: h.Len()})
	}
	return plan, nil
}

// buildRecords applies the freshness rule. A concept outside the order gets
// an ERROR record even when it is current.
func (s *calculationService) buildRecords(dbc dbctx.Context, plan []planEntry, batchID uuid.UUID, targetID *uint) ([]*types.JobRecord, error) {
	if len(plan) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(plan))
	for _, e := range plan {
		ids = append(ids, e.concept.ID)
	}
	latest, err := s.jobs.GetLatestCompletedByDerivedConceptIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load latest completed job records: %w", err)
	}

	trigger := scopeGlobal
	if targetID != nil {
		trigger = scopeSingle
	}
	now := s.now()
	out := make([]*types.JobRecord, 0, len(plan))
	for pos, e := range plan {
		rec := &types.JobRecord{
			DerivedConceptID: e.concept.ID,
			BatchID:          batchID,
			StartedOn:        now,
		}
		switch {
		case !e.ordered:
			rec.Status = types.JobStatusError
			rec.ErrorStack = dependency.CyclicDependencyMessage
		case isCurrent(e.concept, latest[e.concept.ID]):
			continue
		default:
			rec.Status = types.JobStatusPending
		}
		rec.Detail = scheduleDetail(trigger, targetID, pos, e.hierarchySize)
		out = append(out, rec)
	}
	return out, nil
}

func idOrZero(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

// isCurrent reports whether a successful run finished after the last edit.
// Failed runs never make a concept current.
func isCurrent(c *types.DerivedConcept, latest *types.JobRecord) bool {
	return latest != nil &&
		latest.Status == types.JobStatusCompleted &&
		latest.CompletedOn != nil &&
		latest.CompletedOn.After(c.UpdatedOn)
}

func scheduleDetail(trigger string, targetID *uint, position, hierarchySize int) datatypes.JSON {
	detail := map[string]any{
		"trigger":        trigger,
		"position":       position,
		"hierarchy_size": hierarchySize,
	}
	if targetID != nil {
		detail["target_id"] = *targetID
	}
	b, _ := json.Marshal(detail)
	return datatypes.JSON(b)
}

func (s *calculationService) DependencyHierarchies(dbc dbctx.Context) ([]*dependency.Hierarchy, error) {
	ctx, span := tracer.Start(dbc.Context(), "calculation.DependencyHierarchies")
	defer span.End()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	edges, err := s.graph.GetAllEdges(dbc)
	if err != nil {
		return nil, fmt.Errorf("list dependency edges: %w", err)
	}
	return s.expander.Partition(dbc, edges, s.workers)
}
