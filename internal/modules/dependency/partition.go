package dependency

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
)

const DefaultWorkers = 4

// hierarchySet registers each distinct edge set once, however many workers
// discover it.
type hierarchySet struct {
	mu    sync.Mutex
	bySig map[string]*Hierarchy
	order []*Hierarchy
}

func (s *hierarchySet) insert(h *Hierarchy) bool {
	sig := h.Signature()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bySig[sig]; ok {
		return false
	}
	s.bySig[sig] = h
	s.order = append(s.order, h)
	return true
}

// Partition splits edges into disjoint hierarchies. Each round expands up
// to workers uncovered edges concurrently, then drops every edge covered by
// the hierarchies found. Results follow the position of their first edge
// in edges.
//
// A transaction in dbc forces a single worker.
func (x *Expander) Partition(dbc dbctx.Context, edges []*types.DependencyEdge, workers int) ([]*Hierarchy, error) {
	ctx, span := tracer.Start(dbc.Context(), "dependency.Partition")
	defer span.End()

	if workers <= 0 {
		workers = DefaultWorkers
	}
	if dbc.Tx != nil {
		workers = 1
	}

	remaining := make([]*types.DependencyEdge, 0, len(edges))
	firstPos := map[types.EdgeKey]int{}
	for _, e := range edges {
		if !e.Complete() {
			continue
		}
		k := e.Key()
		if _, dup := firstPos[k]; dup {
			continue
		}
		firstPos[k] = len(remaining)
		remaining = append(remaining, e)
	}

	set := &hierarchySet{bySig: map[string]*Hierarchy{}}
	covered := map[types.EdgeKey]bool{}
	for round := 1; len(remaining) > 0; round++ {
		seeds := remaining
		if len(seeds) > workers {
			seeds = seeds[:workers]
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		found := make([]*Hierarchy, len(seeds))
		for i, seed := range seeds {
			i, seed := i, seed
			g.Go(func() error {
				h, err := x.Expand(dbctx.Context{Ctx: gctx, Tx: dbc.Tx}, []*types.DependencyEdge{seed})
				if err != nil {
					return err
				}
				found[i] = h
				set.insert(h)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("partition round %d: %w", round, err)
		}

		for i, h := range found {
			covered[seeds[i].Key()] = true
			for _, e := range h.edges {
				covered[e.Key()] = true
			}
		}
		next := remaining[:0:0]
		for _, e := range remaining {
			if !covered[e.Key()] {
				next = append(next, e)
			}
		}
		remaining = next
	}

	out := set.order
	first := make(map[*Hierarchy]int, len(out))
	for _, h := range out {
		best := len(firstPos)
		for _, e := range h.edges {
			if pos, ok := firstPos[e.Key()]; ok && pos < best {
				best = pos
			}
		}
		first[h] = best
	}
	sort.SliceStable(out, func(i, j int) bool { return first[out[i]] < first[out[j]] })
	return out, nil
}
