package dependency

import (
	types "github.com/yungbote/derivedconcept-backend/internal/domain"
)

// CyclicDependencyMessage is attached to every concept that cannot be
// ordered because it sits on, or downstream of, a dependency cycle.
const CyclicDependencyMessage = "Cyclic dependency detected: concept cannot be ordered for calculation"

type Outcome int

const (
	Sorted Outcome = iota
	CycleDetected
)

func (o Outcome) String() string {
	if o == CycleDetected {
		return "cycle_detected"
	}
	return "sorted"
}

// SortResult is the execution order over a hierarchy. When Outcome is
// CycleDetected, Order holds only the nodes that could be ordered.
type SortResult struct {
	Order        []int
	Index        *PathIndex
	Outcome      Outcome
	CycleMessage string

	parents  [][]int
	position map[int]int
}

// Sort orders the endpoints of edges so that every parent precedes the
// concepts derived from it.
//
// Ids are assigned to derived paths in edge order, then to parent paths.
// Nodes with no unmet parents are released in id order and processed FIFO,
// so the result depends only on the edge order. Incomplete edges are ignored.
func Sort(edges []*types.DependencyEdge) *SortResult {
	idx := newPathIndex(len(edges) * 2)
	complete := make([]*types.DependencyEdge, 0, len(edges))
	for _, e := range edges {
		if e.Complete() {
			complete = append(complete, e)
		}
	}
	for _, e := range complete {
		idx.add(e.DerivedConceptPath)
	}
	for _, e := range complete {
		idx.add(e.ParentConceptPath)
	}

	n := idx.Len()
	succ := make([][]int, n)
	parents := make([][]int, n)
	inDegree := make([]int, n)
	for _, e := range complete {
		p, _ := idx.Lookup(e.ParentConceptPath)
		d, _ := idx.Lookup(e.DerivedConceptPath)
		succ[p] = append(succ[p], d)
		parents[d] = append(parents[d], p)
		inDegree[d]++
	}

	queue := make([]int, 0, n)
	for id := 0; id < n; id++ {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	order := make([]int, 0, n)
	for head := 0; head < len(queue); head++ {
		id := queue[head]
		order = append(order, id)
		for _, next := range succ[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	res := &SortResult{
		Order:    order,
		Index:    idx,
		Outcome:  Sorted,
		parents:  parents,
		position: make(map[int]int, len(order)),
	}
	for pos, id := range order {
		res.position[id] = pos
	}
	if len(order) < n {
		res.Outcome = CycleDetected
		res.CycleMessage = CyclicDependencyMessage
	}
	return res
}

func (r *SortResult) HasCycle() bool { return r.Outcome == CycleDetected }

// Ordered reports whether path received a place in Order.
func (r *SortResult) Ordered(path string) bool {
	_, ok := r.Position(path)
	return ok
}

// Position is the place of path in Order.
func (r *SortResult) Position(path string) (int, bool) {
	id, ok := r.Index.Lookup(path)
	if !ok {
		return 0, false
	}
	pos, ok := r.position[id]
	return pos, ok
}

func (r *SortResult) OrderedPaths() []string {
	out := make([]string, 0, len(r.Order))
	for _, id := range r.Order {
		out = append(out, r.Index.Path(id))
	}
	return out
}

// UnorderedPaths lists, in id order, the nodes left out of Order.
func (r *SortResult) UnorderedPaths() []string {
	out := []string{}
	for id := 0; id < r.Index.Len(); id++ {
		if _, ok := r.position[id]; !ok {
			out = append(out, r.Index.Path(id))
		}
	}
	return out
}

// Upstream returns path and everything it transitively depends on: ordered
// members first in execution order, then unordered members in id order.
// Concepts that depend on path are never included.
func (r *SortResult) Upstream(path string) []string {
	start, ok := r.Index.Lookup(path)
	if !ok {
		return nil
	}
	keep := make([]bool, r.Index.Len())
	keep[start] = true
	stack := []int{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range r.parents[id] {
			if !keep[p] {
				keep[p] = true
				stack = append(stack, p)
			}
		}
	}

	out := []string{}
	for _, id := range r.Order {
		if keep[id] {
			out = append(out, r.Index.Path(id))
		}
	}
	for id := 0; id < r.Index.Len(); id++ {
		if _, ordered := r.position[id]; keep[id] && !ordered {
			out = append(out, r.Index.Path(id))
		}
	}
	return out
}

// Members lists every node: ordered ones in execution order, the rest in
// id order.
func (r *SortResult) Members() []string {
	return append(r.OrderedPaths(), r.UnorderedPaths()...)
}
