package dependency

import (
	"sort"
	"strings"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
)

// Hierarchy is a deduplicated, insertion-ordered set of dependency edges
// plus every concept path those edges (and the seed) touch.
// Edge identity is the (derived, parent) endpoint pair.
type Hierarchy struct {
	edges   []*types.DependencyEdge
	keys    map[types.EdgeKey]struct{}
	paths   []string
	pathSet map[string]struct{}
}

func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		keys:    map[types.EdgeKey]struct{}{},
		pathSet: map[string]struct{}{},
	}
}

// AddEdge inserts e and its endpoints. It reports whether the edge was new.
// Incomplete edges are never stored.
func (h *Hierarchy) AddEdge(e *types.DependencyEdge) bool {
	if !e.Complete() {
		return false
	}
	k := e.Key()
	if _, ok := h.keys[k]; ok {
		return false
	}
	h.keys[k] = struct{}{}
	h.edges = append(h.edges, e)
	h.AddPath(e.DerivedConceptPath)
	h.AddPath(e.ParentConceptPath)
	return true
}

// AddPath records p as touched. It reports whether p was new.
func (h *Hierarchy) AddPath(p string) bool {
	if p == "" {
		return false
	}
	if _, ok := h.pathSet[p]; ok {
		return false
	}
	h.pathSet[p] = struct{}{}
	h.paths = append(h.paths, p)
	return true
}

func (h *Hierarchy) Edges() []*types.DependencyEdge {
	out := make([]*types.DependencyEdge, len(h.edges))
	copy(out, h.edges)
	return out
}

func (h *Hierarchy) Paths() []string {
	out := make([]string, len(h.paths))
	copy(out, h.paths)
	return out
}

func (h *Hierarchy) Len() int { return len(h.edges) }

func (h *Hierarchy) Empty() bool { return len(h.edges) == 0 }

func (h *Hierarchy) Contains(k types.EdgeKey) bool {
	_, ok := h.keys[k]
	return ok
}

func (h *Hierarchy) HasPath(p string) bool {
	_, ok := h.pathSet[p]
	return ok
}

// Signature is a canonical rendering of the edge set. Two hierarchies have
// the same signature exactly when their edge sets are equal.
func (h *Hierarchy) Signature() string {
	keys := make([]string, 0, len(h.keys))
	for k := range h.keys {
		keys = append(keys, k.Parent+"\x00"+k.Derived)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x01")
}
