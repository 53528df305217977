package dependency

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

var tracer = otel.Tracer("github.com/yungbote/derivedconcept-backend/internal/modules/dependency")

// EdgeSource is the dependency store as the expander sees it.
type EdgeSource interface {
	// GetEdges returns every edge whose parent or derived path is in paths.
	GetEdges(dbc dbctx.Context, paths []string) ([]*types.DependencyEdge, error)
}

type Expander struct {
	src EdgeSource
	log *logger.Logger
}

func NewExpander(src EdgeSource, baseLog *logger.Logger) *Expander {
	return &Expander{src: src, log: baseLog.With("module", "DependencyExpander")}
}

// Expand grows seed to the set of all edges transitively connected to it,
// in either direction. Each iteration queries the store for the paths first
// seen in the previous one and stops once an iteration adds no edge.
//
// A seed edge missing an endpoint only contributes the endpoint it has.
func (x *Expander) Expand(dbc dbctx.Context, seed []*types.DependencyEdge) (*Hierarchy, error) {
	ctx, span := tracer.Start(dbc.Context(), "dependency.Expand")
	defer span.End()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	h := NewHierarchy()
	for _, e := range seed {
		if e == nil {
			continue
		}
		if !h.AddEdge(e) {
			h.AddPath(e.DerivedConceptPath)
			h.AddPath(e.ParentConceptPath)
		}
	}

	frontier := h.Paths()
	rounds := 0
	for len(frontier) > 0 {
		rounds++
		edges, err := x.src.GetEdges(dbc, frontier)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("expand round %d: %w", rounds, err)
		}
		seen := len(h.paths)
		progress := false
		for _, e := range edges {
			if h.AddEdge(e) {
				progress = true
			}
		}
		if !progress {
			break
		}
		frontier = append([]string(nil), h.paths[seen:]...)
	}

	span.SetAttributes(
		attribute.Int("dependency.rounds", rounds),
		attribute.Int("dependency.edges", h.Len()),
		attribute.Int("dependency.paths", len(h.paths)),
	)
	x.log.Debug("Expanded dependency hierarchy", "rounds", rounds, "edges", h.Len(), "paths", len(h.paths))
	return h, nil
}
