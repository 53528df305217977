package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
	"github.com/yungbote/derivedconcept-backend/internal/platform/neo4jdb"
)

// DependencyGraph mirrors derived concepts and their dependency edges into
// neo4j as (:Concept)-[:FEEDS]->(:Concept). It can also serve as the edge
// source for the calculation scheduler.
type DependencyGraph struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewDependencyGraph(client *neo4jdb.Client, baseLog *logger.Logger) *DependencyGraph {
	return &DependencyGraph{client: client, log: baseLog.With("graph", "Neo4jDependencyGraph")}
}

// EnsureSchema creates the path uniqueness constraint. Failures are logged;
// restricted users may not be allowed to manage schema.
func (g *DependencyGraph) EnsureSchema(ctx context.Context) {
	if !g.client.Enabled() {
		return
	}
	session := g.client.WriteSession(ctx)
	defer session.Close(ctx)

	for _, stmt := range []string{
		`CREATE CONSTRAINT concept_path_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.path IS UNIQUE`,
		`CREATE INDEX concept_derived_id_idx IF NOT EXISTS FOR (c:Concept) ON (c.derived_concept_id)`,
	} {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			g.log.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

// A rename only detaches the old node from its own parents. Edges from the
// old path into dependents stay, as they do in SQL, until those dependents
// are rewritten.
const (
	cypherDetachRenamed = `
MATCH (o:Concept {path: $previous_path})
OPTIONAL MATCH (o)<-[r:FEEDS]-()
DELETE r
WITH DISTINCT o
REMOVE o.derived_concept_id, o.code, o.unit, o.updated_on
SET o.derived = false
`
	cypherDropOrphanRenamed = `
MATCH (o:Concept {path: $previous_path})
WHERE NOT (o)--()
DELETE o
`
	cypherUpsertDerived = `
MERGE (d:Concept {path: $path})
SET d.derived = true,
    d.name = $name,
    d.derived_concept_id = $derived_concept_id,
    d.code = $code,
    d.unit = $unit,
    d.updated_on = $updated_on,
    d.synced_at = $synced_at
WITH d
OPTIONAL MATCH (d)<-[r:FEEDS]-()
DELETE r
`
	cypherLinkParents = `
MATCH (d:Concept {path: $path})
UNWIND $parents AS parent
MERGE (p:Concept {path: parent.path})
ON CREATE SET p.derived = false, p.name = parent.name
MERGE (p)-[e:FEEDS]->(d)
SET e.derived_concept_id = $derived_concept_id,
    e.synced_at = $synced_at
`
)

// syncStatements lists the writes SyncConcept runs, in order.
func syncStatements(params map[string]any) []string {
	var out []string
	if renamed, _ := params["renamed"].(bool); renamed {
		out = append(out, cypherDetachRenamed, cypherDropOrphanRenamed)
	}
	out = append(out, cypherUpsertDerived)
	if parents, _ := params["parents"].([]map[string]any); len(parents) > 0 {
		out = append(out, cypherLinkParents)
	}
	return out
}

func (g *DependencyGraph) SyncConcept(ctx context.Context, previousPath string, dc *types.DerivedConcept, parents []string) error {
	if !g.client.Enabled() || dc == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	params := syncParams(previousPath, dc, parents, time.Now())

	session := g.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range syncStatements(params) {
			if err := run(ctx, tx, stmt, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j dependency sync %s: %w", dc.Path, err)
	}
	return nil
}

func (g *DependencyGraph) DeleteConcept(ctx context.Context, path string) error {
	if !g.client.Enabled() || path == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session := g.client.WriteSession(ctx)
	defer session.Close(ctx)

	params := map[string]any{"path": path}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := run(ctx, tx, `
MATCH (d:Concept {path: $path})
OPTIONAL MATCH (d)<-[r:FEEDS]-()
DELETE r
WITH DISTINCT d
REMOVE d.derived_concept_id, d.code, d.unit, d.updated_on
SET d.derived = false
`, params); err != nil {
			return nil, err
		}
		return nil, run(ctx, tx, `
MATCH (n:Concept)
WHERE (n.path = $path OR n.derived = false) AND NOT (n)--()
DELETE n
`, params)
	})
	if err != nil {
		return fmt.Errorf("neo4j dependency delete %s: %w", path, err)
	}
	return nil
}

// GetEdges returns every FEEDS relationship touching one of paths.
func (g *DependencyGraph) GetEdges(dbc dbctx.Context, paths []string) ([]*types.DependencyEdge, error) {
	if len(paths) == 0 {
		return []*types.DependencyEdge{}, nil
	}
	return g.readEdges(dbc.Context(), `
MATCH (p:Concept)-[e:FEEDS]->(d:Concept)
WHERE p.path IN $paths OR d.path IN $paths
RETURN e.derived_concept_id AS derived_concept_id, d.path AS derived_path, p.path AS parent_path
`, map[string]any{"paths": paths})
}

func (g *DependencyGraph) GetAllEdges(dbc dbctx.Context) ([]*types.DependencyEdge, error) {
	return g.readEdges(dbc.Context(), `
MATCH (p:Concept)-[e:FEEDS]->(d:Concept)
RETURN e.derived_concept_id AS derived_concept_id, d.path AS derived_path, p.path AS parent_path
`, nil)
}

func (g *DependencyGraph) readEdges(ctx context.Context, cypher string, params map[string]any) ([]*types.DependencyEdge, error) {
	if !g.client.Enabled() {
		return nil, fmt.Errorf("neo4j dependency graph: client not configured")
	}
	session := g.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]*types.DependencyEdge, 0, len(records))
		for _, rec := range records {
			e, err := edgeFromValues(rec.AsMap())
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)
		}
		return edges, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j dependency read: %w", err)
	}
	edges := out.([]*types.DependencyEdge)
	sortEdges(edges)
	return edges, nil
}

func run(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) error {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func syncParams(previousPath string, dc *types.DerivedConcept, parents []string, now time.Time) map[string]any {
	nodes := make([]map[string]any, 0, len(parents))
	for _, p := range parents {
		nodes = append(nodes, map[string]any{"path": p, "name": types.ConceptPath(p).Leaf()})
	}
	return map[string]any{
		"previous_path":      previousPath,
		"renamed":            previousPath != "" && previousPath != dc.Path,
		"path":               dc.Path,
		"name":               types.ConceptPath(dc.Path).Leaf(),
		"derived_concept_id": int64(dc.ID),
		"code":               dc.Code,
		"unit":               dc.Unit,
		"updated_on":         dc.UpdatedOn.UTC().Format(time.RFC3339Nano),
		"synced_at":          now.UTC().Format(time.RFC3339Nano),
		"parents":            nodes,
	}
}

func edgeFromValues(v map[string]any) (*types.DependencyEdge, error) {
	derived, _ := v["derived_path"].(string)
	parent, _ := v["parent_path"].(string)
	if derived == "" || parent == "" {
		return nil, fmt.Errorf("neo4j dependency read: incomplete edge %v", v)
	}
	var id uint
	switch raw := v["derived_concept_id"].(type) {
	case int64:
		if raw > 0 {
			id = uint(raw)
		}
	case nil:
	default:
		return nil, fmt.Errorf("neo4j dependency read: derived_concept_id has type %T", raw)
	}
	return &types.DependencyEdge{
		DerivedConceptID:   id,
		DerivedConceptPath: derived,
		ParentConceptPath:  parent,
	}, nil
}

// sortEdges orders by owning concept then parent path, approximating the SQL
// store's insertion order so hierarchy ordering is stable across backends.
func sortEdges(edges []*types.DependencyEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.DerivedConceptID != b.DerivedConceptID {
			return a.DerivedConceptID < b.DerivedConceptID
		}
		if a.DerivedConceptPath != b.DerivedConceptPath {
			return a.DerivedConceptPath < b.DerivedConceptPath
		}
		return a.ParentConceptPath < b.ParentConceptPath
	})
}
