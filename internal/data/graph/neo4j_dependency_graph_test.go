package graph

import (
	"context"
	"reflect"
	"testing"
	"time"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

func TestSyncParamsRename(t *testing.T) {
	dc := &types.DerivedConcept{ID: 7, Path: `\D\New\`, UpdatedOn: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	p := syncParams(`\D\Old\`, dc, nil, time.Now())
	if p["renamed"] != true || p["derived_concept_id"] != int64(7) || p["name"] != "New" {
		t.Fatalf("syncParams: got %v", p)
	}
	if parents, ok := p["parents"].([]map[string]any); !ok || parents == nil {
		t.Fatalf("syncParams: parents must be a non-nil list, got %#v", p["parents"])
	}
	if p["updated_on"] != "2024-01-02T03:04:05Z" {
		t.Fatalf("syncParams: updated_on=%v", p["updated_on"])
	}
	if same := syncParams(`\D\New\`, dc, nil, time.Now()); same["renamed"] != false {
		t.Fatalf("syncParams: same path is not a rename")
	}
}

func TestSyncStatements(t *testing.T) {
	dc := &types.DerivedConcept{ID: 7, Path: `\D\New\`}

	renamed := syncStatements(syncParams(`\D\Old\`, dc, []string{`\Source\Weight\`}, time.Now()))
	want := []string{cypherDetachRenamed, cypherDropOrphanRenamed, cypherUpsertDerived, cypherLinkParents}
	if !reflect.DeepEqual(renamed, want) {
		t.Fatalf("syncStatements rename: got %d statements", len(renamed))
	}

	params := syncParams("", dc, []string{`\Source\Weight\`}, time.Now())
	parents := params["parents"].([]map[string]any)
	if parents[0]["path"] != `\Source\Weight\` || parents[0]["name"] != "Weight" {
		t.Fatalf("syncParams parents: got %v", parents)
	}
	if got := syncStatements(params); !reflect.DeepEqual(got, []string{cypherUpsertDerived, cypherLinkParents}) {
		t.Fatalf("syncStatements create: got %d statements", len(got))
	}
	if got := syncStatements(syncParams(dc.Path, dc, nil, time.Now())); !reflect.DeepEqual(got, []string{cypherUpsertDerived}) {
		t.Fatalf("syncStatements without parents: got %d statements", len(got))
	}
}

func TestEdgeFromValues(t *testing.T) {
	e, err := edgeFromValues(map[string]any{"derived_concept_id": int64(3), "derived_path": `\D\A\`, "parent_path": `\S\X\`})
	if err != nil {
		t.Fatalf("edgeFromValues: %v", err)
	}
	if e.DerivedConceptID != 3 || e.DerivedConceptPath != `\D\A\` || e.ParentConceptPath != `\S\X\` {
		t.Fatalf("edgeFromValues: got %+v", e)
	}
	if _, err := edgeFromValues(map[string]any{"derived_path": `\D\A\`}); err == nil {
		t.Fatalf("edgeFromValues: want error for a missing parent")
	}
	if _, err := edgeFromValues(map[string]any{"derived_concept_id": "3", "derived_path": `\D\A\`, "parent_path": `\S\X\`}); err == nil {
		t.Fatalf("edgeFromValues: want error for a string id")
	}
}

func TestSortEdges(t *testing.T) {
	edges := []*types.DependencyEdge{
		{DerivedConceptID: 2, DerivedConceptPath: `\D\B\`, ParentConceptPath: `\S\A\`},
		{DerivedConceptID: 1, DerivedConceptPath: `\D\A\`, ParentConceptPath: `\S\Z\`},
		{DerivedConceptID: 1, DerivedConceptPath: `\D\A\`, ParentConceptPath: `\S\B\`},
	}
	sortEdges(edges)
	if edges[0].ParentConceptPath != `\S\B\` || edges[1].ParentConceptPath != `\S\Z\` || edges[2].DerivedConceptID != 2 {
		t.Fatalf("sortEdges: got %v %v %v", edges[0], edges[1], edges[2])
	}
}

func TestDisabledGraph(t *testing.T) {
	g := NewDependencyGraph(nil, logger.Nop())
	if err := g.SyncConcept(context.Background(), "", &types.DerivedConcept{Path: `\D\A\`}, nil); err != nil {
		t.Fatalf("SyncConcept: disabled graph must be a no-op, got %v", err)
	}
	if err := g.DeleteConcept(context.Background(), `\D\A\`); err != nil {
		t.Fatalf("DeleteConcept: disabled graph must be a no-op, got %v", err)
	}
	if _, err := g.GetAllEdges(dbctx.Context{}); err == nil {
		t.Fatalf("GetAllEdges: want error without a client")
	}
}
