package app

import (
	"context"
	"fmt"

	"github.com/yungbote/derivedconcept-backend/internal/data/graph"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
	"github.com/yungbote/derivedconcept-backend/internal/platform/neo4jdb"
	"github.com/yungbote/derivedconcept-backend/internal/realtime/bus"
)

type Clients struct {
	EventBus bus.Bus
	Neo4j    *neo4jdb.Client
	Graph    *graph.DependencyGraph
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		out.EventBus = b
	}

	// Neo4j
	client, err := neo4jdb.NewClient(log, cfg.Neo4j)
	if err != nil {
		out.Close(context.Background())
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}
	if client != nil {
		out.Neo4j = client
		out.Graph = graph.NewDependencyGraph(client, log)
		out.Graph.EnsureSchema(context.Background())
	}
	if cfg.GraphBackend == GraphBackendNeo4j && out.Graph == nil {
		out.Close(context.Background())
		return Clients{}, fmt.Errorf("DEPENDENCY_GRAPH_BACKEND=neo4j requires NEO4J_URI")
	}
	return out, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.EventBus != nil {
		_ = c.EventBus.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
}
