package app

import (
	"strconv"
	"strings"

	"github.com/yungbote/derivedconcept-backend/internal/data/db"
	"github.com/yungbote/derivedconcept-backend/internal/modules/dependency"
	"github.com/yungbote/derivedconcept-backend/internal/observability"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/envutil"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
	"github.com/yungbote/derivedconcept-backend/internal/platform/neo4jdb"
	"github.com/yungbote/derivedconcept-backend/internal/realtime/bus"
)

const (
	GraphBackendSQL   = "sql"
	GraphBackendNeo4j = "neo4j"
)

type Config struct {
	Env  string
	Port string

	DB    db.Options
	Neo4j neo4jdb.Options
	Redis bus.RedisOptions
	Otel  observability.OtelConfig

	// GraphBackend picks the edge source for scheduling: sql or neo4j.
	GraphBackend     string
	HierarchyWorkers int
	JWTSecretKey     string
	CORSOrigins      []string
}

func LoadConfig(log *logger.Logger) Config {
	env := envutil.String("APP_ENV", "development", log)
	cfg := Config{
		Env:  env,
		Port: envutil.String("PORT", "8080", log),
		DB: db.Options{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "derived_concepts", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "", log),
		},
		Neo4j: neo4jdb.Options{
			URI:            envutil.String("NEO4J_URI", "", log),
			User:           envutil.String("NEO4J_USER", "neo4j", log),
			Password:       envutil.String("NEO4J_PASSWORD", "", log),
			Database:       envutil.String("NEO4J_DATABASE", "", log),
			TimeoutSeconds: envutil.Int("NEO4J_TIMEOUT_SECONDS", 10, log),
			MaxPoolSize:    envutil.Int("NEO4J_MAX_POOL_SIZE", 50, log),
		},
		Redis: bus.RedisOptions{
			Addr:    envutil.String("REDIS_ADDR", "", log),
			Channel: envutil.String("REDIS_CHANNEL", bus.DefaultRedisChannel, log),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "derivedconcept-backend", log),
			Environment: env,
			Version:     envutil.String("APP_VERSION", "", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: parseRatio(envutil.String("OTEL_SAMPLER_RATIO", "1", log)),
		},
		GraphBackend:     strings.ToLower(envutil.String("DEPENDENCY_GRAPH_BACKEND", GraphBackendSQL, log)),
		HierarchyWorkers: envutil.Int("HIERARCHY_WORKERS", dependency.DefaultWorkers, log),
		JWTSecretKey:     envutil.String("JWT_SECRET_KEY", "", log),
		CORSOrigins:      splitList(envutil.String("CORS_ORIGINS", "", log)),
	}
	if cfg.HierarchyWorkers < 1 {
		cfg.HierarchyWorkers = dependency.DefaultWorkers
	}
	return cfg
}

func parseRatio(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 1
	}
	return f
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
