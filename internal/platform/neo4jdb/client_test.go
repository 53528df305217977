package neo4jdb

import (
	"testing"

	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

func TestNewClientDisabledWithoutURI(t *testing.T) {
	c, err := NewClient(logger.Nop(), Options{URI: "  "})
	if err != nil || c != nil {
		t.Fatalf("NewClient: want nil,nil got %v,%v", c, err)
	}
	if c.Enabled() {
		t.Fatalf("Enabled: nil client must report disabled")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{URI: " bolt://localhost:7687 "}.withDefaults()
	if o.URI != "bolt://localhost:7687" || o.User != "neo4j" || o.TimeoutSeconds != 10 || o.MaxPoolSize != 50 {
		t.Fatalf("withDefaults: got %+v", o)
	}
}
