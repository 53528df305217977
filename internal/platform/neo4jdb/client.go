package neo4jdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

type Options struct {
	URI            string
	User           string
	Password       string
	Database       string
	TimeoutSeconds int
	MaxPoolSize    int
}

func (o Options) withDefaults() Options {
	o.URI = strings.TrimSpace(o.URI)
	if strings.TrimSpace(o.User) == "" {
		o.User = "neo4j"
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = 10
	}
	if o.MaxPoolSize <= 0 {
		o.MaxPoolSize = 50
	}
	return o
}

type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

// NewClient connects and verifies connectivity. An empty URI disables neo4j
// and returns a nil client with no error.
func NewClient(log *logger.Logger, opts Options) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("neo4jdb: logger required")
	}
	opts = opts.withDefaults()
	if opts.URI == "" {
		return nil, nil
	}

	timeout := time.Duration(opts.TimeoutSeconds) * time.Second
	auth := neo4j.BasicAuth(opts.User, opts.Password, "")
	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = opts.MaxPoolSize
		cfg.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4jdb: verify connectivity: %w", err)
	}

	c := &Client{
		Driver:   driver,
		Database: strings.TrimSpace(opts.Database),
		log:      log.With("client", "Neo4jDB"),
	}
	c.log.Info("Connected to neo4j", "uri", opts.URI, "database", c.Database)
	return c, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.Driver != nil
}

func (c *Client) ReadSession(ctx context.Context) neo4j.SessionWithContext {
	return c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.Database,
	})
}

func (c *Client) WriteSession(ctx context.Context) neo4j.SessionWithContext {
	return c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}
