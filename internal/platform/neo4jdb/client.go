package neo4jdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/logosgraph-export/internal/platform/envutil"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
)

type Config struct {
	URI      string
	User     string
	Password string
	Database string
	Timeout  time.Duration
	MaxPool  int
}

func ConfigFromEnv() Config {
	return Config{
		URI:      envutil.String("NEO4J_URI", ""),
		User:     envutil.String("NEO4J_USER", "neo4j"),
		Password: envutil.String("NEO4J_PASSWORD", ""),
		Database: envutil.String("NEO4J_DATABASE", ""),
		Timeout:  time.Duration(positive(envutil.Int("NEO4J_TIMEOUT_SECONDS", 10), 10)) * time.Second,
		MaxPool:  positive(envutil.Int("NEO4J_MAX_POOL_SIZE", 10), 10),
	}
}

type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	Timeout  time.Duration
	log      *logger.Logger
}

// New opens a driver and verifies connectivity before returning.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("neo4jdb: logger required")
	}
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, fmt.Errorf("neo4jdb: NEO4J_URI is not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxPool <= 0 {
		cfg.MaxPool = 10
	}

	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(uri, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPool
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4jdb: verify connectivity: %w", err)
	}

	clientLog := log.With("client", "Neo4jDB")
	clientLog.Info("Connected to Neo4j", "uri", uri, "database", cfg.Database)
	return &Client{
		Driver:   driver,
		Database: strings.TrimSpace(cfg.Database),
		Timeout:  cfg.Timeout,
		log:      clientLog,
	}, nil
}

// ReadSession opens a read-only session on the configured database.
func (c *Client) ReadSession(ctx context.Context) neo4j.SessionWithContext {
	return c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
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

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
