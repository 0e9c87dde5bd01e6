package neo4jdb

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
)

// Client wraps the Neo4j driver used for the concept graph store. NewFromEnv
// returns (nil, nil) when NEO4J_URI is unset so the rest of the backend can
// treat the graph side as optional.
type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

func NewFromEnv(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("neo4jdb: logger required")
	}

	uri := strings.TrimSpace(os.Getenv("NEO4J_URI"))
	if uri == "" {
		return nil, nil
	}

	user := strings.TrimSpace(os.Getenv("NEO4J_USER"))
	if user == "" {
		user = "neo4j"
	}
	password := strings.TrimSpace(os.Getenv("NEO4J_PASSWORD"))
	database := strings.TrimSpace(os.Getenv("NEO4J_DATABASE"))

	timeoutSec := 10
	if v := strings.TrimSpace(os.Getenv("NEO4J_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxPool := 50
	if v := strings.TrimSpace(os.Getenv("NEO4J_MAX_POOL_SIZE")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxPool = parsed
		}
	}

	auth := neo4j.BasicAuth(user, password, "")
	driver, err := neo4j.NewDriverWithContext(uri, auth, func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = maxPool
		cfg.SocketConnectTimeout = time.Duration(timeoutSec) * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4jdb: verify connectivity: %w", err)
	}

	return &Client{
		Driver:   driver,
		Database: database,
		log:      log.With("client", "Neo4jDB"),
	}, nil
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

// Read runs a cypher query in a read transaction and returns the result rows
// as generic maps.
func (c *Client) Read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if c == nil || c.Driver == nil {
		return nil, fmt.Errorf("neo4jdb: client not initialized")
	}
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRows(ctx, tx, cypher, params)
	})
	if err != nil {
		return nil, err
	}
	return rows.([]map[string]any), nil
}

// Write runs a cypher statement in a write transaction. Rows returned by the
// statement (if any) are handed back to the caller.
func (c *Client) Write(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if c == nil || c.Driver == nil {
		return nil, fmt.Errorf("neo4jdb: client not initialized")
	}
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRows(ctx, tx, cypher, params)
	})
	if err != nil {
		return nil, err
	}
	return rows.([]map[string]any), nil
}

// EnsureSchema creates the uniqueness constraints the concept graph relies
// on. Best-effort, matching restricted-user deployments.
func (c *Client) EnsureSchema(ctx context.Context) {
	if c == nil || c.Driver == nil {
		return
	}
	statements := []string{
		`CREATE CONSTRAINT learner_id_unique IF NOT EXISTS FOR (l:Learner) REQUIRE l.id IS UNIQUE`,
		`CREATE CONSTRAINT concept_uid_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.uid IS UNIQUE`,
	}
	for _, stmt := range statements {
		if _, err := c.Write(ctx, stmt, nil); err != nil && c.log != nil {
			c.log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	}
}

func collectRows(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]map[string]any, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}
