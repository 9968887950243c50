// Package testutil provides test helpers including container management
// for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/menagerie/internal/config"
	"github.com/cory-johannsen/menagerie/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// schema mirrors the migrations in migrations/. Tests apply it directly so
// the migrate tool is not required in the test environment.
const schema = `
	CREATE TABLE IF NOT EXISTS monsters (
		token_id       BIGSERIAL    PRIMARY KEY,
		owner          VARCHAR(128) NOT NULL,
		name           VARCHAR(32)  NOT NULL,
		primary_type   SMALLINT     NOT NULL,
		secondary_type SMALLINT     NOT NULL,
		hp             SMALLINT     NOT NULL,
		attack         SMALLINT     NOT NULL,
		defense        SMALLINT     NOT NULL,
		speed          SMALLINT     NOT NULL,
		rarity         SMALLINT     NOT NULL,
		seed_hex       CHAR(66)     NOT NULL,
		packed_hex     CHAR(66)     NOT NULL,
		created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_monsters_owner ON monsters (owner);
	CREATE INDEX IF NOT EXISTS idx_monsters_rarity ON monsters (rarity);

	CREATE TABLE IF NOT EXISTS listings (
		id         UUID          PRIMARY KEY,
		token_id   BIGINT        NOT NULL REFERENCES monsters (token_id),
		seller     VARCHAR(128)  NOT NULL,
		price      NUMERIC(78,0) NOT NULL CHECK (price > 0),
		status     VARCHAR(16)   NOT NULL,
		created_at TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ   NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_one_active_per_token
		ON listings (token_id) WHERE status = 'active';
	CREATE INDEX IF NOT EXISTS idx_listings_status ON listings (status);

	CREATE TABLE IF NOT EXISTS fee_ledger (
		id      SMALLINT      PRIMARY KEY CHECK (id = 1),
		balance NUMERIC(78,0) NOT NULL DEFAULT 0 CHECK (balance >= 0)
	);
	INSERT INTO fee_ledger (id, balance) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
`

// ApplyMigrations runs the schema creation SQL directly for tests.
//
// Precondition: Pool must be connected.
// Postcondition: The monsters, listings, and fee_ledger tables exist in the
// test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	applySchema(t, pc.RawPool)
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}

// NewPool returns a pgx pool connected to a migrated, empty test database.
// When TEST_DSN is set it connects there instead of starting a container,
// which keeps local iteration fast; either way existing rows are truncated
// so tests start from a clean slate.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	var pool *pgxpool.Pool
	if dsn := os.Getenv("TEST_DSN"); dsn != "" {
		var err error
		pool, err = pgxpool.New(ctx, dsn)
		if err != nil {
			t.Fatalf("connecting to TEST_DSN: %v", err)
		}
		if err := pool.Ping(ctx); err != nil {
			t.Fatalf("pinging TEST_DSN database: %v", err)
		}
		t.Cleanup(pool.Close)
	} else {
		pool = NewPostgresContainer(t).RawPool
	}

	applySchema(t, pool)
	resetTables(t, pool)
	return pool
}

func applySchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	start := time.Now()
	if _, err := pool.Exec(context.Background(), schema); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied [%s]", time.Since(start))
}

func resetTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	if _, err := pool.Exec(ctx,
		`TRUNCATE monsters, listings RESTART IDENTITY CASCADE`,
	); err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`UPDATE fee_ledger SET balance = 0 WHERE id = 1`,
	); err != nil {
		t.Fatalf("resetting fee balance: %v", err)
	}
}
