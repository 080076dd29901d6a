// Package helpers provides testing utilities for integration tests.
package helpers

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the Postgres image used for integration tests.
	DefaultPostgresImage = "postgres:16-alpine"
	// DefaultPostgresStartupTimeout is the default timeout for Postgres to start.
	DefaultPostgresStartupTimeout = 60 * time.Second
	// DefaultMaxRetries is the default number of retries for Postgres health checks.
	DefaultMaxRetries = 30
)

// PostgresContainer manages a test Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
}

// StartPostgres starts a Postgres container for testing.
// It returns a container instance that should be stopped with Stop().
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	pgContainer, err := postgres.Run(
		ctx,
		DefaultPostgresImage,
		postgres.WithDatabase("harvest_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(DefaultPostgresStartupTimeout),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start Postgres container: %w", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	// Wait for Postgres to accept connections
	if waitErr := waitForPostgres(ctx, dsn); waitErr != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to wait for Postgres: %w", waitErr)
	}

	return &PostgresContainer{
		Container: pgContainer,
		DSN:       dsn,
	}, nil
}

// Stop stops and removes the Postgres container.
func (c *PostgresContainer) Stop(ctx context.Context) error {
	if c.Container == nil {
		return nil
	}
	return c.Container.Terminate(ctx)
}

// Connect opens a sqlx connection to the container database.
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test Postgres: %w", err)
	}

	return db, nil
}

// waitForPostgres waits for Postgres to be ready by pinging it.
func waitForPostgres(ctx context.Context, dsn string) error {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	for range DefaultMaxRetries {
		if pingErr := db.PingContext(ctx); pingErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
			// Continue retrying
		}
	}

	return fmt.Errorf("postgres did not become ready within %d seconds", DefaultMaxRetries)
}
