//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
Test helpers for PostgreSQL with Testcontainers

- Starts a real PostgreSQL container
- Creates the webhooks schema
- Cleanup is returned to the caller
*/

const (
	defaultDatabase = "webhooks"
	defaultUser     = "testuser"
	defaultPassword = "testpass"
)

// SetupPostgresRepository starts a container and returns a ready repository
func SetupPostgresRepository(t testing.TB, ctx context.Context) (*Repository, func()) {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewRepository(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTable(ctx))

	cleanup := func() {
		_ = repo.Close(ctx)
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}

	return repo, cleanup
}
