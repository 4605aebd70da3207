//go:build integration

package syncer

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/destination"
	"github.com/datazip-inc/rowsync/drivers/abstract"
	_ "github.com/datazip-inc/rowsync/drivers/postgres"
	"github.com/datazip-inc/rowsync/types"
	"github.com/datazip-inc/rowsync/utils/testutils"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "rowsync",
				"POSTGRES_PASSWORD": "secret1234",
				"POSTGRES_DB":       "warehouse",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("jdbc:postgresql://%s:%s/warehouse?sslmode=disable", host, port.Port())
}

func TestPostgresTargetRoundTrip(t *testing.T) {
	ctx := context.Background()
	url := startPostgres(ctx, t)

	target := types.ConnectionConfig{Role: constants.Target, URL: url, User: "rowsync", Password: "secret1234"}
	log, logs := testutils.Logger()
	provider := abstract.NewSQLProvider(time.Minute, log)

	setup, err := provider.Open(ctx, target)
	require.NoError(t, err)
	_, err = setup.ExecContext(ctx, `CREATE TABLE users (id BIGINT PRIMARY KEY, name TEXT, synced_at TIMESTAMP DEFAULT now())`)
	require.NoError(t, err)
	_, err = setup.ExecContext(ctx, `INSERT INTO users (id, name) VALUES (100, 'o''stale')`)
	require.NoError(t, err)
	require.NoError(t, setup.Close())

	config := &types.Config{
		Source: testutils.SQLiteConfig(t, constants.Source, sourceSetup...),
		Target: target,
		Job: types.SyncJobConfig{
			SelectQuery:      selectQuery,
			MergeQuery:       "INSERT INTO users (id, name) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name",
			TruncateMode:     true,
			TruncateTable:    "public.users",
			TruncateQuery:    "TRUNCATE TABLE public.users",
			BatchMode:        true,
			BatchSize:        2,
			OperationTimeout: time.Minute,
		},
	}

	var backup testutils.SyncBuffer
	runner := NewRunner(config, provider, destination.FlagConfirmer(true), log,
		WithBackupSink(func(string, time.Time) (io.WriteCloser, string, error) {
			return nopWriteCloser{&backup}, "buffer", nil
		}),
	)

	result, err := runner.Run(ctx)
	require.NoError(t, err, logs.String())
	assert.Equal(t, 2, result.Commits)
	assert.Contains(t, backup.String(), `INSERT INTO public.users ("id", "name", "synced_at") VALUES (100, 'o''stale', '`)

	db, err := sqlx.Open("pgx", fmt.Sprintf("postgres://rowsync:secret1234@%s", url[len("jdbc:postgresql://"):]))
	require.NoError(t, err)
	defer db.Close()

	var rows []struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	require.NoError(t, db.SelectContext(ctx, &rows, "SELECT id, name FROM users ORDER BY id"))
	require.Len(t, rows, 3)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "c", rows[2].Name)
}
