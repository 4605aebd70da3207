// Package testutils holds helpers shared by package tests. It opens real
// SQLite databases so the SQL paths run unmodified.
package testutils

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"iter"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/drivers/abstract"
	_ "github.com/datazip-inc/rowsync/drivers/sqlite"
	"github.com/datazip-inc/rowsync/types"
	"github.com/datazip-inc/rowsync/utils/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// SyncBuffer is a bytes.Buffer safe for use as a log sink across goroutines.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Logger returns a logger capturing into the returned buffer.
func Logger() (zerolog.Logger, *SyncBuffer) {
	buf := &SyncBuffer{}
	return logger.New(buf), buf
}

// SQLiteConfig returns the connection config of a new database file in the
// test's temp dir, after running the setup statements against it.
func SQLiteConfig(t *testing.T, role constants.Role, setup ...string) types.ConnectionConfig {
	t.Helper()

	path := filepath.Join(t.TempDir(), fmt.Sprintf("%s.db", role))
	cfg := types.ConnectionConfig{Role: role, URL: "sqlite://" + path}
	Exec(t, cfg, setup...)
	return cfg
}

// Exec runs statements against the database behind cfg on a separate connection.
func Exec(t *testing.T, cfg types.ConnectionConfig, statements ...string) {
	t.Helper()

	dsn, err := sqliteDialect(t).DSN(cfg)
	require.NoError(t, err)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "statement: %s", stmt)
	}
}

// OpenSQLite opens a connection handle on a new SQLite database file. The
// handle is closed when the test ends.
func OpenSQLite(t *testing.T, role constants.Role, setup ...string) (*abstract.Conn, types.ConnectionConfig) {
	t.Helper()

	cfg := SQLiteConfig(t, role, setup...)
	log, _ := Logger()
	conn, err := abstract.NewSQLProvider(time.Minute, log).Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, cfg
}

// QueryRows reads (id, name) pairs from the database behind cfg with a
// separate connection, ordered by id.
func QueryRows(t *testing.T, cfg types.ConnectionConfig, table string) []types.Row {
	t.Helper()

	dsn, err := sqliteDialect(t).DSN(cfg)
	require.NoError(t, err)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT id, name FROM %s ORDER BY id", table))
	require.NoError(t, err)
	defer rows.Close()

	var result []types.Row
	for rows.Next() {
		var row types.Row
		require.NoError(t, rows.Scan(&row.ID, &row.Name))
		result = append(result, row)
	}
	require.NoError(t, rows.Err())
	return result
}

func sqliteDialect(t *testing.T) abstract.Dialect {
	t.Helper()
	dialect, err := abstract.Lookup(types.ConnectionConfig{Driver: "sqlite"})
	require.NoError(t, err)
	return dialect
}

// Rows turns a fixed list into the row sequence shape the upserter consumes.
func Rows(rows ...types.Row) iter.Seq2[types.Row, error] {
	return func(yield func(types.Row, error) bool) {
		for _, row := range rows {
			if !yield(row, nil) {
				return
			}
		}
	}
}

// FailingRows yields rows and then err.
func FailingRows(err error, rows ...types.Row) iter.Seq2[types.Row, error] {
	return func(yield func(types.Row, error) bool) {
		for _, row := range rows {
			if !yield(row, nil) {
				return
			}
		}
		yield(types.Row{}, err)
	}
}
