package destination_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/destination"
	"github.com/datazip-inc/rowsync/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backupDDL = "CREATE TABLE tgt (id INTEGER PRIMARY KEY, name TEXT, score REAL, note TEXT)"

func TestPreserverBackup(t *testing.T) {
	conn, _ := testutils.OpenSQLite(t, constants.Target,
		backupDDL,
		"INSERT INTO tgt VALUES (1, 'a', 1.5, NULL), (2, 'it''s', NULL, 'x')",
	)
	log, _ := testutils.Logger()
	var out bytes.Buffer

	count, err := destination.NewPreserver(&out, log).Backup(context.Background(), conn, "tgt")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var inserts []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if strings.HasPrefix(line, "INSERT") {
			inserts = append(inserts, line)
		}
	}
	assert.Equal(t, []string{
		`INSERT INTO tgt ("id", "name", "score", "note") VALUES (1, 'a', 1.5, NULL);`,
		`INSERT INTO tgt ("id", "name", "score", "note") VALUES (2, 'it''s', NULL, 'x');`,
	}, inserts)

	// the backup replays into an empty copy of the table
	restored, restoredCfg := testutils.OpenSQLite(t, constants.Target, backupDDL)
	_, err = restored.ExecContext(context.Background(), out.String())
	require.NoError(t, err)
	assert.Len(t, testutils.QueryRows(t, restoredCfg, "tgt"), 2)
}

func TestPreserverEmptyTable(t *testing.T) {
	conn, _ := testutils.OpenSQLite(t, constants.Target, backupDDL)
	log, _ := testutils.Logger()
	var out bytes.Buffer

	count, err := destination.NewPreserver(&out, log).Backup(context.Background(), conn, "tgt")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NotContains(t, out.String(), "INSERT")
}

func TestPreserverErrors(t *testing.T) {
	conn, _ := testutils.OpenSQLite(t, constants.Target, backupDDL)
	log, _ := testutils.Logger()

	for _, table := range []string{"missing", "tgt; DROP TABLE tgt", ""} {
		_, err := destination.NewPreserver(&bytes.Buffer{}, log).Backup(context.Background(), conn, table)
		assert.ErrorIs(t, err, constants.ErrBackup, table)
	}

	_, err := destination.NewPreserver(failingWriter{}, log).Backup(context.Background(), conn, "tgt")
	assert.ErrorIs(t, err, constants.ErrBackup)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestOpenBackupSink(t *testing.T) {
	now := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "backups", "tgt-{ts}.sql")

	sink, resolved, err := destination.OpenBackupSink(path, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "tgt-20240102T030405.sql"), resolved)

	_, err = sink.Write([]byte("-- hello\n"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	content, err := os.ReadFile(resolved)
	require.NoError(t, err)
	assert.Equal(t, "-- hello\n", string(content))

	stdout, name, err := destination.OpenBackupSink("", now)
	require.NoError(t, err)
	assert.Equal(t, "stdout", name)
	assert.NoError(t, stdout.Close())
}
