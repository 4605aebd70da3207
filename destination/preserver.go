package destination

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/pkg/jdbc"
	"github.com/datazip-inc/rowsync/utils"
	"github.com/rs/zerolog"
)

// Preserver writes a logical backup of a table as INSERT statements. The
// snapshot is not isolated from concurrent writers.
type Preserver struct {
	sink   io.Writer
	logger zerolog.Logger
}

func NewPreserver(sink io.Writer, logger zerolog.Logger) *Preserver {
	return &Preserver{sink: sink, logger: logger}
}

// Backup emits one reconstruction statement per row of table and returns the
// number of rows written. Any failure wraps constants.ErrBackup.
func (p *Preserver) Backup(ctx context.Context, target Target, table string) (int, error) {
	if err := utils.ValidateTableName(table); err != nil {
		return 0, fmt.Errorf("%w: %s", constants.ErrBackup, err)
	}

	query := jdbc.SelectAllQuery(table)
	rows, err := jdbc.Open(ctx, target, query)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to query %s: %s", constants.ErrBackup, table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read columns of %s: %s", constants.ErrBackup, table, err)
	}
	quoted := jdbc.QuoteColumns(columns, target.QuoteIdentifier)

	out := bufio.NewWriter(p.sink)
	if _, err := fmt.Fprintf(out, "-- backup of %s taken at %s\n", table, time.Now().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("%w: %s", constants.ErrBackup, err)
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range dest {
		dest[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return count, fmt.Errorf("%w: failed to scan row %d of %s: %s", constants.ErrBackup, count+1, table, err)
		}
		if _, err := fmt.Fprintln(out, jdbc.InsertStatement(table, quoted, values)); err != nil {
			return count, fmt.Errorf("%w: failed to write backup: %s", constants.ErrBackup, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("%w: %s", constants.ErrBackup, err)
	}
	if err := out.Flush(); err != nil {
		return count, fmt.Errorf("%w: failed to flush backup: %s", constants.ErrBackup, err)
	}

	p.logger.Info().Str("table", table).Int("rows", count).Msg("table backup complete")
	return count, nil
}

// syncedFile flushes the file to stable storage on Close.
type syncedFile struct {
	*os.File
}

func (f syncedFile) Close() error {
	if err := f.File.Sync(); err != nil {
		_ = f.File.Close()
		return err
	}
	return f.File.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// OpenBackupSink opens the sink reconstruction statements are written to.
// An empty path selects stdout; a {ts} token in path is replaced by now.
// It returns the resolved path ("stdout" for the console).
func OpenBackupSink(path string, now time.Time) (io.WriteCloser, string, error) {
	if path == "" {
		return nopCloser{os.Stdout}, "stdout", nil
	}

	resolved := strings.ReplaceAll(path, constants.BackupTimestampToken, now.Format(constants.BackupTimestampLayout))
	if dir := filepath.Dir(resolved); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, resolved, fmt.Errorf("%w: failed to create backup directory: %s", constants.ErrBackup, err)
		}
	}

	file, err := os.OpenFile(resolved, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, resolved, fmt.Errorf("%w: failed to open backup file: %s", constants.ErrBackup, err)
	}
	return syncedFile{file}, resolved, nil
}
