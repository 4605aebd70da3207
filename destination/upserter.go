package destination

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/datazip-inc/rowsync/pkg/jdbc"
	"github.com/datazip-inc/rowsync/types"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Upserter applies the merge statement to every extracted row and commits in
// batches. With batch mode off every row is committed on its own.
type Upserter struct {
	BatchMode bool
	BatchSize int

	logger zerolog.Logger
}

func NewUpserter(cfg types.SyncJobConfig, logger zerolog.Logger) *Upserter {
	return &Upserter{
		BatchMode: cfg.BatchMode,
		BatchSize: cfg.BatchSize,
		logger:    logger,
	}
}

// batch is the open transaction with its prepared merge statement.
type batch struct {
	tx      *sqlx.Tx
	stmt    *sqlx.Stmt
	cancel  context.CancelFunc
	pending int
}

// Apply drains rows into the target. Every commit boundary is a full batch or
// the end of the stream. On failure the open batch is rolled back, earlier
// commits are kept and the returned result counts only committed work.
func (u *Upserter) Apply(ctx context.Context, target Target, mergeQuery string, rows iter.Seq2[types.Row, error]) (types.SyncResult, error) {
	start := time.Now()
	result := types.SyncResult{}

	query := target.Rebind(mergeQuery)
	size := u.BatchSize
	if !u.BatchMode {
		size = 1
	}
	if size <= 0 {
		return result, fmt.Errorf("invalid batch size %d", size)
	}

	var (
		open    *batch
		lastRow types.Row
		hasRow  bool
	)
	fail := func(err error) (types.SyncResult, error) {
		u.abort(target, open)
		result.Duration = time.Since(start)
		return result, &types.SyncError{
			Row:       lastRow,
			HasRow:    hasRow,
			Statement: mergeQuery,
			Rendered:  jdbc.RenderStatement(query, lastRow.Args()),
			Committed: result.RowsCommitted,
			Err:       err,
		}
	}

	for row, err := range rows {
		if err != nil {
			// extraction failures keep their own type, the open batch is still discarded
			u.abort(target, open)
			result.Duration = time.Since(start)
			return result, err
		}
		lastRow, hasRow = row, true
		result.RowsProcessed++

		if open == nil {
			open, err = u.begin(ctx, target, query)
			if err != nil {
				return fail(err)
			}
		}

		execCtx, cancel := target.OpContext(ctx)
		_, err = open.stmt.ExecContext(execCtx, row.Args()...)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("failed to execute merge: %w", err))
		}
		open.pending++

		if open.pending == size {
			if err := u.commit(open, &result); err != nil {
				open = nil
				return fail(err)
			}
			open = nil
		}
	}

	// partial batch at end of stream
	if open != nil {
		if err := u.commit(open, &result); err != nil {
			return fail(err)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (u *Upserter) begin(ctx context.Context, target Target, query string) (*batch, error) {
	// the batch transaction, its commit included, runs under one operation deadline
	txCtx, cancel := target.OpContext(ctx)
	tx, err := target.BeginTx(txCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PreparexContext(txCtx, query)
	if err != nil {
		target.Rollback(tx)
		cancel()
		return nil, fmt.Errorf("failed to prepare merge: %w", err)
	}
	return &batch{tx: tx, stmt: stmt, cancel: cancel}, nil
}

func (u *Upserter) commit(b *batch, result *types.SyncResult) error {
	defer b.cancel()
	_ = b.stmt.Close()
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch of %d rows: %w", b.pending, err)
	}

	result.Commits++
	result.RowsCommitted += b.pending
	u.logger.Debug().Int("rows", b.pending).Int("total", result.RowsCommitted).Int("commit", result.Commits).Msg("batch committed")
	return nil
}

func (u *Upserter) abort(target Target, b *batch) {
	if b == nil {
		return
	}
	defer b.cancel()
	_ = b.stmt.Close()
	target.Rollback(b.tx)
	if b.pending > 0 {
		u.logger.Warn().Int("rows", b.pending).Msg("discarded uncommitted batch")
	}
}
