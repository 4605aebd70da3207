package destination

import (
	"context"
	"fmt"
	"strings"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/rs/zerolog"
)

// TruncateGuard runs the configured truncate statement once the confirmer
// agrees. A nil confirmer declines.
type TruncateGuard struct {
	confirmer Confirmer
	logger    zerolog.Logger
}

func NewTruncateGuard(confirmer Confirmer, logger zerolog.Logger) *TruncateGuard {
	if confirmer == nil {
		confirmer = FlagConfirmer(false)
	}
	return &TruncateGuard{confirmer: confirmer, logger: logger}
}

// Truncate executes query in its own transaction and commits. An empty query
// is a no-op. A declined confirmation returns constants.ErrTruncateNotConfirmed
// and a failing statement an error wrapping constants.ErrTruncate.
func (g *TruncateGuard) Truncate(ctx context.Context, target Target, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		g.logger.Warn().Msg("truncate mode is set but truncate.query is empty, skipping truncate")
		return nil
	}

	confirmed, err := g.confirmer.Confirm(ctx, fmt.Sprintf("Execute %q against the target database?", query))
	if err != nil {
		return fmt.Errorf("%w: confirmation failed: %w", constants.ErrTruncateNotConfirmed, err)
	}
	if !confirmed {
		g.logger.Warn().Str("statement", query).Msg("truncate was not confirmed")
		return fmt.Errorf("%w: %s", constants.ErrTruncateNotConfirmed, query)
	}

	opCtx, cancel := target.OpContext(ctx)
	defer cancel()

	tx, err := target.BeginTx(opCtx)
	if err != nil {
		return g.failed(query, fmt.Errorf("failed to begin transaction: %w", err))
	}
	result, err := tx.ExecContext(opCtx, query)
	if err != nil {
		target.Rollback(tx)
		return g.failed(query, err)
	}
	if err := tx.Commit(); err != nil {
		return g.failed(query, fmt.Errorf("failed to commit: %w", err))
	}

	event := g.logger.Info().Str("statement", query)
	if affected, err := result.RowsAffected(); err == nil {
		event = event.Int64("rows_affected", affected)
	}
	event.Msg("truncate executed")
	return nil
}

func (g *TruncateGuard) failed(query string, err error) error {
	g.logger.Error().Err(err).Str("statement", query).Msg("truncate failed")
	return fmt.Errorf("%w: statement [%s]: %w", constants.ErrTruncate, query, err)
}
