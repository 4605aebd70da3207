// Package syncer drives sync cycles: Runner executes one cycle end to end and
// Scheduler re-runs it at the configured time of day.
package syncer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/destination"
	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/pkg/jdbc"
	"github.com/datazip-inc/rowsync/telemetry"
	"github.com/datazip-inc/rowsync/types"
	"github.com/datazip-inc/rowsync/utils"
	"github.com/oklog/ulid"
	"github.com/rs/zerolog"
)

// Phase is a state of one sync cycle.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseBackup   Phase = "backup"
	PhaseTruncate Phase = "truncate"
	PhaseSync     Phase = "sync"
	PhaseDone     Phase = "done"
	PhaseFailed   Phase = "failed"
)

// SinkOpener opens the backup sink for one cycle.
type SinkOpener func(path string, now time.Time) (io.WriteCloser, string, error)

type RunnerOption func(*Runner)

func WithMetrics(metrics *telemetry.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// WithTracker records every cycle result against configHash.
func WithTracker(tracker *telemetry.Tracker, configHash string) RunnerOption {
	return func(r *Runner) {
		r.tracker = tracker
		r.configHash = configHash
	}
}

func WithBackupSink(opener SinkOpener) RunnerOption {
	return func(r *Runner) {
		r.openSink = opener
	}
}

// Runner executes one sync cycle per Run call. It holds no connection
// between cycles.
type Runner struct {
	config    *types.Config
	provider  abstract.Provider
	confirmer destination.Confirmer
	logger    zerolog.Logger

	metrics    *telemetry.Metrics
	tracker    *telemetry.Tracker
	configHash string
	openSink   SinkOpener
	now        func() time.Time
}

func NewRunner(config *types.Config, provider abstract.Provider, confirmer destination.Confirmer, logger zerolog.Logger, opts ...RunnerOption) *Runner {
	runner := &Runner{
		config:    config,
		provider:  provider,
		confirmer: confirmer,
		logger:    logger,
		openSink:  destination.OpenBackupSink,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes Init, the optional Backup and Truncate phases, then extraction
// with batched upserts. Connections are released on every exit path. A failed
// backup or truncate aborts the cycle before anything is synced.
func (r *Runner) Run(ctx context.Context) (result types.SyncResult, err error) {
	start := r.now()
	log := r.logger.With().Str("cycle", ulid.MustNew(ulid.Timestamp(start), rand.Reader).String()).Logger()
	phase := PhaseInit
	enter := func(next Phase) {
		phase = next
		log.Info().Str("phase", string(phase)).Msg("entering phase")
	}

	log.Info().Str("phase", string(phase)).Msg("sync cycle started")
	defer func() {
		elapsed := time.Since(start)
		r.metrics.ObserveCycle(result, elapsed, err)
		if _, terr := r.tracker.TrackSyncResult(r.configHash, err == nil); terr != nil {
			log.Warn().Err(terr).Msg("failed to record telemetry")
		}

		if err != nil {
			r.logFailure(log, phase, result, err)
			return
		}
		log.Info().
			Str("phase", string(PhaseDone)).
			Int("rows_processed", result.RowsProcessed).
			Int("rows_committed", result.RowsCommitted).
			Int("commits", result.Commits).
			Dur("duration", elapsed).
			Msg("sync cycle completed")
	}()

	source, err := r.provider.Open(ctx, r.config.Source)
	if err != nil {
		return result, err
	}
	defer release(log, source)

	target, err := r.provider.Open(ctx, r.config.Target)
	if err != nil {
		return result, err
	}
	defer release(log, target)

	job := r.config.Job
	if job.TruncateMode {
		enter(PhaseBackup)
		if err := r.backup(ctx, log, target); err != nil {
			return result, err
		}

		enter(PhaseTruncate)
		guard := destination.NewTruncateGuard(r.confirmer, log)
		if err := guard.Truncate(ctx, target, job.TruncateQuery); err != nil {
			return result, err
		}
	}

	enter(PhaseSync)
	stream, err := jdbc.Extract(ctx, source, job.SelectQuery)
	if err != nil {
		return result, err
	}
	defer stream.Close()

	upserter := destination.NewUpserter(job, log)
	return upserter.Apply(ctx, target, job.MergeQuery, stream.All())
}

func (r *Runner) backup(ctx context.Context, log zerolog.Logger, target *abstract.Conn) error {
	sink, path, err := r.openSink(r.config.Job.BackupFile, r.now())
	if err != nil {
		return err
	}
	log.Info().Str("table", r.config.Job.TruncateTable).Str("sink", path).Msg("backing up target table")

	_, err = destination.NewPreserver(sink, log).Backup(ctx, target, r.config.Job.TruncateTable)
	if cerr := sink.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: failed to close backup sink %s: %s", constants.ErrBackup, path, cerr)
	}
	return err
}

func (r *Runner) logFailure(log zerolog.Logger, phase Phase, result types.SyncResult, err error) {
	event := log.Error().
		Err(err).
		Str("phase", string(PhaseFailed)).
		Str("failed_in", string(phase)).
		Int("rows_committed", result.RowsCommitted)

	var syncErr *types.SyncError
	if errors.As(err, &syncErr) {
		event = event.Str("statement", syncErr.Statement).Str("bound_statement", syncErr.Rendered)
		if syncErr.HasRow {
			event = event.Int64("row_id", syncErr.Row.ID).Str("row", syncErr.Row.String())
		}
	}
	switch phase {
	case PhaseSync:
		event = event.Str("select_query", r.config.Job.SelectQuery)
	case PhaseTruncate:
		event = event.Str("truncate_query", r.config.Job.TruncateQuery)
	}
	event.Msg("sync cycle failed")
}

func release(log zerolog.Logger, conn *abstract.Conn) {
	if err := utils.CloseAll(conn); err != nil {
		log.Warn().Err(err).Str("role", string(conn.Role)).Msg("failed to release connection")
		return
	}
	log.Debug().Str("role", string(conn.Role)).Msg("connection released")
}
