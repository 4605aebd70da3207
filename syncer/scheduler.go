package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/telemetry"
	"github.com/datazip-inc/rowsync/types"
	"github.com/datazip-inc/rowsync/utils/safego"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Cycle is one end to end sync run.
type Cycle interface {
	Run(ctx context.Context) (types.SyncResult, error)
}

// Clock is the time source of the scheduler.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NextRun is the first occurrence of schedule strictly after now. For a daily
// anchor that is later today if the anchor has not passed yet, else tomorrow.
func NextRun(now time.Time, schedule cron.Schedule) time.Time {
	return schedule.Next(now)
}

// Delay is the time to wait from now until NextRun.
func Delay(now time.Time, schedule cron.Schedule) time.Duration {
	return NextRun(now, schedule).Sub(now)
}

// ScheduleState is the computed next fire instant.
type ScheduleState struct {
	Next  time.Time
	Delay time.Duration
}

// Scheduler fires the cycle at every occurrence of the schedule until its
// context ends. The next occurrence is recomputed from the clock after every
// firing. At most one cycle runs at a time.
type Scheduler struct {
	cycle      Cycle
	schedule   cron.Schedule
	overlap    string
	runAtStart bool
	clock      Clock
	metrics    *telemetry.Metrics
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
	queued  bool
	state   ScheduleState
	wg      sync.WaitGroup
}

type SchedulerOption func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(clock Clock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithRunAtStart fires the cycle once as soon as Serve starts.
func WithRunAtStart(enabled bool) SchedulerOption {
	return func(s *Scheduler) {
		s.runAtStart = enabled
	}
}

func WithSchedulerMetrics(metrics *telemetry.Metrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = metrics
	}
}

func NewScheduler(cycle Cycle, cfg types.ScheduleConfig, logger zerolog.Logger, opts ...SchedulerOption) (*Scheduler, error) {
	schedule, err := cfg.Schedule()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrConfig, err)
	}

	scheduler := &Scheduler{
		cycle:      cycle,
		schedule:   schedule,
		overlap:    cfg.Overlap,
		runAtStart: true,
		clock:      wallClock{},
		logger:     logger,
	}
	if scheduler.overlap == "" {
		scheduler.overlap = constants.OverlapSkip
	}
	for _, opt := range opts {
		opt(scheduler)
	}
	return scheduler, nil
}

// Serve runs until ctx is cancelled and waits for an in-flight cycle before
// returning. It satisfies suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	defer s.wg.Wait()

	if s.runAtStart {
		s.Trigger(ctx)
	}

	for {
		now := s.clock.Now()
		next := NextRun(now, s.schedule)
		s.mu.Lock()
		s.state = ScheduleState{Next: next, Delay: next.Sub(now)}
		s.mu.Unlock()
		s.logger.Info().Time("next_run", next).Dur("delay", next.Sub(now)).Msg("next sync scheduled")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
			s.Trigger(ctx)
		}
	}
}

// State returns the last computed schedule state.
func (s *Scheduler) State() ScheduleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trigger starts a cycle in the background. When one is already running the
// firing is skipped, or with queue overlap it runs right after the current
// one. Queued firings collapse into one.
func (s *Scheduler) Trigger(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		if s.overlap == constants.OverlapQueue {
			s.queued = true
			s.logger.Warn().Err(constants.ErrCycleInProgress).Msg("queueing the next firing")
			return
		}
		s.metrics.ObserveSkipped()
		s.logger.Warn().Err(constants.ErrCycleInProgress).Msg("skipping this firing")
		return
	}

	s.running = true
	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		s.fire(ctx)

		s.mu.Lock()
		if !s.queued || ctx.Err() != nil {
			s.running, s.queued = false, false
			s.mu.Unlock()
			return
		}
		s.queued = false
		s.mu.Unlock()
	}
}

// fire runs one cycle. Its error is already logged by the cycle; panics are
// recovered so the next firing still happens.
func (s *Scheduler) fire(ctx context.Context) {
	err := safego.Call(func() error {
		_, err := s.cycle.Run(ctx)
		return err
	})

	var panicErr *safego.PanicError
	if errors.As(err, &panicErr) {
		s.logger.Error().Interface("panic", panicErr.Value).Str("stack", panicErr.Stack).Msg("sync cycle panicked")
	}
}

func (s *Scheduler) String() string {
	return "sync-scheduler"
}
