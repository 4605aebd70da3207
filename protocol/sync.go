package protocol

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/syncer"
	"github.com/datazip-inc/rowsync/telemetry"
	"github.com/datazip-inc/rowsync/utils/logger"
	"github.com/spf13/cobra"
)

var once bool

// syncCmd runs one cycle right away and then keeps running it on schedule
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync rows from source to target, then repeat daily",
	Long: `Sync runs one sync cycle immediately: optional backup and truncate of the target table,
then extraction from the source with batched upserts into the target. Unless --once is
given, the process keeps running and repeats the cycle at schedule.time every day.`,
	Example: `
// Run forever, first cycle now:
rowsync sync --config path/to/config.properties

// Single cycle, e.g. from an external scheduler:
rowsync sync --config path/to/config.properties --once
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logger.Logger()
		metrics := telemetry.NewMetrics()
		provider := abstract.NewSQLProvider(config.Job.OperationTimeout, log)
		runner := syncer.NewRunner(config, provider, NewConfirmer(config.Job, Attended()), log,
			syncer.WithMetrics(metrics),
			syncer.WithTracker(telemetry.NewTracker("", config.TelemetryEnabled), telemetry.ComputeConfigHash(config)),
		)

		// the initial cycle decides the exit code when it cannot even start
		_, err := runner.Run(ctx)
		if err != nil && (once || errors.Is(err, constants.ErrConfig) || errors.Is(err, constants.ErrConnection)) {
			return err
		}
		if once {
			return nil
		}

		scheduler, err := syncer.NewScheduler(runner, config.Schedule, log,
			syncer.WithRunAtStart(false),
			syncer.WithSchedulerMetrics(metrics),
		)
		if err != nil {
			return err
		}

		supervisor := newSupervisor(log)
		supervisor.Add(scheduler)
		if config.MetricsAddr != "" {
			supervisor.Add(&telemetry.Server{Addr: config.MetricsAddr, Metrics: metrics})
			logger.Infof("serving metrics on %s/metrics", config.MetricsAddr)
		}

		err = supervisor.Serve(ctx)
		if errors.Is(err, context.Canceled) {
			logger.Info("received shutdown signal, scheduler stopped")
			return nil
		}
		return err
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&once, "once", "", false, "(Optional) Run a single cycle and exit")
}
