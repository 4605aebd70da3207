package protocol

import (
	"context"
	"fmt"

	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/types"
	"github.com/datazip-inc/rowsync/utils"
	"github.com/datazip-inc/rowsync/utils/logger"
	"github.com/spf13/cobra"
)

// checkCmd validates the configuration and pings source and target
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and test both connections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		provider := abstract.NewSQLProvider(config.Job.OperationTimeout, logger.Logger())

		err := utils.ErrExec(cmd.Context(),
			utils.ErrExecFormat("source check failed: %w", ping(provider, config.Source)),
			utils.ErrExecFormat("target check failed: %w", ping(provider, config.Target)),
		)
		if err != nil {
			logger.Errorf("connection check failed: %s", err)
			return err
		}
		logger.Info("connection check succeeded for source and target")
		return nil
	},
}

func ping(provider abstract.Provider, cfg types.ConnectionConfig) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		conn, err := provider.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("ping %s [%s]: %w", cfg.Role, cfg.Redacted(), err)
		}
		logger.Infof("%s reachable with dialect %s", cfg.Role, conn.Dialect.Name())
		return nil
	}
}
