package protocol

import (
	"fmt"
	"time"

	"github.com/datazip-inc/rowsync/syncer"
	"github.com/spf13/cobra"
)

// nextRunCmd prints when the scheduler would fire next
var nextRunCmd = &cobra.Command{
	Use:   "next-run",
	Short: "Print the next scheduled sync time",
	RunE: func(cmd *cobra.Command, _ []string) error {
		schedule, err := config.Schedule.Schedule()
		if err != nil {
			return err
		}
		now := time.Now()
		next := syncer.NextRun(now, schedule)
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (in %s)\n", next.Format(time.RFC3339), syncer.Delay(now, schedule).Round(time.Second))
		return err
	},
}
