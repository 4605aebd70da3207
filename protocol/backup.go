package protocol

import (
	"fmt"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/destination"
	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/utils"
	"github.com/datazip-inc/rowsync/utils/logger"
	"github.com/spf13/cobra"
)

var (
	backupTable string
	backupFile  string
)

// backupCmd writes the reconstruction statements of a target table without
// truncating it
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the target table as INSERT statements",
	Example: `
rowsync backup --config path/to/config.properties --table app.users --file backups/users-{ts}.sql
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table := utils.Ternary(backupTable != "", backupTable, config.Job.TruncateTable)
		if table == "" {
			return fmt.Errorf("%w: no table given, set --table or truncate.table", constants.ErrConfig)
		}
		path := utils.Ternary(backupFile != "", backupFile, config.Job.BackupFile)

		provider := abstract.NewSQLProvider(config.Job.OperationTimeout, logger.Logger())
		target, err := provider.Open(cmd.Context(), config.Target)
		if err != nil {
			return err
		}
		defer target.Close()

		sink, resolved, err := destination.OpenBackupSink(path, time.Now())
		if err != nil {
			return err
		}

		count, err := destination.NewPreserver(sink, logger.Logger()).Backup(cmd.Context(), target, table)
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %s", constants.ErrBackup, cerr)
		}
		if err != nil {
			return err
		}
		logger.Infof("wrote %d rows of %s to %s", count, table, resolved)
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVarP(&backupTable, "table", "", "", "(Optional) Table to back up, defaults to truncate.table")
	backupCmd.Flags().StringVarP(&backupFile, "file", "", "", "(Optional) Output file, defaults to backup.file or stdout")
}
