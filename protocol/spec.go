package protocol

import (
	"fmt"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/types"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// KeySpec documents one configuration key.
type KeySpec struct {
	Key         string `json:"key"`
	Default     any    `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description"`
}

var keySpecs = []KeySpec{
	{Key: constants.SourceURL, Required: true, Description: "source connection url, jdbc: prefix accepted"},
	{Key: constants.SourceUser, Description: "source user, used when the url carries none"},
	{Key: constants.SourcePassword, Description: "source password"},
	{Key: constants.SourceDriver, Description: "source dialect, inferred from the url scheme when empty"},
	{Key: constants.TargetURL, Required: true, Description: "target connection url, jdbc: prefix accepted"},
	{Key: constants.TargetUser, Description: "target user, used when the url carries none"},
	{Key: constants.TargetPassword, Description: "target password"},
	{Key: constants.TargetDriver, Description: "target dialect, inferred from the url scheme when empty"},
	{Key: constants.SelectQuery, Required: true, Description: "source query returning the ID and NAME columns"},
	{Key: constants.MergeQuery, Required: true, Description: "target upsert with two ? parameters bound to (id, name)"},
	{Key: constants.TruncateMode, Description: "back up and truncate the target table before syncing"},
	{Key: constants.TruncateTable, Description: "table backed up before the truncate, required with truncate.mode"},
	{Key: constants.TruncateQuery, Description: "truncate statement, skipped with a warning when empty"},
	{Key: constants.TruncateConfirm, Description: "confirms the truncate without a prompt, required in unattended runs"},
	{Key: constants.BackupFile, Description: "file receiving the backup, {ts} expands to a timestamp, stdout when empty"},
	{Key: constants.BatchMode, Description: "commit every batch.size rows instead of every row"},
	{Key: constants.BatchSize, Description: "rows per commit in batch mode, must be positive"},
	{Key: constants.OperationTimeout, Description: "deadline of every single database operation"},
	{Key: constants.ScheduleTime, Description: "daily run time, HH:MM in local time"},
	{Key: constants.ScheduleCron, Description: "cron expression replacing schedule.time"},
	{Key: constants.ScheduleOverlap, Description: "skip or queue a firing that comes due while a cycle runs"},
	{Key: constants.LogFile, Description: "log file, console only when empty"},
	{Key: constants.LogLevel, Description: "trace, debug, info, warn or error"},
	{Key: constants.LogPolicy, Description: "size rotates the log file, none appends forever"},
	{Key: constants.LogMaxFileSize, Description: "megabytes before the log file is rotated"},
	{Key: constants.LogMaxBackups, Description: "rotated log files kept"},
	{Key: constants.MetricsAddr, Description: "listen address of the Prometheus /metrics endpoint, disabled when empty"},
	{Key: constants.TelemetryEnabled, Description: "keep per configuration success and failure counts on disk"},
	{Key: constants.EncryptionKey, Description: "passphrase or AWS KMS key arn decrypting ENC(...) passwords, best set as ROWSYNC_ENCRYPTION_KEY"},
}

// Spec returns every configuration key with its default.
func Spec() []KeySpec {
	defaults := viper.New()
	types.SetDefaults(defaults)

	specs := make([]KeySpec, len(keySpecs))
	for i, spec := range keySpecs {
		if defaults.IsSet(spec.Key) {
			spec.Default = defaults.Get(spec.Key)
			if duration, ok := spec.Default.(fmt.Stringer); ok {
				spec.Default = duration.String()
			}
		}
		specs[i] = spec
	}
	return specs
}

// specCmd prints the configuration keys
var specCmd = &cobra.Command{
	Use:         "spec",
	Short:       "Print the configuration keys and their defaults as JSON",
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := json.MarshalIndent(Spec(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal spec: %s", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}
