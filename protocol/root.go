package protocol

import (
	"fmt"
	"strings"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/types"
	"github.com/datazip-inc/rowsync/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath string
	logLevel   string

	config *types.Config
	v      *viper.Viper

	commands = []*cobra.Command{}
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "rowsync",
	Short: "rowsync copies rows from a source database into a target database on a daily schedule",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return fmt.Errorf("'%s' is an invalid command. Use 'rowsync --help' to display usage guide", args[0])
	},
}

// skipConfig marks commands that run without a configuration file.
const skipConfig = "skip-config"

// loadConfig reads and validates the configuration, then points the logger
// at the configured sink. Nothing here touches a database.
func loadConfig() error {
	var err error
	v, err = types.NewViper(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		v.Set(constants.LogLevel, strings.ToLower(logLevel))
	}

	config, err = types.LoadConfig(v)
	if err != nil {
		return err
	}
	if err := logger.Init(config.Log); err != nil {
		return fmt.Errorf("%w: %s", constants.ErrConfig, err)
	}

	logger.Debugf("loaded configuration from %s", configPath)
	return nil
}

func CreateRootCommand() *cobra.Command {
	RootCmd.AddCommand(commands...)
	return RootCmd
}

func init() {
	commands = append(commands, syncCmd, checkCmd, backupCmd, specCmd, nextRunCmd, encryptCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", constants.DefaultConfigFile, "Path to the properties file")
	RootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "", "(Optional) Override log.level (trace, debug, info, warn, error)")
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
