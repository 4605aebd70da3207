package protocol

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/crypto"
	"github.com/datazip-inc/rowsync/types"
	"github.com/spf13/cobra"
)

// encryptCmd seals a password into the ENC(...) form accepted by *.password.
// The key comes from ROWSYNC_ENCRYPTION_KEY.
var encryptCmd = &cobra.Command{
	Use:         "encrypt [value]",
	Short:       "Encrypt a password for the configuration file",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := types.NewViper("")
		if err != nil {
			return err
		}
		cipher, err := crypto.New(cmd.Context(), env.GetString(constants.EncryptionKey))
		if err != nil {
			return err
		}
		if cipher == nil {
			return fmt.Errorf("%w: %s_ENCRYPTION_KEY is not set", constants.ErrConfig, constants.EnvPrefix)
		}

		var value string
		if len(args) == 1 {
			value = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read value from stdin: %s", err)
			}
			value = strings.TrimRight(line, "\r\n")
		}

		sealed, err := cipher.Seal(cmd.Context(), value)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), sealed)
		return err
	},
}
