// Package rowsync wires the command line together with every supported
// database dialect.
package rowsync

import (
	"os"

	_ "github.com/datazip-inc/rowsync/drivers/mssql"    // registering sql server dialect
	_ "github.com/datazip-inc/rowsync/drivers/mysql"    // registering mysql dialect
	_ "github.com/datazip-inc/rowsync/drivers/oracle"   // registering oracle dialect
	_ "github.com/datazip-inc/rowsync/drivers/postgres" // registering postgres dialect
	_ "github.com/datazip-inc/rowsync/drivers/sqlite"   // registering sqlite dialect
	"github.com/datazip-inc/rowsync/protocol"
	"github.com/datazip-inc/rowsync/utils/logger"
	"github.com/datazip-inc/rowsync/utils/safego"
)

// Execute runs the root command and exits the process: 0 on success, 1 on
// any error or panic.
func Execute() {
	defer safego.Recovery(true)

	// Execute the root command
	err := protocol.CreateRootCommand().Execute()
	if err != nil {
		logger.Fatal(err)
	}

	_ = logger.Close()
	os.Exit(0)
}
