package abstract

import (
	"context"

	"github.com/datazip-inc/rowsync/types"
)

// Dialect knows how to reach one database flavour through database/sql.
type Dialect interface {
	// Name is the value accepted in source.driver / target.driver.
	Name() string
	// DriverName is the database/sql driver the dialect opens.
	DriverName() string
	// Schemes are the url schemes that select this dialect when no driver is configured.
	Schemes() []string
	// DSN turns the configured url, user and password into a driver DSN.
	DSN(cfg types.ConnectionConfig) (string, error)
	// BindType is the sqlx bind type placeholders are rebound to.
	BindType() int
	QuoteIdentifier(name string) string
}

// Provider yields a live connection for a source or target configuration.
type Provider interface {
	Open(ctx context.Context, cfg types.ConnectionConfig) (*Conn, error)
}
