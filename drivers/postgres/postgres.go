// Package postgres registers the PostgreSQL dialect, backed by pgx.
package postgres

import (
	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/types"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) DriverName() string { return "pgx" }

func (Postgres) Schemes() []string { return []string{"postgres", "postgresql"} }

// DSN accepts postgres:// and jdbc:postgresql:// urls; user and password are
// added to the url unless it already names a user.
func (Postgres) DSN(cfg types.ConnectionConfig) (string, error) {
	return abstract.WithCredentials(cfg.URL, cfg.User, cfg.Password)
}

func (Postgres) BindType() int { return sqlx.DOLLAR }

func (Postgres) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func init() {
	abstract.Register(Postgres{})
}
