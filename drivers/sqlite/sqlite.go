// Package sqlite registers the SQLite dialect, backed by modernc.org/sqlite.
package sqlite

import (
	"strings"

	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/types"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) DriverName() string { return "sqlite" }

func (SQLite) Schemes() []string { return []string{"sqlite", "file"} }

// DSN maps sqlite:///path/to.db and sqlite:path/to.db to the file path and
// passes file: uris through untouched. Credentials are ignored.
func (SQLite) DSN(cfg types.ConnectionConfig) (string, error) {
	raw := abstract.TrimJDBC(cfg.URL)
	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		return strings.TrimPrefix(raw, "sqlite://"), nil
	case strings.HasPrefix(raw, "sqlite:"):
		return strings.TrimPrefix(raw, "sqlite:"), nil
	default:
		return raw, nil
	}
}

func (SQLite) BindType() int { return sqlx.QUESTION }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func init() {
	abstract.Register(SQLite{})
}
