// Package mssql registers the Microsoft SQL Server dialect.
package mssql

import (
	"net/url"
	"strings"

	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/types"
	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" database/sql driver
)

// jdbc property names that differ from their go-mssqldb counterparts
var jdbcProperties = map[string]string{
	"databasename": "database",
	"user":         "user id",
}

type MSSQL struct{}

func (MSSQL) Name() string { return "mssql" }

func (MSSQL) DriverName() string { return "sqlserver" }

func (MSSQL) Schemes() []string { return []string{"sqlserver", "mssql"} }

// DSN accepts sqlserver:// urls and jdbc style urls whose properties are
// separated by semicolons (jdbc:sqlserver://host:1433;databaseName=db).
func (MSSQL) DSN(cfg types.ConnectionConfig) (string, error) {
	raw := abstract.TrimJDBC(cfg.URL)
	if strings.HasPrefix(strings.ToLower(raw), "mssql:") {
		raw = "sqlserver:" + raw[len("mssql:"):]
	}

	parts := strings.Split(raw, ";")
	parsed, err := url.Parse(parts[0])
	if err != nil {
		return "", err
	}

	query := parsed.Query()
	for _, property := range parts[1:] {
		key, value, found := strings.Cut(property, "=")
		if !found || key == "" {
			continue
		}
		if mapped, ok := jdbcProperties[strings.ToLower(key)]; ok {
			key = mapped
		}
		query.Set(key, value)
	}
	parsed.RawQuery = query.Encode()

	return abstract.WithCredentials(parsed.String(), cfg.User, cfg.Password)
}

func (MSSQL) BindType() int { return sqlx.AT }

func (MSSQL) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func init() {
	abstract.Register(MSSQL{})
}
