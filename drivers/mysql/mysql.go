// Package mysql registers the MySQL / MariaDB dialect.
package mysql

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/types"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) DriverName() string { return "mysql" }

func (MySQL) Schemes() []string { return []string{"mysql", "mariadb"} }

// DSN accepts mysql://host:port/db?params urls (with or without a jdbc: prefix)
// as well as native go-sql-driver DSNs such as user:pass@tcp(host:3306)/db.
func (MySQL) DSN(cfg types.ConnectionConfig) (string, error) {
	raw := abstract.TrimJDBC(cfg.URL)

	var (
		mysqlCfg *mysql.Config
		err      error
	)
	switch abstract.Scheme(raw) {
	case "mysql", "mariadb":
		mysqlCfg, err = fromURL(raw)
	default:
		mysqlCfg, err = mysql.ParseDSN(raw)
	}
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql connection url: %s", err)
	}

	if mysqlCfg.User == "" && cfg.User != "" {
		mysqlCfg.User = cfg.User
		mysqlCfg.Passwd = cfg.Password
	}
	return mysqlCfg.FormatDSN(), nil
}

func fromURL(raw string) (*mysql.Config, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("tcp(%s)/%s", parsed.Host, strings.TrimPrefix(parsed.Path, "/"))
	if parsed.RawQuery != "" {
		dsn += "?" + parsed.RawQuery
	}
	mysqlCfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if parsed.User != nil {
		mysqlCfg.User = parsed.User.Username()
		mysqlCfg.Passwd, _ = parsed.User.Password()
	}
	return mysqlCfg, nil
}

func (MySQL) BindType() int { return sqlx.QUESTION }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func init() {
	abstract.Register(MySQL{})
}
