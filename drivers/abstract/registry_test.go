package abstract_test

import (
	"testing"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/drivers/abstract"
	_ "github.com/datazip-inc/rowsync/drivers/mssql"
	_ "github.com/datazip-inc/rowsync/drivers/mysql"
	_ "github.com/datazip-inc/rowsync/drivers/oracle"
	_ "github.com/datazip-inc/rowsync/drivers/postgres"
	_ "github.com/datazip-inc/rowsync/drivers/sqlite"
	"github.com/datazip-inc/rowsync/types"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialects(t *testing.T) {
	assert.Equal(t, []string{"mssql", "mysql", "oracle", "postgres", "sqlite"}, abstract.Dialects())
}

func TestScheme(t *testing.T) {
	assert.Equal(t, "postgresql", abstract.Scheme("jdbc:postgresql://db/app"))
	assert.Equal(t, "sqlserver", abstract.Scheme("JDBC:SQLServer://db;databaseName=dw"))
	assert.Equal(t, "", abstract.Scheme("no-scheme"))
	assert.Equal(t, "postgres://db", abstract.TrimJDBC("jdbc:postgres://db"))
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.ConnectionConfig
		dialect string
	}{
		{"jdbc_postgres", types.ConnectionConfig{URL: "jdbc:postgresql://db:5432/app"}, "postgres"},
		{"postgres", types.ConnectionConfig{URL: "postgres://db/app"}, "postgres"},
		{"mariadb", types.ConnectionConfig{URL: "mariadb://db/app"}, "mysql"},
		{"sqlserver", types.ConnectionConfig{URL: "jdbc:sqlserver://db:1433;databaseName=dw"}, "mssql"},
		{"oracle_thin", types.ConnectionConfig{URL: "jdbc:oracle:thin:@db:1521/ORCL"}, "oracle"},
		{"sqlite", types.ConnectionConfig{URL: "sqlite:///tmp/app.db"}, "sqlite"},
		{"explicit_driver", types.ConnectionConfig{Driver: "MySQL", URL: "user:pass@tcp(db:3306)/app"}, "mysql"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dialect, err := abstract.Lookup(tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.dialect, dialect.Name())
		})
	}

	_, err := abstract.Lookup(types.ConnectionConfig{Role: constants.Source, Driver: "db2", URL: "db2://db"})
	assert.ErrorIs(t, err, constants.ErrConfig)
	assert.ErrorContains(t, err, "source.driver")

	_, err = abstract.Lookup(types.ConnectionConfig{Role: constants.Target, URL: "redis://cache"})
	assert.ErrorIs(t, err, constants.ErrConfig)
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.ConnectionConfig
		contains []string
	}{
		{
			name:     "postgres_credentials",
			cfg:      types.ConnectionConfig{URL: "jdbc:postgresql://db:5432/app?sslmode=disable", User: "u", Password: "p"},
			contains: []string{"postgresql://u:p@db:5432/app?sslmode=disable"},
		},
		{
			name:     "postgres_url_user_wins",
			cfg:      types.ConnectionConfig{URL: "postgres://owner:pw@db/app", User: "u", Password: "p"},
			contains: []string{"postgres://owner:pw@db/app"},
		},
		{
			name:     "mysql_url",
			cfg:      types.ConnectionConfig{URL: "jdbc:mysql://db:3306/app?parseTime=true", User: "u", Password: "p"},
			contains: []string{"u:p@tcp(db:3306)/app", "parseTime=true"},
		},
		{
			name:     "mysql_native",
			cfg:      types.ConnectionConfig{Driver: "mysql", URL: "tcp(db:3306)/app", User: "u", Password: "p"},
			contains: []string{"u:p@tcp(db:3306)/app"},
		},
		{
			name:     "mssql_jdbc_properties",
			cfg:      types.ConnectionConfig{URL: "jdbc:sqlserver://db:1433;databaseName=dw;encrypt=false", User: "sa", Password: "x"},
			contains: []string{"sqlserver://sa:x@db:1433?database=dw&encrypt=false"},
		},
		{
			name:     "oracle_service",
			cfg:      types.ConnectionConfig{URL: "jdbc:oracle:thin:@//db:1521/ORCL", User: "scott", Password: "tiger"},
			contains: []string{"oracle://scott:tiger@db:1521/ORCL"},
		},
		{
			name:     "oracle_sid",
			cfg:      types.ConnectionConfig{URL: "jdbc:oracle:thin:@db:1521:XE", User: "scott", Password: "tiger"},
			contains: []string{"db:1521", "SID=XE"},
		},
		{
			name:     "sqlite_path",
			cfg:      types.ConnectionConfig{URL: "sqlite:///tmp/app.db"},
			contains: []string{"/tmp/app.db"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dialect, err := abstract.Lookup(tc.cfg)
			require.NoError(t, err)
			dsn, err := dialect.DSN(tc.cfg)
			require.NoError(t, err)
			for _, part := range tc.contains {
				assert.Contains(t, dsn, part)
			}
		})
	}

	oracle, err := abstract.Lookup(types.ConnectionConfig{Driver: "oracle"})
	require.NoError(t, err)
	_, err = oracle.DSN(types.ConnectionConfig{URL: "jdbc:oracle:thin:@db:port/ORCL"})
	assert.ErrorContains(t, err, "invalid oracle port")
}

func TestDialectBinding(t *testing.T) {
	const merge = "MERGE INTO t USING (SELECT ? id, ? name) s ON (t.id = s.id)"
	tests := []struct {
		driver string
		bound  string
		quoted string
	}{
		{"postgres", "SELECT $1 id, $2 name", `"we""ird"`},
		{"mysql", "SELECT ? id, ? name", "`we\"ird`"},
		{"mssql", "SELECT @p1 id, @p2 name", `[we"ird]`},
		{"oracle", "SELECT :arg1 id, :arg2 name", `"we""ird"`},
		{"sqlite", "SELECT ? id, ? name", `"we""ird"`},
	}
	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			dialect, err := abstract.Lookup(types.ConnectionConfig{Driver: tc.driver})
			require.NoError(t, err)
			assert.Contains(t, sqlx.Rebind(dialect.BindType(), merge), tc.bound)
			assert.Equal(t, tc.quoted, dialect.QuoteIdentifier(`we"ird`))
		})
	}
}
