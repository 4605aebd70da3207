package abstract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/types"
	"github.com/datazip-inc/rowsync/utils"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const pingTimeout = 2 * time.Minute

// Conn is the connection handle of one cycle: a single dedicated connection
// taken from a private pool. It must be released with Close on every exit path.
type Conn struct {
	Role    constants.Role
	Dialect Dialect

	db      *sqlx.DB
	conn    *sqlx.Conn
	timeout time.Duration
	logger  zerolog.Logger
}

// SQLProvider opens connections through database/sql using the registered dialects.
type SQLProvider struct {
	// OperationTimeout bounds every single database round trip; zero disables it.
	OperationTimeout time.Duration
	Logger           zerolog.Logger
}

func NewSQLProvider(operationTimeout time.Duration, logger zerolog.Logger) *SQLProvider {
	return &SQLProvider{OperationTimeout: operationTimeout, Logger: logger}
}

// Open resolves the dialect, opens the pool, pings it and pins one connection.
func (p *SQLProvider) Open(ctx context.Context, cfg types.ConnectionConfig) (*Conn, error) {
	dialect, err := Lookup(cfg)
	if err != nil {
		return nil, err
	}

	dsn, err := dialect.DSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", constants.ErrConfig, cfg.Role, err)
	}

	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s database: %s", constants.ErrConnection, cfg.Role, err)
	}

	timeout := utils.Ternary(p.OperationTimeout > 0, min(p.OperationTimeout, pingTimeout), pingTimeout)
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// force a connection and test that it worked
	conn, err := db.Connx(pingCtx)
	if err == nil {
		err = conn.PingContext(pingCtx)
		if err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to connect %s database [%s]: %s", constants.ErrConnection, cfg.Role, cfg.Redacted(), err)
	}

	p.Logger.Debug().Str("role", string(cfg.Role)).Str("dialect", dialect.Name()).Msg("connection established")
	return &Conn{
		Role:    cfg.Role,
		Dialect: dialect,
		db:      db,
		conn:    conn,
		timeout: p.OperationTimeout,
		logger:  p.Logger,
	}, nil
}

// OpContext derives the context a single database operation runs under.
func (c *Conn) OpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Conn) OperationTimeout() time.Duration {
	return c.timeout
}

// Rebind rewrites `?` placeholders into the dialect's bind style.
func (c *Conn) Rebind(query string) string {
	return sqlx.Rebind(c.Dialect.BindType(), query)
}

func (c *Conn) QuoteIdentifier(name string) string {
	return c.Dialect.QuoteIdentifier(name)
}

// BeginTx opens an explicit transaction; the target never writes in auto-commit mode.
// The transaction lives as long as ctx, so callers pass the cycle context here
// and bound the individual statements with OpContext.
func (c *Conn) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return c.conn.BeginTxx(ctx, nil)
}

// QueryContext runs a query on the pinned connection. The returned rows keep
// the connection busy until they are closed.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	opCtx, cancel := c.OpContext(ctx)
	defer cancel()
	return c.conn.ExecContext(opCtx, query, args...)
}

func (c *Conn) PingContext(ctx context.Context) error {
	opCtx, cancel := c.OpContext(ctx)
	defer cancel()
	return c.conn.PingContext(opCtx)
}

// Rollback rolls tx back and only logs a failure; it is used on paths that
// already carry an error.
func (c *Conn) Rollback(tx *sqlx.Tx) {
	if tx == nil {
		return
	}
	c.logger.Info().Str("role", string(c.Role)).Msg("rolling back transaction")
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		c.logger.Error().Err(err).Str("role", string(c.Role)).Msg("error during transaction rollback")
	}
}

// Closed reports whether the handle has been released.
func (c *Conn) Closed() bool {
	return c == nil || c.db == nil
}

// Close releases the pinned connection and its pool. It is safe on a nil Conn
// and safe to call twice.
func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := utils.CloseAll(c.conn, c.db)
	c.conn, c.db = nil, nil
	if err != nil {
		return fmt.Errorf("failed to close %s connection: %w", c.Role, err)
	}
	return nil
}
