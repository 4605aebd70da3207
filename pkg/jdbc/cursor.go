package jdbc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Cursor is a query result that lives as long as the caller's context. Each
// round trip on it (the query itself and every fetch) is bounded by the
// operation timeout of the connection; time the caller spends between fetches
// is not counted.
type Cursor struct {
	*sql.Rows

	ctx    context.Context
	cancel context.CancelCauseFunc
	dog    *watchdog
}

// Open runs query on q under ctx and returns its cursor.
func Open(ctx context.Context, q Queryer, query string, args ...any) (*Cursor, error) {
	cursorCtx, cancel := context.WithCancelCause(ctx)
	dog := newWatchdog(q.OperationTimeout(), cancel)

	dog.arm()
	rows, err := q.QueryContext(cursorCtx, query, args...)
	dog.disarm()
	if err != nil {
		err = causeOf(cursorCtx, err)
		cancel(nil)
		return nil, err
	}
	return &Cursor{Rows: rows, ctx: cursorCtx, cancel: cancel, dog: dog}, nil
}

// Next fetches the next row under a fresh operation deadline.
func (c *Cursor) Next() bool {
	c.dog.arm()
	defer c.dog.disarm()
	return c.Rows.Next()
}

// Err reports a fetch that ran out of time as a deadline error.
func (c *Cursor) Err() error {
	if err := c.Rows.Err(); err != nil {
		return causeOf(c.ctx, err)
	}
	return nil
}

// Close releases the cursor. It is safe to call more than once.
func (c *Cursor) Close() error {
	c.dog.disarm()
	err := c.Rows.Close()
	c.cancel(nil)
	return err
}

func causeOf(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	return err
}

// watchdog cancels a cursor context when one round trip outlives the timeout.
// Arm and disarm are called from the goroutine reading the cursor.
type watchdog struct {
	timeout time.Duration
	cancel  context.CancelCauseFunc
	timer   *time.Timer
}

func newWatchdog(timeout time.Duration, cancel context.CancelCauseFunc) *watchdog {
	return &watchdog{timeout: timeout, cancel: cancel}
}

func (w *watchdog) arm() {
	if w.timeout <= 0 {
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.timeout, w.expire)
		return
	}
	w.timer.Reset(w.timeout)
}

func (w *watchdog) disarm() {
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *watchdog) expire() {
	w.cancel(fmt.Errorf("%w: no response within %s", context.DeadlineExceeded, w.timeout))
}
