package types

import (
	"fmt"

	"github.com/datazip-inc/rowsync/constants"
)

// SyncError is returned by the upserter when a merge or commit fails mid-stream.
// It carries enough context to replay the failing statement by hand.
type SyncError struct {
	Row       Row
	HasRow    bool
	Statement string
	Rendered  string
	Committed int
	Err       error
}

func (e *SyncError) Error() string {
	if !e.HasRow {
		return fmt.Sprintf("%s: %s (committed rows: %d)", constants.ErrSync, e.Err, e.Committed)
	}
	return fmt.Sprintf("%s at row [%s]: %s (committed rows: %d)", constants.ErrSync, e.Row, e.Err, e.Committed)
}

func (e *SyncError) Unwrap() []error {
	return []error{constants.ErrSync, e.Err}
}
