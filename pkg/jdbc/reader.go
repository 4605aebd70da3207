package jdbc

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/types"
)

// Queryer is the part of a connection handle the extractor needs.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	OpContext(ctx context.Context) (context.Context, context.CancelFunc)
	// OperationTimeout bounds a single round trip; zero disables it.
	OperationTimeout() time.Duration
}

// RowStream is a forward-only, read-once sequence of rows read straight off
// the source cursor.
type RowStream struct {
	rows     *Cursor
	width    int
	idIdx    int
	nameIdx  int
	consumed bool
}

// Extract runs the select query once and returns the lazy row sequence over
// its cursor. The cursor lives as long as ctx; the query and every fetch are
// each bounded by the operation timeout of q.
func Extract(ctx context.Context, q Queryer, query string) (*RowStream, error) {
	if strings.HasSuffix(strings.TrimSpace(query), ";") {
		return nil, fmt.Errorf("%w: base query ends with ';': %s", constants.ErrExtraction, query)
	}

	rows, err := Open(ctx, q, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrExtraction, err)
	}

	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("%w: failed to read columns: %s", constants.ErrExtraction, err)
	}

	idIdx, nameIdx, err := mapColumns(columns)
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("%w: %s", constants.ErrExtraction, err)
	}

	return &RowStream{
		rows:    rows,
		width:   len(columns),
		idIdx:   idIdx,
		nameIdx: nameIdx,
	}, nil
}

// mapColumns finds the id and name columns by name (case-insensitive). A two
// column result without those names is mapped by position.
func mapColumns(columns []string) (int, int, error) {
	idIdx, nameIdx := -1, -1
	for i, column := range columns {
		switch strings.ToLower(column) {
		case "id":
			idIdx = i
		case "name":
			nameIdx = i
		}
	}

	switch {
	case idIdx >= 0 && nameIdx >= 0:
		return idIdx, nameIdx, nil
	case idIdx < 0 && nameIdx < 0 && len(columns) == 2:
		return 0, 1, nil
	default:
		return -1, -1, fmt.Errorf("select query must return columns ID and NAME, got %v", columns)
	}
}

// All yields every row once. Reading stops at the first error, which is
// yielded with a zero Row. A second traversal yields constants.ErrStreamConsumed.
func (s *RowStream) All() iter.Seq2[types.Row, error] {
	return func(yield func(types.Row, error) bool) {
		if s.consumed {
			yield(types.Row{}, constants.ErrStreamConsumed)
			return
		}
		s.consumed = true
		defer s.Close()

		var (
			id   sql.NullInt64
			name sql.NullString
		)
		dest := make([]any, s.width)
		for i := range dest {
			dest[i] = new(any)
		}
		dest[s.idIdx] = &id
		dest[s.nameIdx] = &name

		for s.rows.Next() {
			if err := s.rows.Scan(dest...); err != nil {
				yield(types.Row{}, fmt.Errorf("%w: failed to scan row: %s", constants.ErrExtraction, err))
				return
			}
			if !id.Valid {
				yield(types.Row{}, fmt.Errorf("%w: source row has NULL id", constants.ErrExtraction))
				return
			}
			if !yield(types.Row{ID: id.Int64, Name: name}, nil) {
				return
			}
		}

		if err := s.rows.Err(); err != nil {
			yield(types.Row{}, fmt.Errorf("%w: %w", constants.ErrExtraction, err))
		}
	}
}

// Close releases the cursor. It is safe to call more than once.
func (s *RowStream) Close() error {
	return s.rows.Close()
}
