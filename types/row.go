package types

import (
	"database/sql"
	"fmt"
	"time"
)

// Row is one (id, name) tuple read off the source cursor.
type Row struct {
	ID   int64
	Name sql.NullString
}

func NewRow(id int64, name string) Row {
	return Row{ID: id, Name: sql.NullString{String: name, Valid: true}}
}

// Args returns the positional merge parameters bound for the row.
func (r Row) Args() []any {
	var name any
	if r.Name.Valid {
		name = r.Name.String
	}
	return []any{r.ID, name}
}

func (r Row) String() string {
	if !r.Name.Valid {
		return fmt.Sprintf("id=%d name=NULL", r.ID)
	}
	return fmt.Sprintf("id=%d name=%q", r.ID, r.Name.String)
}

// SyncResult summarises one extraction + upsert pass.
type SyncResult struct {
	RowsProcessed int           `json:"rows_processed"`
	RowsCommitted int           `json:"rows_committed"`
	Commits       int           `json:"commits"`
	Duration      time.Duration `json:"duration"`
}
