package jdbc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datazip-inc/rowsync/utils/typeutils"
)

// SelectAllQuery returns the query reading every row and column of table
func SelectAllQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s", table)
}

// QuoteColumns returns a slice of quoted column names
func QuoteColumns(columns []string, quote func(string) string) []string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quote(col)
	}
	return quoted
}

// InsertStatement renders a single row as a self contained INSERT statement.
func InsertStatement(table string, quotedColumns []string, values []any) string {
	literals := make([]string, len(values))
	for i, value := range values {
		literals[i] = typeutils.Literal(value)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);", table, strings.Join(quotedColumns, ", "), strings.Join(literals, ", "))
}

// RenderStatement substitutes args into the placeholders of query for
// diagnostics. It understands `?` as well as the numbered `$N`, `@pN`, `:N`
// and `:argN` styles and leaves quoted text untouched. The result is meant
// for logs and must never be executed.
func RenderStatement(query string, args []any) string {
	var (
		sb       strings.Builder
		next     int
		inString bool
	)
	arg := func(idx int) string {
		if idx < 0 || idx >= len(args) {
			return "?"
		}
		return typeutils.Literal(args[idx])
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch == '\'' {
			inString = !inString
			sb.WriteByte(ch)
			continue
		}
		if inString {
			sb.WriteByte(ch)
			continue
		}

		switch {
		case ch == '?':
			sb.WriteString(arg(next))
			next++
			continue
		case ch == '$' || ch == '@' || ch == ':':
			start := i + 1
			if ch == '@' && hasPrefixFold(query[start:], "p") {
				start++
			}
			if ch == ':' && hasPrefixFold(query[start:], "arg") {
				start += 3
			}
			end := start
			for end < len(query) && query[end] >= '0' && query[end] <= '9' {
				end++
			}
			if end > start {
				n, err := strconv.Atoi(query[start:end])
				if err == nil {
					sb.WriteString(arg(n - 1))
					i = end - 1
					continue
				}
			}
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
