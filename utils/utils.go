package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// tableNamePart accepts a plain identifier or one quoted in any of the styles
// the supported dialects use.
var tableNamePart = regexp.MustCompile("^([A-Za-z_][A-Za-z0-9_$#]*|\"[^\"]+\"|\\[[^\\]]+\\]|`[^`]+`)$")

// Ternary returns a when cond holds, b otherwise.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// ValidateTableName checks that table is a (schema qualified) identifier and
// not an arbitrary SQL fragment, since it is spliced into generated statements.
func ValidateTableName(table string) error {
	parts := strings.Split(table, ".")
	if table == "" || len(parts) > 3 {
		return fmt.Errorf("invalid table name %q", table)
	}
	for _, part := range parts {
		if !tableNamePart.MatchString(part) {
			return fmt.Errorf("invalid table name %q", table)
		}
	}
	return nil
}
