package typeutils

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLiteral(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 13, 4, 5, 120000000, time.UTC)
	name := "o'neil"
	var nilName *string

	testCases := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, "NULL"},
		{"nil_bytes", []byte(nil), "NULL"},
		{"nil_pointer", nilName, "NULL"},
		{"string", "abc", "'abc'"},
		{"string_with_quote", "it's", "'it''s'"},
		{"string_pointer", &name, "'o''neil'"},
		{"bytes", []byte("raw"), "'raw'"},
		{"timestamp", ts, "'2024-03-05 13:04:05.12+00:00'"},
		{"timestamp_with_zone", ts.In(time.FixedZone("CET", 3600)), "'2024-03-05 14:04:05.12+01:00'"},
		{"date", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), "'2024-03-05 00:00:00+00:00'"},
		{"bool_true", true, "TRUE"},
		{"bool_false", false, "FALSE"},
		{"int", 42, "42"},
		{"int64_negative", int64(-7), "-7"},
		{"uint8", uint8(255), "255"},
		{"float", 1.5, "1.5"},
		{"float32", float32(0.25), "0.25"},
		{"null_string_valid", sql.NullString{String: "x", Valid: true}, "'x'"},
		{"null_string_invalid", sql.NullString{}, "NULL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Literal(tc.value))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "''", Quote(""))
	assert.Equal(t, "''''", Quote("'"))
}
