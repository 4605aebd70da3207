/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package typeutils

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the layout timestamps are rendered with in SQL literals.
// The offset keeps timestamptz values exact on replay; columns without a zone
// ignore it.
const TimestampLayout = "2006-01-02 15:04:05.999999999-07:00"

// Literal renders v as a SQL literal. Text, binary text, dates and timestamps
// are single quoted with embedded quotes doubled; numbers and booleans are
// written as is; nil becomes NULL.
func Literal(v any) string {
	if valuer, ok := v.(driver.Valuer); ok {
		value, err := valuer.Value()
		if err != nil {
			return "NULL"
		}
		v = value
	}

	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return Quote(val)
	case []byte:
		if val == nil {
			return "NULL"
		}
		return Quote(string(val))
	case time.Time:
		return Quote(val.Format(TimestampLayout))
	case *time.Time:
		if val == nil {
			return "NULL"
		}
		return Quote(val.Format(TimestampLayout))
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case *string:
		if val == nil {
			return "NULL"
		}
		return Quote(*val)
	case *int64:
		if val == nil {
			return "NULL"
		}
		return strconv.FormatInt(*val, 10)
	case *any:
		if val == nil {
			return "NULL"
		}
		return Literal(*val)
	default:
		return fmt.Sprint(val)
	}
}

// Quote wraps s in single quotes, doubling the quotes it contains.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
