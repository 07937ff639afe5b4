package dbtools

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rickchristie/sqlagent/store"
)

// PreviewRows is the number of rows rendered in a query observation.
const PreviewRows = 10

// FormatResult renders a non-empty result:
//
//	Columns: name, city
//	Returned 3 row(s):
//	  1. ('Bob Smith', 'Los Angeles')
//	  ...
//	  ... and 2 more rows
func FormatResult(res *store.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Columns: %s\n", strings.Join(res.Columns, ", "))
	fmt.Fprintf(&sb, "Returned %d row(s):\n", len(res.Rows))

	for i, row := range res.Rows {
		if i == PreviewRows {
			break
		}
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, FormatRow(row))
	}
	if extra := len(res.Rows) - PreviewRows; extra > 0 {
		fmt.Fprintf(&sb, "  ... and %d more rows\n", extra)
	}
	return sb.String()
}

// FormatRow renders a row as a parenthesized, comma-separated tuple.
func FormatRow(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = FormatValue(v)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatValue renders a single driver value. Text is single-quoted, NULL is
// rendered as NULL and dates without a time part keep only the date.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(x)
	case []byte:
		return quote(string(x))
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return quote(x.Format("2006-01-02"))
		}
		return quote(x.Format(time.RFC3339))
	default:
		return fmt.Sprint(x)
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
