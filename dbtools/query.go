package dbtools

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultRowLimit is appended to queries that carry no LIMIT clause.
const DefaultRowLimit = 100

// blockedKeywords are rejected anywhere in a query, including inside
// identifiers and string literals.
var blockedKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE", "REPLACE",
}

var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\b`)

// IsReadOnly reports whether query passes the read-only gate: after trimming
// it must start with SELECT and must not contain any blocked keyword as a
// substring, case-insensitively.
func IsReadOnly(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(upper, "SELECT") {
		return false
	}
	for _, kw := range blockedKeywords {
		if strings.Contains(upper, kw) {
			return false
		}
	}
	return true
}

// WithLimit appends " LIMIT 100" when query has no LIMIT keyword. Trailing
// whitespace and semicolons are removed first so the clause lands inside the
// statement.
func WithLimit(query string) string {
	if limitPattern.MatchString(query) {
		return query
	}
	trimmed := strings.TrimRight(query, " \t\r\n;")
	return trimmed + " LIMIT " + strconv.Itoa(DefaultRowLimit)
}
