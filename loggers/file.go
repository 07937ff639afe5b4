package loggers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// traceSlugLength is the number of query characters kept in a file name.
const traceSlugLength = 30

// TraceFileName returns the log file name for a run of query started at t:
//
//	trace_<first 30 chars, spaces as underscores, '?' removed>_<YYYYmmdd_HHMMSS>.txt
//
// An empty query uses "default".
func TraceFileName(query string, t time.Time) string {
	slug := "default"
	if query != "" {
		runes := []rune(query)
		if len(runes) > traceSlugLength {
			runes = runes[:traceSlugLength]
		}
		slug = strings.ReplaceAll(string(runes), " ", "_")
		slug = strings.ReplaceAll(slug, "?", "")
		slug = strings.ReplaceAll(slug, string(filepath.Separator), "_")
	}
	return fmt.Sprintf("trace_%s_%s.txt", slug, t.Format("20060102_150405"))
}

// CreateTraceFile creates dir if needed and opens name inside it for
// writing, truncating any previous content.
func CreateTraceFile(dir, name string) (*os.File, string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create trace dir: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create trace file: %w", err)
	}
	return f, path, nil
}
