package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// stdout receives machine-readable output.
var stdout io.Writer = os.Stdout

// OutputJSON marshals v as indented JSON to stdout. Used when --json is set.
func OutputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON output: %w", err)
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

// Truncate shortens a string to max length, appending "..." if truncated.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// FormatTime renders a server timestamp in local time. Values that are not
// RFC 3339 are returned unchanged.
func FormatTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04")
}
