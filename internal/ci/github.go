package ci

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/expo-open-ota/eoas/internal/output"
)

// WriteStepSummary appends a markdown table to $GITHUB_STEP_SUMMARY.
func WriteStepSummary(title string, rows []output.KeyValue) error {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", title)
	if len(rows) > 0 {
		b.WriteString("| | |\n|---|---|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(r.Key), escapeCell(r.Value))
		}
		b.WriteString("\n")
	}
	return appendEnvFile("GITHUB_STEP_SUMMARY", b.String())
}

// WriteOutputs appends outputs to $GITHUB_OUTPUT in key order. Multi-line
// values use a random heredoc delimiter.
func WriteOutputs(outputs map[string]string) error {
	if len(outputs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := outputs[k]
		if strings.ContainsAny(v, "\r\n") {
			delim := "ghadelimiter_" + uuid.NewString()
			fmt.Fprintf(&b, "%s<<%s\n%s\n%s\n", k, delim, v, delim)
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}
	return appendEnvFile("GITHUB_OUTPUT", b.String())
}

func appendEnvFile(envKey, content string) error {
	path := os.Getenv(envKey)
	if path == "" {
		return fmt.Errorf("%s is not set", envKey)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", envKey, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("writing %s: %w", envKey, err)
	}
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
