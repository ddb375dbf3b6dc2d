// Package shelltest provides a scriptable shell.CommandExecutor for tests.
package shelltest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/expo-open-ota/eoas/internal/shell"
)

// Response is what the mock writes back for a command.
type Response struct {
	Stdout string
	Stderr string
	Err    error
}

// MockExecutor records commands instead of executing them.
type MockExecutor struct {
	mu       sync.Mutex
	Commands []shell.Command
	// OnRun is called for every command. A nil OnRun succeeds with no output.
	OnRun func(c shell.Command) Response
}

// Run implements shell.CommandExecutor.
func (m *MockExecutor) Run(_ context.Context, c shell.Command) error {
	m.mu.Lock()
	m.Commands = append(m.Commands, c)
	m.mu.Unlock()

	if m.OnRun == nil {
		return nil
	}
	resp := m.OnRun(c)
	if c.Stdout != nil && resp.Stdout != "" {
		io.WriteString(c.Stdout, resp.Stdout)
	}
	if c.Stderr != nil && resp.Stderr != "" {
		io.WriteString(c.Stderr, resp.Stderr)
	}
	return resp.Err
}

// Ran reports whether a command whose "name args..." line starts with prefix
// was executed.
func (m *MockExecutor) Ran(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Commands {
		if strings.HasPrefix(c.String(), prefix) {
			return true
		}
	}
	return false
}

// EnvValue returns the value of key in the command's explicit environment.
func EnvValue(c shell.Command, key string) (string, bool) {
	for _, kv := range c.Env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}
