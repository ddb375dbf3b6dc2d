// Package shell runs external commands (npx, node, git) behind an
// interface so callers can be tested without spawning processes.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Command describes a single subprocess invocation.
type Command struct {
	Dir    string
	Env    []string // nil inherits the parent environment
	Stdout io.Writer
	Stderr io.Writer
	Name   string
	Args   []string
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandExecutor abstracts subprocess execution for testing.
type CommandExecutor interface {
	Run(ctx context.Context, c Command) error
}

// DefaultExecutor implements CommandExecutor using os/exec.
type DefaultExecutor struct{}

// Run executes the command and waits for it to finish.
func (e *DefaultExecutor) Run(ctx context.Context, c Command) error {
	log.Debugf("running %q in %s", c.String(), c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd.Run()
}

// CommandError is returned by Output when the command exits unsuccessfully.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Output runs c and returns its captured stdout. Stderr is captured as well
// and attached to the returned *CommandError on failure.
func Output(ctx context.Context, executor CommandExecutor, c Command) (string, error) {
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := executor.Run(ctx, c); err != nil {
		return stdout.String(), &CommandError{
			Command: c.String(),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}
	return stdout.String(), nil
}
