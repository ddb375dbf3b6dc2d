// Package vcs wraps the version control operations the publish flow needs.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/expo-open-ota/eoas/internal/shell"
)

// Client is the version control surface used by the commands.
type Client interface {
	EnsureRepoExists(ctx context.Context) error
	IsCommitRequired(ctx context.Context) (bool, error)
	ShowChangedFiles(ctx context.Context, w io.Writer) error
	Commit(ctx context.Context, message string) error
	CommitHash(ctx context.Context) (string, error)
	IsFileIgnored(ctx context.Context, path string) (bool, error)
}

// ErrNoRepository is returned when the project is not inside a git work tree.
var ErrNoRepository = errors.New("A git repository is required. Run `git init` and commit your project, or pass --disable-repository-check.")

// GitClient runs git in Dir.
type GitClient struct {
	Dir      string
	Executor shell.CommandExecutor
}

// NewGitClient creates a GitClient for dir.
func NewGitClient(dir string, executor shell.CommandExecutor) *GitClient {
	return &GitClient{Dir: dir, Executor: executor}
}

func (g *GitClient) git(ctx context.Context, args ...string) (string, error) {
	return shell.Output(ctx, g.Executor, shell.Command{Dir: g.Dir, Name: "git", Args: args})
}

func (g *GitClient) EnsureRepoExists(ctx context.Context) error {
	if _, err := g.git(ctx, "rev-parse", "--show-toplevel"); err != nil {
		return fmt.Errorf("%w\n%v", ErrNoRepository, err)
	}
	return nil
}

func (g *GitClient) IsCommitRequired(ctx context.Context) (bool, error) {
	out, err := g.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("checking working tree status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

func (g *GitClient) ShowChangedFiles(ctx context.Context, w io.Writer) error {
	out, err := g.git(ctx, "status", "--short")
	if err != nil {
		return fmt.Errorf("listing changed files: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Commit stages every change and commits it with message.
func (g *GitClient) Commit(ctx context.Context, message string) error {
	if _, err := g.git(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}
	if _, err := g.git(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("committing changes: %w", err)
	}
	return nil
}

func (g *GitClient) CommitHash(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("reading commit hash: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// IsFileIgnored runs git check-ignore. Exit status 1 means "not ignored".
func (g *GitClient) IsFileIgnored(ctx context.Context, path string) (bool, error) {
	_, err := g.git(ctx, "check-ignore", "-q", path)
	if err == nil {
		return true, nil
	}
	var exit interface{ ExitCode() int }
	if errors.As(err, &exit) && exit.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("git check-ignore %s: %w", path, err)
}

// NoVCSClient is used when the project is not under version control. The
// tree is never dirty and every instance has its own synthetic commit hash.
type NoVCSClient struct {
	hash string
}

// NewNoVCSClient creates a NoVCSClient with a random commit hash.
func NewNoVCSClient() *NoVCSClient {
	return &NoVCSClient{hash: uuid.NewString()}
}

func (n *NoVCSClient) EnsureRepoExists(context.Context) error              { return nil }
func (n *NoVCSClient) IsCommitRequired(context.Context) (bool, error)      { return false, nil }
func (n *NoVCSClient) ShowChangedFiles(context.Context, io.Writer) error   { return nil }
func (n *NoVCSClient) Commit(context.Context, string) error                { return nil }
func (n *NoVCSClient) CommitHash(context.Context) (string, error)          { return n.hash, nil }
func (n *NoVCSClient) IsFileIgnored(context.Context, string) (bool, error) { return false, nil }
