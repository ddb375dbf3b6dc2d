package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/output/prompttest"
	"github.com/expo-open-ota/eoas/internal/shell"
	"github.com/expo-open-ota/eoas/internal/shell/shelltest"
)

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

func gitMock(responses map[string]shelltest.Response) *shelltest.MockExecutor {
	return &shelltest.MockExecutor{OnRun: func(c shell.Command) shelltest.Response {
		return responses[strings.Join(c.Args, " ")]
	}}
}

func TestGitClient(t *testing.T) {
	ctx := context.Background()

	t.Run("commit hash", func(t *testing.T) {
		mock := gitMock(map[string]shelltest.Response{"rev-parse HEAD": {Stdout: "0123abc\n"}})
		hash, err := NewGitClient("/repo", mock).CommitHash(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0123abc", hash)
		assert.Equal(t, "/repo", mock.Commands[0].Dir)
	})

	t.Run("dirty tree", func(t *testing.T) {
		mock := gitMock(map[string]shelltest.Response{"status --porcelain": {Stdout: " M app.json\n"}})
		dirty, err := NewGitClient("/repo", mock).IsCommitRequired(ctx)
		require.NoError(t, err)
		assert.True(t, dirty)
	})

	t.Run("clean tree", func(t *testing.T) {
		dirty, err := NewGitClient("/repo", gitMock(nil)).IsCommitRequired(ctx)
		require.NoError(t, err)
		assert.False(t, dirty)
	})

	t.Run("missing repository", func(t *testing.T) {
		mock := gitMock(map[string]shelltest.Response{
			"rev-parse --show-toplevel": {Stderr: "fatal: not a git repository", Err: exitError{128}},
		})
		err := NewGitClient("/repo", mock).EnsureRepoExists(ctx)
		assert.ErrorIs(t, err, ErrNoRepository)
	})

	t.Run("commit stages everything first", func(t *testing.T) {
		mock := gitMock(nil)
		require.NoError(t, NewGitClient("/repo", mock).Commit(ctx, "wip"))
		require.Len(t, mock.Commands, 2)
		assert.Equal(t, "git add -A", mock.Commands[0].String())
		assert.Equal(t, []string{"commit", "-m", "wip"}, mock.Commands[1].Args)
	})

	t.Run("check-ignore exit codes", func(t *testing.T) {
		mock := gitMock(map[string]shelltest.Response{
			"check-ignore -q ios/App.xcodeproj/project.pbxproj": {Err: exitError{1}},
			"check-ignore -q broken":                            {Err: exitError{128}},
		})
		client := NewGitClient("/repo", mock)

		ignored, err := client.IsFileIgnored(ctx, "android/app/build.gradle")
		require.NoError(t, err)
		assert.True(t, ignored)

		ignored, err = client.IsFileIgnored(ctx, "ios/App.xcodeproj/project.pbxproj")
		require.NoError(t, err)
		assert.False(t, ignored)

		_, err = client.IsFileIgnored(ctx, "broken")
		assert.Error(t, err)
	})
}

func TestNoVCSClient(t *testing.T) {
	ctx := context.Background()
	a, b := NewNoVCSClient(), NewNoVCSClient()

	hashA, err := a.CommitHash(ctx)
	require.NoError(t, err)
	again, _ := a.CommitHash(ctx)
	hashB, _ := b.CommitHash(ctx)

	assert.Equal(t, hashA, again)
	assert.NotEqual(t, hashA, hashB)

	dirty, err := a.IsCommitRequired(ctx)
	require.NoError(t, err)
	assert.False(t, dirty)
}

type fakeClient struct {
	NoVCSClient
	dirty     bool
	changed   string
	committed []string
}

func (f *fakeClient) IsCommitRequired(context.Context) (bool, error) { return f.dirty, nil }

func (f *fakeClient) ShowChangedFiles(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, f.changed)
	return err
}

func (f *fakeClient) Commit(_ context.Context, message string) error {
	f.committed = append(f.committed, message)
	return nil
}

func TestEnsureClean(t *testing.T) {
	ctx := context.Background()

	t.Run("clean tree is a no-op", func(t *testing.T) {
		prompt := prompttest.New()
		require.NoError(t, EnsureClean(ctx, &fakeClient{}, output.NewTest(io.Discard), prompt, false))
		assert.Empty(t, prompt.Asked)
	})

	t.Run("non-interactive lists files and aborts", func(t *testing.T) {
		var buf bytes.Buffer
		client := &fakeClient{dirty: true, changed: " M app.json\n"}

		err := EnsureClean(ctx, client, output.NewTest(&buf), prompttest.New(), true)
		assert.ErrorIs(t, err, ErrDirtyTree)
		assert.EqualError(t, err, "Commit all changes. Aborting...")
		assert.Contains(t, buf.String(), "The following files need to be committed:")
		assert.Contains(t, buf.String(), "M app.json")
		assert.Empty(t, client.committed)
	})

	t.Run("interactive commit", func(t *testing.T) {
		client := &fakeClient{dirty: true}
		prompt := prompttest.New()
		prompt.Confirms = []bool{true}
		prompt.Inputs = []string{"prepare release"}

		require.NoError(t, EnsureClean(ctx, client, output.NewTest(io.Discard), prompt, false))
		assert.Equal(t, []string{"Commit changes to git?", "Commit message:"}, prompt.Asked)
		assert.Equal(t, []string{"prepare release"}, client.committed)
	})

	t.Run("interactive refusal", func(t *testing.T) {
		client := &fakeClient{dirty: true}
		prompt := prompttest.New()
		prompt.Confirms = []bool{false}

		err := EnsureClean(ctx, client, output.NewTest(io.Discard), prompt, false)
		assert.ErrorIs(t, err, ErrDirtyTree)
		assert.Empty(t, client.committed)
	})

	t.Run("empty commit message is rejected", func(t *testing.T) {
		prompt := prompttest.New()
		prompt.Confirms = []bool{true}
		prompt.Inputs = []string{""}

		err := EnsureClean(ctx, &fakeClient{dirty: true}, output.NewTest(io.Discard), prompt, false)
		assert.EqualError(t, err, "commit message cannot be empty")
	})
}

func TestCommandErrorKeepsExitCode(t *testing.T) {
	err := error(&shell.CommandError{Command: "git", Err: exitError{1}})
	var exit interface{ ExitCode() int }
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 1, exit.ExitCode())
}
