package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
)

func rollbackOpts(e *testEnv) RollbackOptions {
	return RollbackOptions{ProjectDir: e.dir, Branch: "main", Channel: "production", Yes: true}
}

func TestRollback(t *testing.T) {
	e := newTestEnv(t)
	var requests []ota.RollbackRequest
	e.client.RollbackFunc = func(branch string, req ota.RollbackRequest) error {
		assert.Equal(t, "main", branch)
		requests = append(requests, req)
		return nil
	}
	opts := rollbackOpts(e)
	opts.Platform = expoconfig.RequestAndroid

	result, err := Rollback(context.Background(), e.deps, opts)
	require.NoError(t, err)
	assert.Equal(t, "https://ota.example.com", result.ServerURL)
	require.Len(t, requests, 1)
	assert.Equal(t, ota.RollbackRequest{
		CommitHash:     "abc123",
		Channel:        "production",
		Platform:       expoconfig.PlatformAndroid,
		RuntimeVersion: "1.0.0",
	}, requests[0])

	assert.Equal(t, "production", e.config.privEnv[0].Env["RELEASE_CHANNEL"])
	assert.Contains(t, e.buf.String(), "Rollback published successfully")
}

func TestRollbackReadsDotenv(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, ".env"), []byte("EOAS_TEST_VARIANT=beta\n"), 0o644))

	_, err := Rollback(context.Background(), e.deps, rollbackOpts(e))
	require.NoError(t, err)

	require.NotEmpty(t, e.config.privEnv)
	assert.Equal(t, "beta", e.config.privEnv[0].Env["EOAS_TEST_VARIANT"])
	assert.Equal(t, "production", e.config.privEnv[0].Env["RELEASE_CHANNEL"])
	require.NotEmpty(t, e.resolver.envs)
	for _, env := range e.resolver.envs {
		assert.Equal(t, "beta", env["EOAS_TEST_VARIANT"])
	}
}

func TestRollbackReportsFailedPlatforms(t *testing.T) {
	e := newTestEnv(t)
	e.client.RollbackFunc = func(_ string, req ota.RollbackRequest) error {
		if req.Platform == expoconfig.PlatformIOS {
			return &ota.StatusError{StatusCode: 404, Body: "no embedded update"}
		}
		return nil
	}

	_, err := Rollback(context.Background(), e.deps, rollbackOpts(e))
	require.EqualError(t, err, "Rollback failed")

	var rollbackErr *RollbackError
	require.ErrorAs(t, err, &rollbackErr)
	assert.Equal(t, []RollbackFailure{{Platform: expoconfig.PlatformIOS, Reason: "no embedded update"}}, rollbackErr.Failures)
	assert.Contains(t, e.buf.String(), "Failed to publish rollback for ios: no embedded update")
}

func TestRollbackPreconditions(t *testing.T) {
	t.Run("channel is required", func(t *testing.T) {
		e := newTestEnv(t)
		opts := rollbackOpts(e)
		opts.Channel = ""
		_, err := Rollback(context.Background(), e.deps, opts)
		assert.EqualError(t, err, "Channel name is required")
	})

	t.Run("repository must exist", func(t *testing.T) {
		e := newTestEnv(t)
		e.vcs.noRepo = errors.New("not a git repository")
		_, err := Rollback(context.Background(), e.deps, rollbackOpts(e))
		assert.EqualError(t, err, "not a git repository")
	})

	t.Run("declined confirmation", func(t *testing.T) {
		e := newTestEnv(t)
		e.prompt.Confirms = []bool{false}
		opts := rollbackOpts(e)
		opts.Yes = false
		_, err := Rollback(context.Background(), e.deps, opts)
		assert.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, []string{"Are you sure you want to publish a rollback to the branch main ?"}, e.prompt.Asked)
		assert.Empty(t, e.config.privEnv)
	})

	t.Run("non-interactive without yes", func(t *testing.T) {
		e := newTestEnv(t)
		e.prompt.Interactive = false
		opts := rollbackOpts(e)
		opts.Yes = false
		_, err := Rollback(context.Background(), e.deps, opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "use --yes to confirm")
	})

	t.Run("anti-bricking measures disabled", func(t *testing.T) {
		e := newTestEnv(t)
		e.config.cfg = expoconfig.Config{
			"name": "App",
			"slug": "app",
			"updates": map[string]any{
				"url":                         "https://ota.example.com/manifest",
				"disableAntiBrickingMeasures": true,
			},
		}
		_, err := Rollback(context.Background(), e.deps, rollbackOpts(e))
		assert.ErrorIs(t, err, ErrAntiBrickingDisabled)
		assert.Empty(t, e.urls)
	})

	t.Run("no runtime versions", func(t *testing.T) {
		e := newTestEnv(t)
		e.resolver.versions = nil
		_, err := Rollback(context.Background(), e.deps, rollbackOpts(e))
		assert.ErrorIs(t, err, ErrNoRuntimeVersions)
	})
}
