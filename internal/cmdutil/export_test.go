package cmdutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expo-open-ota/eoas/internal/ci"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/shell/shelltest"
)

func TestExportSummary(t *testing.T) {
	old := executor
	mock := &shelltest.MockExecutor{}
	executor = mock
	t.Cleanup(func() { executor = old })

	t.Run("outside ci", func(t *testing.T) {
		t.Setenv("GITHUB_ACTIONS", "")
		t.Setenv("BITRISE_BUILD_NUMBER", "")
		t.Setenv("BITRISE_DEPLOY_DIR", "")
		var buf bytes.Buffer

		ExportSummary(context.Background(), ci.Summary{Title: "eoas publish"}, output.NewTest(&buf))
		assert.Empty(t, buf.String())
	})

	t.Run("bitrise deploy dir", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("GITHUB_ACTIONS", "")
		t.Setenv("BITRISE_DEPLOY_DIR", dir)
		t.Setenv("PATH", t.TempDir())
		var buf bytes.Buffer

		ExportSummary(context.Background(), ci.Summary{
			Title: "eoas rollback",
			File:  "eoas-rollback-summary.json",
			Data:  map[string]string{"branch": "main"},
		}, output.NewTest(&buf))

		data, err := os.ReadFile(filepath.Join(dir, "eoas-rollback-summary.json"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"branch":"main"}`, string(data))
		assert.Empty(t, mock.Commands)
	})
}
