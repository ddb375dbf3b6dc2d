package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/output"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]string{
		"publish":          cmd.GroupUpdates,
		"rollback":         cmd.GroupUpdates,
		"republish":        cmd.GroupUpdates,
		"branches":         cmd.GroupDashboard,
		"runtime-versions": cmd.GroupDashboard,
		"updates":          cmd.GroupDashboard,
		"settings":         cmd.GroupDashboard,
		"init":             cmd.GroupSetup,
		"generate-certs":   cmd.GroupSetup,
	}
	for name, group := range want {
		c, _, err := cmd.RootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, group, c.GroupID, name)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	old := cmd.Out
	cmd.Out = output.NewTest(&buf)
	t.Cleanup(func() { cmd.Out = old })

	version, commit, date = "1.2.3", "abc123", "2026-10-15"
	t.Cleanup(func() { version, commit, date = "dev", "none", "unknown" })

	cmd.RootCmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.RootCmd.ExecuteContext(context.Background()))
	assert.Equal(t, "eoas 1.2.3\n   commit: abc123\n   built: 2026-10-15\n", buf.String())
}
