package assets

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/output"
)

const metadata = `{
  "version": 0,
  "bundler": "metro",
  "fileMetadata": {
    "ios": {
      "bundle": "_expo/static/js/ios/entry-abc.hbc",
      "assets": [{"path": "assets/1f2e3d", "ext": "png"}]
    },
    "android": {
      "bundle": "_expo/static/js/android/entry-def.hbc",
      "assets": [{"path": "assets/1f2e3d", "ext": "png"}, {"path": "assets/9a8b7c", "ext": "ttf"}]
    }
  }
}`

func writeMetadata(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte(content), 0o644))
	return dir
}

func TestComputeFilesRequests(t *testing.T) {
	dir := writeMetadata(t, metadata)

	t.Run("all platforms", func(t *testing.T) {
		files, err := ComputeFilesRequests(dir, expoconfig.RequestAll, output.NewTest(io.Discard))
		require.NoError(t, err)

		assert.Equal(t, []Asset{
			{Path: "metadata.json", Name: "metadata.json", Ext: "json"},
			{Path: "expoConfig.json", Name: "expoConfig.json", Ext: "json"},
			{Path: "_expo/static/js/android/entry-def.hbc", Name: "entry-def.hbc", Ext: "hbc"},
			{Path: "assets/1f2e3d", Name: "1f2e3d", Ext: "png"},
			{Path: "assets/9a8b7c", Name: "9a8b7c", Ext: "ttf"},
			{Path: "_expo/static/js/ios/entry-abc.hbc", Name: "entry-abc.hbc", Ext: "hbc"},
			{Path: "assets/1f2e3d", Name: "1f2e3d", Ext: "png"},
		}, files)
	})

	t.Run("single platform", func(t *testing.T) {
		files, err := ComputeFilesRequests(dir, expoconfig.RequestIOS, output.NewTest(io.Discard))
		require.NoError(t, err)
		require.Len(t, files, 4)
		assert.Equal(t, "entry-abc.hbc", files[2].Name)
	})

	t.Run("metadata and config appear exactly once", func(t *testing.T) {
		files, err := ComputeFilesRequests(dir, expoconfig.RequestAll, output.NewTest(io.Discard))
		require.NoError(t, err)

		counts := map[string]int{}
		for _, f := range files {
			counts[f.Name]++
		}
		assert.Equal(t, 1, counts[MetadataFile])
		assert.Equal(t, 1, counts[ExpoConfigFile])
	})
}

func TestLoadMetadataErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad version", `{"version":1,"bundler":"metro","fileMetadata":{}}`, "Only bundles with metadata version 0 are supported"},
		{"bad bundler", `{"version":0,"bundler":"webpack","fileMetadata":{}}`, "Only bundles created with Metro are currently supported"},
		{"missing version", `{"bundler":"metro","fileMetadata":{}}`, "invalid metadata.json"},
		{"missing file metadata", `{"version":0,"bundler":"metro"}`, "invalid metadata.json"},
		{"asset without ext", `{"version":0,"bundler":"metro","fileMetadata":{"ios":{"bundle":"b","assets":[{"path":"p"}]}}}`, "invalid metadata.json"},
		{"unknown platform", `{"version":0,"bundler":"metro","fileMetadata":{"tvos":{"bundle":"b","assets":[]}}}`, "invalid metadata.json"},
		{"malformed", `{`, "Failed to read metadata.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMetadata(writeMetadata(t, tt.content), output.NewTest(io.Discard))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMetadataWarnsWithoutPlatforms(t *testing.T) {
	var buf bytes.Buffer
	m, err := LoadMetadata(writeMetadata(t, `{"version":0,"bundler":"metro","fileMetadata":{}}`), output.NewTest(&buf))
	require.NoError(t, err)
	assert.Empty(t, m.Platforms())
	assert.Contains(t, buf.String(), "No updates were exported for any platform")
}

func TestWriteExpoConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteExpoConfig(dir, expoconfig.Config{"name": "App", "slug": "app"}))

	data, err := os.ReadFile(filepath.Join(dir, ExpoConfigFile))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"App\",\n  \"slug\": \"app\"\n}", string(data))
}
