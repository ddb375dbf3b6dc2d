package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/expo-open-ota/eoas/internal/bundler"
	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/ota/otatest"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/output/prompttest"
	"github.com/expo-open-ota/eoas/internal/runtimeversion"
)

type fakeConfig struct {
	cfg     expoconfig.Config
	privEnv []expoconfig.Options
	err     error
}

func (f *fakeConfig) Private(_ context.Context, _ string, opts expoconfig.Options) (expoconfig.Config, error) {
	f.privEnv = append(f.privEnv, opts)
	return f.cfg, f.err
}

func (f *fakeConfig) Public(_ context.Context, _ string, _ expoconfig.Options) (expoconfig.Config, error) {
	return f.cfg.Public(), f.err
}

type fakeResolver struct {
	mu       sync.Mutex
	versions map[expoconfig.Platform]string
	envs     []map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, p runtimeversion.Params) (*runtimeversion.Result, error) {
	f.mu.Lock()
	f.envs = append(f.envs, p.Env)
	f.mu.Unlock()
	rv, ok := f.versions[p.Platform]
	if !ok {
		return nil, nil
	}
	return &runtimeversion.Result{RuntimeVersion: rv}, nil
}

const testMetadata = `{
  "version": 0,
  "bundler": "metro",
  "fileMetadata": {
    "ios": {"bundle": "_expo/static/js/ios/index.hbc", "assets": [{"path": "assets/a1", "ext": "png"}]},
    "android": {"bundle": "_expo/static/js/android/index.hbc", "assets": []}
  }
}`

// fakeExporter writes a Metro export into the output directory.
type fakeExporter struct {
	calls int
	err   error
}

func (f *fakeExporter) Export(_ context.Context, opts bundler.Options) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	dir := opts.OutputPath()
	files := map[string]string{
		"metadata.json":                     testMetadata,
		"_expo/static/js/ios/index.hbc":     "ios",
		"_expo/static/js/android/index.hbc": "android",
		"assets/a1":                         "png",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return "exported", nil
}

type fakeVCS struct {
	dirty     bool
	noRepo    error
	committed []string
}

func (f *fakeVCS) EnsureRepoExists(context.Context) error {
	return f.noRepo
}

func (f *fakeVCS) IsCommitRequired(context.Context) (bool, error) {
	return f.dirty, nil
}

func (f *fakeVCS) ShowChangedFiles(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, " M app.json\n")
	return err
}

func (f *fakeVCS) Commit(_ context.Context, message string) error {
	f.committed = append(f.committed, message)
	f.dirty = false
	return nil
}

func (f *fakeVCS) CommitHash(context.Context) (string, error) {
	return "abc123", nil
}

func (f *fakeVCS) IsFileIgnored(context.Context, string) (bool, error) {
	return false, nil
}

type testEnv struct {
	deps     Deps
	dir      string
	buf      *bytes.Buffer
	config   *fakeConfig
	resolver *fakeResolver
	exporter *fakeExporter
	vcs      *fakeVCS
	client   *otatest.Client
	prompt   *prompttest.Prompter
	urls     []string
}

func expoProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"dependencies":{"expo":"~52.0.0"}}`), 0o644))
	return dir
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		dir: expoProjectDir(t),
		buf: &bytes.Buffer{},
		config: &fakeConfig{cfg: expoconfig.Config{
			"name":    "App",
			"slug":    "app",
			"updates": map[string]any{"url": "https://ota.example.com/manifest"},
		}},
		resolver: &fakeResolver{versions: map[expoconfig.Platform]string{
			expoconfig.PlatformIOS:     "1.0.0",
			expoconfig.PlatformAndroid: "1.0.0",
		}},
		exporter: &fakeExporter{},
		vcs:      &fakeVCS{},
		client:   &otatest.Client{},
		prompt:   prompttest.New(),
	}
	e.deps = Deps{
		Config:   e.config,
		Resolver: e.resolver,
		Exporter: e.exporter,
		VCS:      e.vcs,
		NewClient: func(serverURL string) ota.Client {
			e.urls = append(e.urls, serverURL)
			return e.client
		},
		Out:    output.NewTest(e.buf),
		Prompt: e.prompt,
		Now:    func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) },
	}
	return e
}
