package expoconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/project"
	"github.com/expo-open-ota/eoas/internal/shell"
)

// Options configures a single config read.
type Options struct {
	// Env is passed to `npx expo config`. Nil means the process environment.
	Env project.Env
}

// Reader loads the app config through the Expo CLI, falling back to the
// static app.json when the CLI is unavailable or fails.
type Reader struct {
	executor shell.CommandExecutor
	out      *output.Writer
	warnOnce sync.Once
}

// NewReader creates a Reader. out receives the fallback warning.
func NewReader(executor shell.CommandExecutor, out *output.Writer) *Reader {
	return &Reader{executor: executor, out: out}
}

// Private returns the full, validated config.
func (r *Reader) Private(ctx context.Context, projectDir string, opts Options) (Config, error) {
	return r.read(ctx, projectDir, opts, false)
}

// Public returns the validated config with private fields stripped.
func (r *Reader) Public(ctx context.Context, projectDir string, opts Options) (Config, error) {
	return r.read(ctx, projectDir, opts, true)
}

func (r *Reader) read(ctx context.Context, projectDir string, opts Options, public bool) (Config, error) {
	if err := EnsureExists(projectDir); err != nil {
		return nil, err
	}

	var cfg Config
	var err error
	if project.IsExpoInstalled(projectDir) {
		cfg, err = r.readWithCLI(ctx, projectDir, opts, public)
		if err != nil {
			r.warnFallback(err)
			cfg, err = ReadStatic(projectDir)
		}
	} else {
		cfg, err = ReadStatic(projectDir)
	}
	if err != nil {
		return nil, err
	}

	if public {
		cfg = cfg.Public()
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Reader) readWithCLI(ctx context.Context, projectDir string, opts Options, public bool) (Config, error) {
	args := []string{"expo", "config", "--json"}
	if public {
		args = append(args, "--type", "public")
	}

	env := opts.Env
	if env == nil {
		env = project.FromEnviron(os.Environ())
	}

	stdout, err := shell.Output(ctx, r.executor, shell.Command{
		Dir:  projectDir,
		Env:  env.With("EXPO_NO_DOTENV", "1").Environ(),
		Name: "npx",
		Args: args,
	})
	if err != nil {
		return nil, err
	}

	cfg, err := Parse([]byte(stdout))
	if err != nil {
		return nil, fmt.Errorf("parsing expo config output: %w", err)
	}
	return cfg, nil
}

func (r *Reader) warnFallback(err error) {
	log.Debugf("npx expo config failed: %v", err)
	r.warnOnce.Do(func() {
		if r.out == nil {
			return
		}
		r.out.Warning("Failed to read the app config from the project using \"npx expo config\" command: %v.", err)
		r.out.Warning("Falling back to the static app.json config.")
	})
}

// ReadStatic reads the static app config. The "expo" key is used when
// present, otherwise the root object.
func ReadStatic(projectDir string) (Config, error) {
	paths := FindPaths(projectDir)
	if paths.Static == "" {
		if paths.Dynamic != "" {
			return nil, fmt.Errorf("cannot evaluate %s without the Expo CLI; install expo in the project", filepath.Base(paths.Dynamic))
		}
		return nil, fmt.Errorf("no app.json found in %s", projectDir)
	}

	data, err := os.ReadFile(paths.Static)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(paths.Static), err)
	}

	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(paths.Static), err)
	}

	if expo, ok := root["expo"].(map[string]any); ok {
		return Config(expo), nil
	}
	if root == nil {
		root = map[string]any{}
	}
	return Config(root), nil
}
