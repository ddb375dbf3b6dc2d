// Package runtimeversion resolves the runtime version an update is published
// for, either through the expo-updates CLI or from the app config.
package runtimeversion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	log "github.com/sirupsen/logrus"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/logging"
	"github.com/expo-open-ota/eoas/internal/project"
	"github.com/expo-open-ota/eoas/internal/shell"
)

// Workflow is "generic" for projects with checked-in native directories and
// "managed" otherwise.
type Workflow string

const (
	WorkflowGeneric Workflow = "generic"
	WorkflowManaged Workflow = "managed"
)

// minModernVersion is the first expo-updates release with the
// runtimeversion:resolve command.
var minModernVersion = semver.MustParse("0.25.4")

var (
	// ErrModuleNotFound means expo-updates is not installed; no runtime
	// version is needed then.
	ErrModuleNotFound = errors.New("The `expo-updates` package was not found. Follow the installation directions at https://docs.expo.dev/bare/installing-expo-modules/")

	// ErrInvalidCommand means the installed expo-updates CLI does not know
	// runtimeversion:resolve.
	ErrInvalidCommand = errors.New("The command runtimeversion:resolve was not valid in the `expo-updates` CLI.")
)

// CommandFailedError carries the stderr of a failed expo-updates CLI call.
type CommandFailedError struct {
	Stderr string
}

func (e *CommandFailedError) Error() string {
	return "expo-updates CLI failed: " + strings.TrimSpace(e.Stderr)
}

// Params describes one resolution.
type Params struct {
	Config     expoconfig.Config
	Platform   expoconfig.Platform
	Workflow   Workflow
	ProjectDir string
	Env        project.Env
}

// Result is a resolved runtime version. FingerprintSources is set only when
// the version is a fingerprint hash.
type Result struct {
	RuntimeVersion     string
	FingerprintSources []json.RawMessage
}

// Interface is implemented by Resolver.
type Interface interface {
	Resolve(ctx context.Context, p Params) (*Result, error)
}

// Resolver resolves runtime versions for a project.
type Resolver struct {
	executor shell.CommandExecutor
}

// NewResolver creates a Resolver that runs the expo-updates CLI through
// executor.
func NewResolver(executor shell.CommandExecutor) *Resolver {
	return &Resolver{executor: executor}
}

// Resolve returns the runtime version for p.Platform. A nil result means the
// project needs no runtime version.
func (r *Resolver) Resolve(ctx context.Context, p Params) (*Result, error) {
	modern, err := SupportsResolveCommand(p.ProjectDir)
	if err != nil {
		return nil, err
	}
	if !modern {
		log.Debugf("resolving %s runtime version from the app config", p.Platform)
		rv, err := FromConfig(p.Config, p.Platform)
		if err != nil {
			return nil, err
		}
		return &Result{RuntimeVersion: rv}, nil
	}

	res, err := r.resolveWithCLI(ctx, p)
	if errors.Is(err, ErrModuleNotFound) {
		return nil, nil
	}
	return res, err
}

// SupportsResolveCommand reports whether the installed expo-updates is a
// canary or at least 0.25.4.
func SupportsResolveCommand(projectDir string) (bool, error) {
	version, err := project.InstalledPackageVersion(projectDir, "expo-updates")
	if err != nil {
		return false, err
	}
	if version == "" {
		return false, nil
	}
	if strings.Contains(version, "canary") {
		return true, nil
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid expo-updates version %q: %w", version, err)
	}
	return !v.LessThan(minModernVersion), nil
}

// cliPath returns the expo-updates CLI entry point relative to projectDir.
func cliPath(projectDir string) (string, error) {
	for _, name := range []string{"cli", "cli.js"} {
		rel := filepath.Join("node_modules", "expo-updates", "bin", name)
		if _, err := os.Stat(filepath.Join(projectDir, rel)); err == nil {
			return rel, nil
		}
	}
	return "", ErrModuleNotFound
}

type resolveOutput struct {
	RuntimeVersion     *string           `json:"runtimeVersion"`
	FingerprintSources []json.RawMessage `json:"fingerprintSources"`
}

func (r *Resolver) resolveWithCLI(ctx context.Context, p Params) (*Result, error) {
	cli, err := cliPath(p.ProjectDir)
	if err != nil {
		return nil, err
	}

	args := []string{cli, "runtimeversion:resolve", "--platform", string(p.Platform), "--workflow", string(p.Workflow)}
	if logging.IsDebug() {
		args = append(args, "--debug")
	}

	env := p.Env
	if env == nil {
		env = project.FromEnviron(os.Environ())
	}

	stdout, err := shell.Output(ctx, r.executor, shell.Command{
		Dir:  p.ProjectDir,
		Env:  env.Environ(),
		Name: "node",
		Args: args,
	})
	if err != nil {
		var cmdErr *shell.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
			if strings.Contains(cmdErr.Stderr, "Invalid command") {
				return nil, ErrInvalidCommand
			}
			return nil, &CommandFailedError{Stderr: cmdErr.Stderr}
		}
		return nil, err
	}
	log.Debugf("runtimeversion:resolve output: %s", stdout)

	var out resolveOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		return nil, fmt.Errorf("parsing runtimeversion:resolve output: %w", err)
	}

	res := &Result{FingerprintSources: out.FingerprintSources}
	if out.RuntimeVersion != nil {
		res.RuntimeVersion = *out.RuntimeVersion
	}
	return res, nil
}

// FromConfig resolves the runtime version from the app config's
// runtimeVersion setting. An empty string means none is configured.
func FromConfig(cfg expoconfig.Config, platform expoconfig.Platform) (string, error) {
	switch v := cfg.RuntimeVersionFor(platform).(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		policy, _ := v["policy"].(string)
		return fromPolicy(cfg, platform, policy)
	default:
		return "", fmt.Errorf("%q is not a valid runtime version. Only a string or a runtime version policy is supported.", fmt.Sprint(v))
	}
}

func fromPolicy(cfg expoconfig.Config, platform expoconfig.Platform, policy string) (string, error) {
	switch policy {
	case "appVersion":
		return appVersion(cfg), nil
	case "nativeVersion":
		return fmt.Sprintf("%s(%s)", appVersion(cfg), buildVersion(cfg, platform)), nil
	case "sdkVersion":
		sdk := cfg.SDKVersion()
		if sdk == "" {
			return "", errors.New("An SDK version must be defined when using the 'sdkVersion' runtime policy.")
		}
		return "exposdk:" + sdk, nil
	case "fingerprint":
		return "", errors.New("The 'fingerprint' runtime version policy requires expo-updates 0.25.4 or newer.")
	default:
		return "", fmt.Errorf("%q is not a valid runtime version policy type.", policy)
	}
}

func appVersion(cfg expoconfig.Config) string {
	if v := cfg.Version(); v != "" {
		return v
	}
	return "1.0.0"
}

func buildVersion(cfg expoconfig.Config, platform expoconfig.Platform) string {
	if platform == expoconfig.PlatformIOS {
		if b := cfg.IOSBuildNumber(); b != "" {
			return b
		}
		return "1"
	}
	if code, ok := cfg.AndroidVersionCode(); ok {
		return fmt.Sprint(code)
	}
	return "1"
}
