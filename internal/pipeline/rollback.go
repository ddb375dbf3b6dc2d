package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/project"
	"github.com/expo-open-ota/eoas/internal/runtimeversion"
)

// ErrAntiBrickingDisabled is returned by Rollback for apps that ignore their
// embedded update.
var ErrAntiBrickingDisabled = errors.New("When using disableAntiBrickingMeasures, expo-updates is ignoring the embeded update of the app, please use republish command instead")

// RollbackOptions holds the inputs of a rollback.
type RollbackOptions struct {
	ProjectDir string
	Branch     string
	Channel    string
	Platform   expoconfig.RequestedPlatform
	Yes        bool
}

// RollbackFailure is a platform whose rollback was rejected.
type RollbackFailure struct {
	Platform expoconfig.Platform
	Reason   string
}

// RollbackError lists the platforms that failed.
type RollbackError struct {
	Failures []RollbackFailure
}

func (e *RollbackError) Error() string {
	return "Rollback failed"
}

// RollbackResult describes a published rollback.
type RollbackResult struct {
	ServerURL  string                  `json:"serverUrl"`
	Branch     string                  `json:"branch"`
	Channel    string                  `json:"channel"`
	CommitHash string                  `json:"commitHash"`
	Targets    []runtimeversion.Target `json:"targets"`
}

func validateRollbackOptions(opts *RollbackOptions) error {
	if opts.Branch == "" {
		return fmt.Errorf("Branch name is required")
	}
	if opts.Channel == "" {
		return fmt.Errorf("Channel name is required")
	}
	if opts.Platform == "" {
		opts.Platform = expoconfig.RequestAll
	}
	if !opts.Platform.Valid() {
		return fmt.Errorf("invalid platform %q: must be one of all, ios, android", opts.Platform)
	}
	return nil
}

// Rollback points opts.Branch back at the update embedded in the app binary
// for every requested platform.
func Rollback(ctx context.Context, d Deps, opts RollbackOptions) (*RollbackResult, error) {
	if err := validateRollbackOptions(&opts); err != nil {
		return nil, err
	}

	if err := d.VCS.EnsureRepoExists(ctx); err != nil {
		return nil, err
	}
	commitHash, err := d.VCS.CommitHash(ctx)
	if err != nil {
		return nil, err
	}
	if err := project.RequireExpo(opts.ProjectDir); err != nil {
		return nil, err
	}

	if err := confirm(d.Prompt, fmt.Sprintf("Are you sure you want to publish a rollback to the branch %s ?", opts.Branch), opts.Yes); err != nil {
		return nil, err
	}

	env, err := project.LoadEnv(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	env = env.With("RELEASE_CHANNEL", opts.Channel)
	cfg, err := d.Config.Private(ctx, opts.ProjectDir, expoconfig.Options{Env: env})
	if err != nil {
		return nil, err
	}
	if cfg.DisableAntiBrickingMeasures() {
		return nil, ErrAntiBrickingDisabled
	}
	serverURL, err := cfg.ServerURL()
	if err != nil {
		return nil, err
	}

	targets, err := resolveTargets(ctx, d, runtimeversion.Params{
		Config:     cfg,
		ProjectDir: opts.ProjectDir,
		Env:        env,
	}, opts.Platform)
	if err != nil {
		return nil, err
	}

	client := d.NewClient(serverURL)
	var (
		mu       sync.Mutex
		failures []RollbackFailure
		g        errgroup.Group
	)
	for _, target := range targets {
		g.Go(func() error {
			err := client.Rollback(ctx, opts.Branch, ota.RollbackRequest{
				CommitHash:     commitHash,
				Channel:        opts.Channel,
				Platform:       target.Platform,
				RuntimeVersion: target.RuntimeVersion,
			})
			if err != nil {
				mu.Lock()
				failures = append(failures, RollbackFailure{Platform: target.Platform, Reason: responseBody(err)})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = d.Out.Spinner("Uploading rollback", g.Wait)

	if len(failures) > 0 {
		for _, f := range failures {
			d.Out.Error("Failed to publish rollback for %s: %s", f.Platform, f.Reason)
		}
		return nil, &RollbackError{Failures: failures}
	}

	d.Out.Success("Rollback published successfully")
	return &RollbackResult{
		ServerURL:  serverURL,
		Branch:     opts.Branch,
		Channel:    opts.Channel,
		CommitHash: commitHash,
		Targets:    targets,
	}, nil
}
