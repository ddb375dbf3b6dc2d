package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/expo-open-ota/eoas/internal/assets"
	"github.com/expo-open-ota/eoas/internal/bundler"
	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/project"
	"github.com/expo-open-ota/eoas/internal/runtimeversion"
	"github.com/expo-open-ota/eoas/internal/vcs"
)

// ErrMarkFailed is returned when at least one platform could not be
// finalized.
var ErrMarkFailed = errors.New("Some errors occurred while marking updates as finished")

// PublishOptions holds the inputs of a publish. Channel is deprecated; when
// set it is exposed as RELEASE_CHANNEL while the config and runtime versions
// are resolved.
type PublishOptions struct {
	ProjectDir             string
	Branch                 string
	Channel                string
	Platform               expoconfig.RequestedPlatform
	NonInteractive         bool
	OutputDir              string
	DisableRepositoryCheck bool
}

// PublishResult describes a finished publish. NothingToDeploy is set when
// every platform matched its latest update.
type PublishResult struct {
	ServerURL       string               `json:"serverUrl"`
	Branch          string               `json:"branch"`
	Channel         string               `json:"channel,omitempty"`
	CommitHash      string               `json:"commitHash"`
	DeployedAt      time.Time            `json:"deployedAt"`
	Deployed        []string             `json:"deployed"`
	NothingToDeploy bool                 `json:"nothingToDeploy"`
	Results         []ota.PlatformResult `json:"-"`
}

func validatePublishOptions(opts *PublishOptions) error {
	if opts.Branch == "" {
		return fmt.Errorf("Branch name is required")
	}
	if opts.Platform == "" {
		opts.Platform = expoconfig.RequestAll
	}
	if !opts.Platform.Valid() {
		return fmt.Errorf("invalid platform %q: must be one of all, ios, android", opts.Platform)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = bundler.DefaultOutputDir
	}
	return nil
}

// Publish exports the project and publishes it to the update server as a new
// update on opts.Branch.
func Publish(ctx context.Context, d Deps, opts PublishOptions) (*PublishResult, error) {
	if err := validatePublishOptions(&opts); err != nil {
		return nil, err
	}
	if err := project.RequireExpo(opts.ProjectDir); err != nil {
		return nil, err
	}

	if !opts.DisableRepositoryCheck {
		if err := d.VCS.EnsureRepoExists(ctx); err != nil {
			return nil, err
		}
		if err := vcs.EnsureClean(ctx, d.VCS, d.Out, d.Prompt, opts.NonInteractive); err != nil {
			return nil, err
		}
	}

	env, err := project.LoadEnv(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	if opts.Channel != "" {
		env = env.With("RELEASE_CHANNEL", opts.Channel)
	}

	cfg, err := d.Config.Private(ctx, opts.ProjectDir, expoconfig.Options{Env: env})
	if err != nil {
		return nil, err
	}
	serverURL, err := cfg.ServerURL()
	if err != nil {
		return nil, err
	}

	if !opts.NonInteractive && d.Prompt.IsInteractive() {
		ok, err := d.Prompt.Confirm(fmt.Sprintf("Is this the correct URL of your self-hosted update server? %s", serverURL))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("Please run `eoas init` to setup the correct update url")
		}
	}

	commitHash, err := d.VCS.CommitHash(ctx)
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

	exportOpts := bundler.Options{
		ProjectDir: opts.ProjectDir,
		OutputDir:  opts.OutputDir,
		Env:        env,
	}
	err = d.Out.Spinner("Exporting project files", func() error {
		_, err := d.Exporter.Export(ctx, exportOpts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to export the project, %w", err)
	}
	d.Out.Success("Project exported successfully")
	outputDir := exportOpts.OutputPath()

	publicCfg, err := d.Config.Public(ctx, opts.ProjectDir, expoconfig.Options{Env: env})
	if err != nil {
		return nil, err
	}
	if err := assets.WriteExpoConfig(outputDir, publicCfg); err != nil {
		return nil, err
	}
	d.Out.Info("%s file created in %s directory", assets.ExpoConfigFile, opts.OutputDir)

	files, err := assets.ComputeFilesRequests(outputDir, opts.Platform, d.Out)
	if err != nil {
		return nil, err
	}

	client := d.NewClient(serverURL)
	results, err := ota.PublishAssets(ctx, client, ota.PublishRequest{
		Branch:          opts.Branch,
		CommitHash:      commitHash,
		OutputDir:       outputDir,
		Assets:          files,
		RuntimeVersions: targets,
	}, d.Out)
	if err != nil {
		return nil, err
	}

	summary := ota.Summarize(results)
	result := &PublishResult{
		ServerURL:  serverURL,
		Branch:     opts.Branch,
		Channel:    opts.Channel,
		CommitHash: commitHash,
		DeployedAt: d.now().UTC(),
		Results:    results,
	}
	for _, r := range summary.Deployed {
		result.Deployed = append(result.Deployed, string(r.Target.Platform))
	}

	if summary.AllIdentical {
		d.Out.Warning("No changes found in the update, nothing to deploy")
		result.NothingToDeploy = true
		return result, nil
	}
	if summary.HasErrors {
		return result, ErrMarkFailed
	}

	if result.Channel == "" {
		channel, err := ota.ResolveReleaseChannel(ctx, client, opts.Branch)
		if err != nil {
			log.Debugf("release channel of %s not resolved: %v", opts.Branch, err)
		}
		result.Channel = channel
	}

	d.Out.Success("Your update has been successfully pushed to %s", serverURL)
	return result, nil
}
