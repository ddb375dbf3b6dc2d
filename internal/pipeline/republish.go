package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/output"
)

var (
	// ErrNoRuntimeVersionsFound is returned when no runtime version has an
	// earlier update to go back to.
	ErrNoRuntimeVersionsFound = errors.New("No runtime versions found")

	ErrNoUpdatesFound = errors.New("No updates found")
)

// RepublishOptions holds the inputs of a republish. RuntimeVersion and
// UpdateUUID pre-answer the prompts.
type RepublishOptions struct {
	ProjectDir     string
	Branch         string
	Platform       expoconfig.Platform
	RuntimeVersion string
	UpdateUUID     string
}

// RepublishResult describes a republished update.
type RepublishResult struct {
	Branch         string     `json:"branch"`
	RuntimeVersion string     `json:"runtimeVersion"`
	Update         ota.Update `json:"update"`
}

func validateRepublishOptions(opts RepublishOptions) error {
	if opts.Branch == "" {
		return fmt.Errorf("Branch name is required")
	}
	if opts.Platform == "" {
		return fmt.Errorf("Platform is required")
	}
	if opts.Platform != expoconfig.PlatformIOS && opts.Platform != expoconfig.PlatformAndroid {
		return fmt.Errorf("invalid platform %q: must be ios or android", opts.Platform)
	}
	return nil
}

// Republish makes an earlier update of opts.Branch the latest one again.
func Republish(ctx context.Context, d Deps, opts RepublishOptions) (*RepublishResult, error) {
	if err := validateRepublishOptions(opts); err != nil {
		return nil, err
	}
	if err := d.VCS.EnsureRepoExists(ctx); err != nil {
		return nil, err
	}
	client, err := Connect(ctx, d, opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	runtimeVersion, err := selectRuntimeVersion(ctx, client, d.Prompt, opts)
	if err != nil {
		return nil, err
	}
	d.Out.Println("Selected runtime version: %s", runtimeVersion)

	update, err := selectUpdate(ctx, client, d.Prompt, opts, runtimeVersion)
	if err != nil {
		return nil, err
	}
	d.Out.Println("Re-publishing update: %s", update.UpdateUUID)

	err = d.Out.Spinner("Republishing update", func() error {
		return client.Republish(ctx, opts.Branch, ota.RepublishRequest{
			Platform:       opts.Platform,
			RuntimeVersion: runtimeVersion,
			UpdateID:       update.UpdateID,
			CommitHash:     update.CommitHash,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to republish update: %s", responseBody(err))
	}
	d.Out.Success("Republish successful")

	return &RepublishResult{Branch: opts.Branch, RuntimeVersion: runtimeVersion, Update: update}, nil
}

// selectRuntimeVersion picks among runtime versions with more than one
// update, since a single update has nothing to go back to.
func selectRuntimeVersion(ctx context.Context, client ota.Client, prompt output.Prompter, opts RepublishOptions) (string, error) {
	all, err := client.ListRuntimeVersions(ctx, opts.Branch)
	if err != nil {
		return "", err
	}

	var options []output.SelectOption
	for _, rv := range all {
		if rv.NumberOfUpdates <= 1 {
			continue
		}
		if rv.RuntimeVersion == opts.RuntimeVersion {
			return rv.RuntimeVersion, nil
		}
		options = append(options, output.SelectOption{Label: rv.RuntimeVersion, Value: rv.RuntimeVersion})
	}
	if len(options) == 0 {
		return "", ErrNoRuntimeVersionsFound
	}
	return prompt.Select("Select a runtime version", options)
}

func selectUpdate(ctx context.Context, client ota.Client, prompt output.Prompter, opts RepublishOptions, runtimeVersion string) (ota.Update, error) {
	all, err := client.ListUpdates(ctx, opts.Branch, runtimeVersion)
	if err != nil {
		return ota.Update{}, err
	}

	var candidates []ota.Update
	for _, u := range all {
		if u.UpdateUUID == ota.RollbackToEmbeddedUUID || u.Platform != string(opts.Platform) {
			continue
		}
		candidates = append(candidates, u)
	}
	if len(candidates) == 0 {
		return ota.Update{}, ErrNoUpdatesFound
	}

	chosen := opts.UpdateUUID
	if chosen == "" {
		options := make([]output.SelectOption, len(candidates))
		for i, u := range candidates {
			options[i] = output.SelectOption{
				Label:       u.UpdateUUID,
				Value:       u.UpdateUUID,
				Description: fmt.Sprintf("Created at: %s, Platform: %s, Commit hash: %s", u.CreatedAt, u.Platform, u.CommitHash),
			}
		}
		chosen, err = prompt.Select("Select an update to republish", options)
		if err != nil {
			return ota.Update{}, err
		}
	}

	for _, u := range candidates {
		if u.UpdateUUID == chosen {
			return u, nil
		}
	}
	return ota.Update{}, fmt.Errorf("Update %s not found", chosen)
}
