package cmdutil

import (
	"fmt"
	"os"

	"github.com/expo-open-ota/eoas/internal/credentials"
	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/output"
)

// Environment fallbacks for the command flags.
const (
	EnvBranch   = "EOAS_BRANCH"
	EnvChannel  = "EOAS_CHANNEL"
	EnvPlatform = "EOAS_PLATFORM"
)

// ResolveFlag returns flagValue if non-empty, otherwise falls back to the environment variable.
func ResolveFlag(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}

// RequireCredentials resolves the Expo credentials and fails when the user
// is not logged in.
func RequireCredentials() (credentials.Credentials, error) {
	creds := credentials.Resolve()
	if err := creds.Require(); err != nil {
		return credentials.Credentials{}, err
	}
	return creds, nil
}

// ResolveInputInteractive returns the value if non-empty, otherwise prompts
// interactively. In non-interactive mode it returns an error with a hint.
func ResolveInputInteractive(value, title, initial string, validate func(string) error, p output.Prompter) (string, error) {
	if value != "" {
		if validate != nil {
			if err := validate(value); err != nil {
				return "", err
			}
		}
		return value, nil
	}

	if !p.IsInteractive() {
		return "", fmt.Errorf("%s: required in non-interactive mode", title)
	}

	result, err := p.Input(title, initial, validate)
	if err != nil {
		return "", err
	}

	if result == "" {
		return "", fmt.Errorf("value is required")
	}

	return result, nil
}

// ResolveBranch resolves --branch using the priority:
// 1. Flag value
// 2. EOAS_BRANCH environment variable
// 3. Interactive terminal input prompt
func ResolveBranch(flagValue string, p output.Prompter) (string, error) {
	branch := ResolveFlag(flagValue, EnvBranch)
	if branch == "" && !p.IsInteractive() {
		return "", fmt.Errorf("--branch is required: set --branch or %s", EnvBranch)
	}
	return ResolveInputInteractive(branch, "Branch name", "", nil, p)
}

// ResolveRequestedPlatform resolves a --platform flag that accepts "all".
// An unset flag selects every platform.
func ResolveRequestedPlatform(flagValue string) (expoconfig.RequestedPlatform, error) {
	platform := expoconfig.RequestedPlatform(ResolveFlag(flagValue, EnvPlatform))
	if platform == "" {
		return expoconfig.RequestAll, nil
	}
	if !platform.Valid() {
		return "", fmt.Errorf("invalid platform %q: must be one of all, ios, android", platform)
	}
	return platform, nil
}

// ResolvePlatformInteractive resolves a single-platform flag interactively.
// If the flag value is set, returns it. Otherwise prompts if interactive
// or returns an error with a flag hint.
func ResolvePlatformInteractive(flagValue string, p output.Prompter) (expoconfig.Platform, error) {
	value := ResolveFlag(flagValue, EnvPlatform)
	if value != "" {
		platform := expoconfig.Platform(value)
		if platform != expoconfig.PlatformIOS && platform != expoconfig.PlatformAndroid {
			return "", fmt.Errorf("invalid platform %q: must be ios or android", value)
		}
		return platform, nil
	}

	if !p.IsInteractive() {
		return "", fmt.Errorf("--platform is required: set --platform to ios or android")
	}

	selected, err := p.Select("Select platform", []output.SelectOption{
		{Label: "iOS", Value: string(expoconfig.PlatformIOS)},
		{Label: "Android", Value: string(expoconfig.PlatformAndroid)},
	})
	if err != nil {
		return "", err
	}
	return expoconfig.Platform(selected), nil
}
