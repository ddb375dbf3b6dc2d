package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/project"
)

// DefaultCertificatePath is offered when asking for the code signing
// certificate.
const DefaultCertificatePath = "./certs/certificate.pem"

// ErrCertificatesRequired is returned when the user has no code signing
// certificate yet.
var ErrCertificatesRequired = errors.New("You need to generate your certificates first by using npx eoas generate-certs")

// InitOptions holds the inputs of init.
type InitOptions struct {
	ProjectDir string
}

// InitResult describes the updates config written by init.
type InitResult struct {
	ManifestURL     string         `json:"manifestUrl"`
	CertificatePath string         `json:"certificatePath"`
	Patch           map[string]any `json:"patch"`
}

// Init points the app config at a self-hosted update server with code
// signing enabled.
func Init(ctx context.Context, d Deps, opts InitOptions) (*InitResult, error) {
	if err := project.RequireExpo(opts.ProjectDir); err != nil {
		return nil, err
	}

	env, err := project.LoadEnv(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	cfg, err := d.Config.Private(ctx, opts.ProjectDir, expoconfig.Options{Env: env})
	if err != nil {
		return nil, err
	}
	existing := cfg.UpdatesURL()

	initial := ""
	if origin, err := expoconfig.Origin(existing); err == nil && existing != "" {
		initial = origin
	}
	serverURL, err := d.Prompt.Input("Enter the URL of your update server (ex: https://customota.com)", initial, validateServerURL)
	if err != nil {
		return nil, err
	}

	manifestURL := serverURL + expoconfig.ManifestPath
	if existing != "" && !strings.Contains(existing, "expo.dev") {
		replace, err := d.Prompt.Confirm(fmt.Sprintf("Expo config already has an update URL set to %s. Do you want to replace it?", existing))
		if err != nil {
			return nil, err
		}
		if !replace {
			manifestURL = existing
		}
	}

	generated, err := d.Prompt.Confirm("Do you have already generated your certificates and keys for code signing?")
	if err != nil {
		return nil, err
	}
	if !generated {
		return nil, ErrCertificatesRequired
	}

	certPath, err := d.Prompt.Input("Enter the path to your code signing certificate (ex: ./certs/certificate.pem)", DefaultCertificatePath, certificateValidator(opts.ProjectDir))
	if err != nil {
		return nil, err
	}

	if err := d.NewClient(serverURL).HealthCheck(ctx); err != nil {
		d.Out.Warning("Could not reach the update server at %s: %v", serverURL, err)
	}

	patch := map[string]any{
		"updates": map[string]any{
			"url": manifestURL,
			"codeSigningMetadata": map[string]any{
				"keyid": "main",
				"alg":   "rsa-v1_5-sha256",
			},
			"codeSigningCertificate": certPath,
			"enabled":                true,
			"requestHeaders": map[string]any{
				"expo-channel-name": "process.env.RELEASE_CHANNEL",
			},
		},
	}

	err = d.Out.Spinner("Updating Expo config", func() error {
		return expoconfig.CreateOrModify(opts.ProjectDir, patch)
	})
	if err != nil {
		d.Out.Error("Failed to update Expo config: %v", err)
		if rendered, renderErr := expoconfig.StringifyWithEnv(patch); renderErr == nil {
			d.Out.Println("Add the following to your app config manually:")
			d.Out.Println("%s", rendered)
		}
		return nil, err
	}
	d.Out.Success("Expo config successfully updated do not forget to format the file with prettier or eslint")

	return &InitResult{ManifestURL: manifestURL, CertificatePath: certPath, Patch: patch}, nil
}

func validateServerURL(s string) error {
	if !expoconfig.IsValidUpdateURL(s) {
		return fmt.Errorf("enter an origin such as https://customota.com, without a trailing slash or path")
	}
	return nil
}

func certificateValidator(projectDir string) func(string) error {
	return func(p string) error {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(projectDir, p)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("File does not exist")
		}
		if len(data) == 0 {
			return fmt.Errorf("Empty key")
		}
		return nil
	}
}
