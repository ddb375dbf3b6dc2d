package setup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/certs"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
	"github.com/expo-open-ota/eoas/internal/output"
)

const (
	defaultCertsDir     = "./certs"
	defaultOrganization = "Your Organization Name"
	defaultValidity     = 10
)

var (
	certsCertificateDir string
	certsKeyDir         string
	certsOrganization   string
	certsValidityYears  int
)

var generateCertsCmd = &cobra.Command{
	Use:   "generate-certs",
	Short: "Generate the code signing key pair and certificate",
	Long: `Generate an RSA key pair and a self-signed code signing certificate
for signing update manifests.

Keep private-key.pem on the update server and out of version control.
The certificate is embedded in the app by init.`,
	GroupID: cmd.GroupSetup,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		opts, err := resolveCertsOptions(out)
		if err != nil {
			return err
		}

		result, err := certs.Generate(opts)
		if err != nil {
			return err
		}

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(result)
		}

		out.Success("Certificates and keys generated")
		out.Result([]output.KeyValue{
			{Key: "Certificate", Value: result.CertificatePath},
			{Key: "Public key", Value: result.PublicKeyPath},
			{Key: "Private key", Value: result.PrivateKeyPath},
		})
		return nil
	},
}

// resolveCertsOptions takes each answer from its flag, otherwise asks for
// it. Without a terminal the directories and validity use their defaults;
// the organization is required.
func resolveCertsOptions(p output.Prompter) (certs.Options, error) {
	certDir, err := resolveWithDefault(certsCertificateDir, "Enter the directory for the certificate", defaultCertsDir, p, nil)
	if err != nil {
		return certs.Options{}, err
	}
	keyDir, err := resolveWithDefault(certsKeyDir, "Enter the directory for the keys", defaultCertsDir, p, nil)
	if err != nil {
		return certs.Options{}, err
	}

	if certsOrganization == "" && !p.IsInteractive() {
		return certs.Options{}, fmt.Errorf("--organization is required in non-interactive mode")
	}
	organization, err := cmdutil.ResolveInputInteractive(certsOrganization, "Enter the organization name for the certificate", defaultOrganization, nil, p)
	if err != nil {
		return certs.Options{}, err
	}

	years := certsValidityYears
	if years == 0 {
		raw, err := resolveWithDefault("", "Enter the validity duration of the certificate (in years)", strconv.Itoa(defaultValidity), p, output.ValidatePositiveInt)
		if err != nil {
			return certs.Options{}, err
		}
		years, _ = strconv.Atoi(strings.TrimSpace(raw))
	}

	return certs.Options{
		CertificateDir: certDir,
		KeyDir:         keyDir,
		CommonName:     organization,
		ValidityYears:  years,
	}, nil
}

func resolveWithDefault(value, title, def string, p output.Prompter, validate func(string) error) (string, error) {
	if value == "" && !p.IsInteractive() {
		return def, nil
	}
	return cmdutil.ResolveInputInteractive(value, title, def, validate, p)
}

func init() {
	generateCertsCmd.Flags().StringVar(&certsCertificateDir, "certificate-dir", "", "directory for certificate.pem (default ./certs)")
	generateCertsCmd.Flags().StringVar(&certsKeyDir, "key-dir", "", "directory for the key pair (default ./certs)")
	generateCertsCmd.Flags().StringVar(&certsOrganization, "organization", "", "organization name used as the certificate common name")
	generateCertsCmd.Flags().IntVar(&certsValidityYears, "validity-years", 0, "certificate validity in years (default 10)")
	cmd.RootCmd.AddCommand(generateCertsCmd)
}
