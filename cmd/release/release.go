package release

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/expo-open-ota/eoas/cmd"
)

func init() {
	cmd.RootCmd.AddGroup(&cobra.Group{ID: cmd.GroupUpdates, Title: "Update Management:"})
}

// camelCaseFlags accepts the camelCase spelling of flags, e.g. --outputDir
// for --output-dir.
func camelCaseFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return pflag.NormalizedName(b.String())
}
