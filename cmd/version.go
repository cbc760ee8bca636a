package cmd

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records the build information injected at link time
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = versionString(version, buildTime)
}

// versionString renders a release version as vX.Y.Z. Development builds
// are shown unchanged.
func versionString(v, built string) string {
	parsed, err := semver.ParseTolerant(strings.TrimPrefix(v, "v"))
	if err != nil {
		return fmt.Sprintf("%s (built %s)", v, built)
	}
	return fmt.Sprintf("v%s (built %s)", parsed, built)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// No config or credentials needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nfx %s\n", versionString(version, buildTime))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
