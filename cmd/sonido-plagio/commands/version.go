package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-plagio/cmd/sonido-plagio/internal/build"
	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, build.String())
		if IsVerbose() {
			fmt.Fprintf(out, "  go:          %s\n", runtime.Version())
			fmt.Fprintf(out, "  fingerprint: %d values\n", config.DefaultFeatureConfig().VectorLength())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
