package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fingerprintJSON bool

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <file>",
	Short: "Compute the fingerprint of an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		det, cleanup, err := newDetector()
		if err != nil {
			return err
		}
		defer cleanup()

		fp, err := det.Fingerprint(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if fingerprintJSON {
			return writeJSON(cmd, fp)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File:        %s\n", args[0])
		fmt.Fprintf(out, "Length:      %d\n", fp.Len())
		fmt.Fprintf(out, "Frames:      %d\n", fp.Frames)
		fmt.Fprintf(out, "Sample rate: %d Hz\n", fp.SampleRate)
		fmt.Fprintf(out, "Duration:    %s\n", fp.Duration)
		for _, d := range fp.Diagnostics {
			fmt.Fprintf(out, "Warning:     %s: %s\n", d.Family, d.Message)
		}
		return nil
	},
}

func init() {
	fingerprintCmd.Flags().BoolVar(&fingerprintJSON, "json", false, "print the fingerprint as JSON")
	rootCmd.AddCommand(fingerprintCmd)
}
