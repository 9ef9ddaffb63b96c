package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-plagio/fingerprint"
)

var compareJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare <file1> <file2>",
	Short: "Score the similarity of two audio files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		det, cleanup, err := newDetector()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := det.CompareFiles(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		if compareJSON {
			return writeJSON(cmd, result)
		}
		printResult(cmd, result)
		return nil
	},
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(compareCmd)
}

func printResult(cmd *cobra.Command, result *fingerprint.SimilarityResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Similarity: %.2f%%\n", result.SimilarityPercentage)
	if result.IsPlagiarized {
		fmt.Fprintln(out, "Verdict:    plagiarized")
	} else {
		fmt.Fprintln(out, "Verdict:    not plagiarized")
	}
	if IsVerbose() {
		fmt.Fprintf(out, "  cosine:     %.6f\n", result.Cosine)
		fmt.Fprintf(out, "  euclidean:  %.6f\n", result.Euclidean)
		fmt.Fprintf(out, "  combined:   %.6f\n", result.Combined)
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
