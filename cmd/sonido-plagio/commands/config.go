package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := appSettings.Marshal()
		if err != nil {
			return err
		}
		if path := appSettings.Path(); path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", path)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
