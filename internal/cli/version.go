package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X askip/internal/cli.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("askip version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
