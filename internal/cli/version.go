package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return writeJSON(os.Stdout, map[string]string{
				"version": Version,
				"commit":  Commit,
				"date":    Date,
			})
		}
		fmt.Fprintf(os.Stdout, "feedwatch %s (commit %s, built %s)\n", Version, Commit, Date)
		return nil
	},
}
