package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh every configured scope once",
	Long:  "Run one refresh sweep over all configured scopes and report how many events each returned.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}

		a := newApp(cfg)
		if err := a.orch.RefreshAll(cmd.Context(), ""); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}

		if jsonOutput {
			return writeJSON(os.Stdout, a.orch.Status())
		}

		failures := 0
		for _, st := range a.orch.Status() {
			if st.LastError != "" {
				failures++
				fmt.Fprintf(os.Stdout, "%s: failed (%s)\n", st.Scope.Name, st.LastError)
				continue
			}
			fmt.Fprintf(os.Stdout, "%s: %d events\n", st.Scope.Name, st.Cached)
		}
		if failures > 0 {
			return fmt.Errorf("%d scope(s) failed to refresh", failures)
		}
		return nil
	},
}
