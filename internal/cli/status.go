package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-scope sync state",
	Long:  "Refresh every configured scope once and print its cache state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}

		a := newApp(cfg)
		if err := a.orch.RefreshAll(cmd.Context(), ""); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}

		statuses := a.orch.Status()
		if jsonOutput {
			return writeJSON(os.Stdout, statuses)
		}

		rows := make([][]string, 0, len(statuses))
		for _, st := range statuses {
			scopeType := "personal"
			if st.Scope.IsTeam {
				scopeType = "team"
			}
			newest := "-"
			if st.HasCursor {
				newest = st.LastUpdate.Local().Format("2006-01-02 15:04:05")
			}
			lastErr := st.LastError
			if lastErr == "" {
				lastErr = "-"
			}
			rows = append(rows, []string{
				st.Scope.Name,
				scopeType,
				strconv.Itoa(st.Cached),
				newest,
				formatYesNo(st.AllCached),
				lastErr,
			})
		}
		return writeTable(os.Stdout, []string{"SCOPE", "TYPE", "CACHED", "NEWEST", "COMPLETE", "LAST ERROR"}, rows)
	},
}
