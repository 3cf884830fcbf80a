package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okholm/feedwatch/internal/filter"
)

var (
	eventsScope    string
	eventsCategory string
	eventsSearch   string
	eventsPages    int
)

// categoryEnsureRounds bounds the history loads issued to satisfy the
// minimum-visible floor for a --category view.
const categoryEnsureRounds = 20

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsScope, "scope", "", "scope ID or name (default: personal account)")
	eventsCmd.Flags().StringVar(&eventsCategory, "category", "", "filter by category (self, team, system)")
	eventsCmd.Flags().StringVar(&eventsSearch, "search", "", "keyword search, all tokens must match")
	eventsCmd.Flags().IntVar(&eventsPages, "pages", 0, "additional history pages to load")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show cached events for a scope",
	Long:  "Refresh one scope, optionally page into its history, and print the cached events.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}

		var category filter.Category
		if eventsCategory != "" {
			parsed, err := parseCategory(eventsCategory)
			if err != nil {
				return err
			}
			category = parsed
		}

		a := newApp(cfg)
		sc, ok := a.resolveScope(eventsScope)
		if !ok {
			return fmt.Errorf("unknown scope %q", eventsScope)
		}

		ctx := cmd.Context()
		if err := a.orch.RefreshOne(ctx, sc.ID); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}

		for i := 0; i < eventsPages && !a.store.AllCached(sc.ID); i++ {
			if err := a.orch.LoadOlderOnce(ctx, sc.ID); err != nil {
				return fmt.Errorf("load older failed: %w", err)
			}
		}

		if category != "" {
			if err := a.ensureCategoryVisible(ctx, sc.ID, category); err != nil {
				return fmt.Errorf("load older failed: %w", err)
			}
		}

		events := a.store.Events(sc.ID)
		if category != "" {
			events = filter.ByCategory(events, a.orch.Account(), category)
		}
		if strings.TrimSpace(eventsSearch) != "" {
			events = filter.Search(events, eventsSearch)
		}

		if jsonOutput {
			return writeJSON(os.Stdout, events)
		}

		if len(events) == 0 {
			fmt.Fprintln(os.Stdout, "No events.")
			return nil
		}

		rows := make([][]string, 0, len(events))
		for _, e := range events {
			user := e.User
			if user == "" {
				user = "-"
			}
			rows = append(rows, []string{
				e.Created.Local().Format("2006-01-02 15:04:05"),
				string(e.Type),
				user,
				filter.StripTags(e.Message),
			})
		}
		return writeTable(os.Stdout, []string{"TIME", "TYPE", "USER", "MESSAGE"}, rows)
	},
}

// ensureCategoryVisible pages into history until the requested category
// reaches the configured visible floor, history runs out, or the round
// bound trips.
func (a *app) ensureCategoryVisible(ctx context.Context, scopeID string, category filter.Category) error {
	for i := 0; i < categoryEnsureRounds; i++ {
		if a.store.AllCached(scopeID) {
			return nil
		}
		counts := filter.CountByCategory(a.store.Events(scopeID), a.orch.Account())
		if counts[category] >= a.cfg.Sync.MinVisible {
			return nil
		}
		if err := a.orch.LoadOlderOnce(ctx, scopeID); err != nil {
			return err
		}
	}
	return nil
}

func parseCategory(value string) (filter.Category, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(filter.CategorySelf):
		return filter.CategorySelf, nil
	case string(filter.CategoryTeam):
		return filter.CategoryTeam, nil
	case string(filter.CategorySystem):
		return filter.CategorySystem, nil
	default:
		return "", fmt.Errorf("invalid category: %s (want self, team, or system)", value)
	}
}
