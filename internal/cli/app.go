package cli

import (
	"github.com/okholm/feedwatch/internal/client"
	"github.com/okholm/feedwatch/internal/config"
	"github.com/okholm/feedwatch/internal/engine"
	"github.com/okholm/feedwatch/internal/events"
	"github.com/okholm/feedwatch/internal/feed"
	"github.com/okholm/feedwatch/internal/models"
)

// app wires the one-shot engine a CLI invocation runs against. The cache
// starts empty on every invocation; commands refresh before reading.
type app struct {
	cfg      *config.Config
	store    *feed.Store
	notifier *events.Notifier
	orch     *engine.Orchestrator
}

func newApp(cfg *config.Config) *app {
	fetcher := client.New(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
	store := feed.NewStore(cfg.Sync.CacheCap, cfg.Sync.PageSize)
	notifier := events.NewNotifier()

	orch := engine.New(engine.Config{
		PageSize:        cfg.Sync.PageSize,
		RetryAttempts:   cfg.Sync.RetryAttempts,
		RetryBackoff:    cfg.Sync.RetryBackoff,
		RetryBackoffCap: cfg.Sync.RetryBackoffCap,
	}, fetcher, store, notifier)
	orch.SetAccount(cfg.Account.Name)
	orch.SetScopes(cfg.Scopes())

	return &app{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		orch:     orch,
	}
}

// resolveScope matches a --scope argument against scope IDs and names.
// Empty selects the personal account scope.
func (a *app) resolveScope(arg string) (models.Scope, bool) {
	scopes := a.orch.Scopes()
	if arg == "" {
		for _, sc := range scopes {
			if !sc.IsTeam {
				return sc, true
			}
		}
		return models.Scope{}, false
	}
	for _, sc := range scopes {
		if sc.ID == arg || sc.Name == arg {
			return sc, true
		}
	}
	return models.Scope{}, false
}
