package filter

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/okholm/feedwatch/internal/feed"
	"github.com/okholm/feedwatch/internal/logging"
)

// OlderLoader issues a backward-pagination fetch for a scope. Implemented
// by the sync orchestrator.
type OlderLoader interface {
	LoadOlder(ctx context.Context, scopeID string) error
}

// OlderLoaderFunc adapts a function to the OlderLoader interface.
type OlderLoaderFunc func(ctx context.Context, scopeID string) error

// LoadOlder calls f.
func (f OlderLoaderFunc) LoadOlder(ctx context.Context, scopeID string) error {
	return f(ctx, scopeID)
}

// SufficiencyConfig contains settings for the minimum-visible-count check.
type SufficiencyConfig struct {
	// MinVisible is the per-category floor below which a backward fetch
	// is issued. Default: 10
	MinVisible int

	// RetryDelay is how long to wait before re-running a check whose
	// fetch failed. Default: 2s
	RetryDelay time.Duration

	// Schedule defers a function; injectable for testing.
	// Default: time.AfterFunc
	Schedule func(d time.Duration, f func())
}

// DefaultSufficiencyConfig returns sensible defaults.
func DefaultSufficiencyConfig() SufficiencyConfig {
	return SufficiencyConfig{
		MinVisible: 10,
		RetryDelay: 2 * time.Second,
	}
}

// Sufficiency enforces the minimum visible result count per category so a
// category filter never starves the view while history remains unloaded.
type Sufficiency struct {
	config  SufficiencyConfig
	store   *feed.Store
	loader  OlderLoader
	account func() string
	logger  zerolog.Logger
}

// NewSufficiency creates a Sufficiency check. account supplies the current
// account name for self/team classification.
func NewSufficiency(config SufficiencyConfig, store *feed.Store, loader OlderLoader, account func() string) *Sufficiency {
	if config.MinVisible <= 0 {
		config.MinVisible = DefaultSufficiencyConfig().MinVisible
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultSufficiencyConfig().RetryDelay
	}
	if config.Schedule == nil {
		config.Schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}

	return &Sufficiency{
		config:  config,
		store:   store,
		loader:  loader,
		account: account,
		logger:  logging.Component("sufficiency"),
	}
}

// Ensure checks every category's visible count for the scope and issues at
// most one backward fetch when some category runs short. Scopes with
// exhausted history are skipped outright. A failed fetch reschedules the
// whole check after the retry delay instead of retrying the fetch itself;
// a successful fetch relies on the resulting cache-change notification to
// trigger the next invocation.
func (s *Sufficiency) Ensure(ctx context.Context, scopeID string) error {
	if s.store.AllCached(scopeID) {
		return nil
	}

	events := s.store.Events(scopeID)
	counts := CountByCategory(events, s.account())

	for _, cat := range Categories {
		if counts[cat] >= s.config.MinVisible {
			continue
		}

		s.logger.Debug().
			Str("scope_id", scopeID).
			Str("category", string(cat)).
			Int("visible", counts[cat]).
			Int("min", s.config.MinVisible).
			Msg("category below minimum, loading older events")

		err := s.loader.LoadOlder(ctx, scopeID)
		if err != nil {
			s.logger.Warn().Err(err).Str("scope_id", scopeID).Msg("sufficiency fetch failed, rescheduling check")
			s.config.Schedule(s.config.RetryDelay, func() {
				_ = s.Ensure(context.Background(), scopeID)
			})
		}
		// One fetch per invocation; remaining categories wait for the
		// next cache update.
		return err
	}

	return nil
}
