// Package engine drives scope refresh and backward pagination against the
// remote feed source.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/okholm/feedwatch/internal/client"
	"github.com/okholm/feedwatch/internal/events"
	"github.com/okholm/feedwatch/internal/feed"
	"github.com/okholm/feedwatch/internal/logging"
	"github.com/okholm/feedwatch/internal/models"
)

// Orchestrator errors.
var (
	ErrUnknownScope   = errors.New("unknown scope")
	ErrLoadInProgress = errors.New("load older already in flight for scope")
)

// Sleeper waits between pagination retries; injectable for testing.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config contains orchestrator settings.
type Config struct {
	// PageSize is the fetch page size for every query.
	// Default: 30
	PageSize int

	// RetryAttempts bounds the scroll-triggered pagination retry loop.
	// Default: 500
	RetryAttempts int

	// RetryBackoff is the base delay between pagination retries; it
	// doubles per attempt. Default: 250ms
	RetryBackoff time.Duration

	// RetryBackoffCap caps the doubling backoff.
	// Default: 5s
	RetryBackoffCap time.Duration

	// Sleeper waits out retry backoffs. Default: real timer.
	Sleeper Sleeper
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:        30,
		RetryAttempts:   500,
		RetryBackoff:    250 * time.Millisecond,
		RetryBackoffCap: 5 * time.Second,
	}
}

// Orchestrator sequences all cache mutations: forward refreshes, backward
// pagination, scope-list replacement, and account switches. The in-flight
// set it owns is the only guard against duplicate concurrent pagination.
type Orchestrator struct {
	config   Config
	fetcher  client.Fetcher
	store    *feed.Store
	notifier *events.Notifier
	logger   zerolog.Logger

	mu       sync.Mutex
	scopes   []models.Scope
	account  string
	inflight map[string]uint64
	lastErr  map[string]error
}

// New creates an Orchestrator.
func New(config Config, fetcher client.Fetcher, store *feed.Store, notifier *events.Notifier) *Orchestrator {
	defaults := DefaultConfig()
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = defaults.RetryAttempts
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	if config.RetryBackoffCap <= 0 {
		config.RetryBackoffCap = defaults.RetryBackoffCap
	}
	if config.Sleeper == nil {
		config.Sleeper = realSleeper{}
	}

	return &Orchestrator{
		config:   config,
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		logger:   logging.Component("orchestrator"),
		inflight: make(map[string]uint64),
		lastErr:  make(map[string]error),
	}
}

// SetScopes replaces the scope list. Cache entries for surviving IDs keep
// their cursor and exhaustion state; entries for removed scopes are
// dropped.
func (o *Orchestrator) SetScopes(scopes []models.Scope) {
	ids := make([]string, len(scopes))
	copied := make([]models.Scope, len(scopes))
	for i, sc := range scopes {
		ids[i] = sc.ID
		copied[i] = sc
	}

	o.mu.Lock()
	o.scopes = copied
	o.mu.Unlock()

	o.store.Retain(ids)
	o.logger.Debug().Int("scopes", len(scopes)).Msg("scope list replaced")
}

// Scopes returns a copy of the current scope list.
func (o *Orchestrator) Scopes() []models.Scope {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Scope, len(o.scopes))
	copy(out, o.scopes)
	return out
}

// SetAccount switches the personal account. Cached events for both the
// previous and the new account scope are cleared; clearing also
// invalidates any in-flight pagination against them.
func (o *Orchestrator) SetAccount(account string) {
	o.mu.Lock()
	prev := o.account
	o.account = account
	o.mu.Unlock()

	if prev == account {
		return
	}
	if prev != "" {
		o.store.Clear(prev)
	}
	o.store.Clear(account)

	o.logger.Info().Str("account", account).Msg("account switched, caches cleared")
}

// Account returns the current account name.
func (o *Orchestrator) Account() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.account
}

func (o *Orchestrator) scope(scopeID string) (models.Scope, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, sc := range o.scopes {
		if sc.ID == scopeID {
			return sc, true
		}
	}
	return models.Scope{}, false
}

// RefreshAll refreshes every scope sequentially, the focused scope first.
// Sequential refresh bounds load on the remote source and guarantees the
// visible scope's data lands first. Per-scope fetch failures never stop
// the sweep.
func (o *Orchestrator) RefreshAll(ctx context.Context, focusedID string) error {
	scopes := o.Scopes()

	if focusedID != "" {
		for _, sc := range scopes {
			if sc.ID == focusedID {
				if err := o.RefreshOne(ctx, sc.ID); err != nil {
					return err
				}
				break
			}
		}
	}

	for _, sc := range scopes {
		if sc.ID == focusedID {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := o.RefreshOne(ctx, sc.ID); err != nil {
			return err
		}
	}
	return nil
}

// RefreshOne issues a forward query for the scope and merges the result.
// Transport failures and malformed responses degrade to "no new data";
// only context cancellation and unknown scopes surface as errors.
func (o *Orchestrator) RefreshOne(ctx context.Context, scopeID string) error {
	sc, ok := o.scope(scopeID)
	if !ok {
		return ErrUnknownScope
	}

	q := client.Query{Limit: o.config.PageSize}
	if sc.IsTeam {
		q.TeamID = sc.ID
	}
	if cursor, ok := o.store.Cursor(scopeID); ok {
		// One time unit past the cursor so the same instant is never
		// requested twice.
		since := cursor.Add(time.Millisecond)
		q.Since = &since
	}

	page, err := o.fetcher.FetchEvents(ctx, q)
	if err != nil {
		if isFetchFailure(err) {
			o.recordError(scopeID, err)
			o.logger.Warn().
				Str("scope_id", scopeID).
				Str("error", logging.Redact(err.Error())).
				Msg("refresh failed, keeping cached data")
			return nil
		}
		return err
	}
	o.recordError(scopeID, nil)

	if o.store.MergeForward(scopeID, page) {
		o.notifier.Publish(scopeID)
	}
	return nil
}

// LoadOlder pages backward from the scope's oldest cached event, retrying
// transient failures up to the configured attempt ceiling before giving up
// silently. This is the scroll-triggered path.
func (o *Orchestrator) LoadOlder(ctx context.Context, scopeID string) error {
	return o.loadOlder(ctx, scopeID, o.config.RetryAttempts)
}

// LoadOlderOnce pages backward with a single attempt and surfaces the
// fetch error to the caller. The sufficiency check uses this path and
// applies its own reschedule policy instead of the retry loop.
func (o *Orchestrator) LoadOlderOnce(ctx context.Context, scopeID string) error {
	return o.loadOlder(ctx, scopeID, 1)
}

func (o *Orchestrator) loadOlder(ctx context.Context, scopeID string, attempts int) error {
	if _, ok := o.scope(scopeID); !ok {
		return ErrUnknownScope
	}
	if o.store.AllCached(scopeID) {
		return nil
	}
	oldest, ok := o.store.Oldest(scopeID)
	if !ok {
		// Nothing cached yet; backward pagination has no tail to
		// extend. The first forward load covers this scope.
		return nil
	}

	sc, _ := o.scope(scopeID)

	// Check-then-set atomically so two overlapping loads for the same
	// scope cannot both proceed.
	o.mu.Lock()
	if _, busy := o.inflight[scopeID]; busy {
		o.mu.Unlock()
		return ErrLoadInProgress
	}
	gen := o.store.Generation(scopeID)
	o.inflight[scopeID] = gen
	o.mu.Unlock()

	o.store.StartPagination(scopeID)
	defer func() {
		o.store.EndPagination(scopeID)
		o.mu.Lock()
		delete(o.inflight, scopeID)
		o.mu.Unlock()
	}()

	q := client.Query{Limit: o.config.PageSize, Until: &oldest}
	if sc.IsTeam {
		q.TeamID = sc.ID
	}

	backoff := o.config.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		page, err := o.fetcher.FetchEvents(ctx, q)
		if err == nil {
			if o.store.Generation(scopeID) != gen {
				// The cache was cleared or replaced while the fetch
				// was out; the result is stale and must not merge.
				o.logger.Debug().Str("scope_id", scopeID).Msg("discarding stale pagination result")
				return nil
			}
			o.recordError(scopeID, nil)
			if o.store.MergeBackward(scopeID, page) {
				o.notifier.Publish(scopeID)
			}
			return nil
		}

		lastErr = err
		o.recordError(scopeID, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == attempts {
			break
		}
		if err := o.config.Sleeper.Sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
		if backoff > o.config.RetryBackoffCap {
			backoff = o.config.RetryBackoffCap
		}
	}

	if attempts == 1 {
		return lastErr
	}

	// Scroll path gives up silently after the attempt ceiling; the
	// degraded state stays visible through Status.
	o.logger.Warn().
		Str("scope_id", scopeID).
		Int("attempts", attempts).
		Str("error", logging.Redact(lastErr.Error())).
		Msg("load older gave up after retry ceiling")
	return nil
}

// isFetchFailure reports whether the error is a degradable fetch failure
// rather than cancellation or a programming error.
func isFetchFailure(err error) bool {
	var terr *client.TransportError
	var merr *client.MalformedResponse
	return errors.As(err, &terr) || errors.As(err, &merr)
}

func (o *Orchestrator) recordError(scopeID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err == nil {
		delete(o.lastErr, scopeID)
		return
	}
	o.lastErr[scopeID] = err
}

// ScopeStatus is a point-in-time view of one scope's sync state.
type ScopeStatus struct {
	Scope      models.Scope
	Cached     int
	LastUpdate time.Time
	HasCursor  bool
	AllCached  bool
	InFlight   bool
	LastError  string
}

// Status snapshots every scope, list order preserved.
func (o *Orchestrator) Status() []ScopeStatus {
	scopes := o.Scopes()

	o.mu.Lock()
	inflight := make(map[string]struct{}, len(o.inflight))
	for id := range o.inflight {
		inflight[id] = struct{}{}
	}
	errs := make(map[string]string, len(o.lastErr))
	for id, err := range o.lastErr {
		errs[id] = err.Error()
	}
	o.mu.Unlock()

	out := make([]ScopeStatus, 0, len(scopes))
	for _, sc := range scopes {
		stats := o.store.Stats(sc.ID)
		_, busy := inflight[sc.ID]
		out = append(out, ScopeStatus{
			Scope:      sc,
			Cached:     stats.Count,
			LastUpdate: stats.LastUpdate,
			HasCursor:  stats.HasCursor,
			AllCached:  stats.AllCached,
			InFlight:   busy,
			LastError:  errs[sc.ID],
		})
	}
	return out
}
