package feed

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/okholm/feedwatch/internal/logging"
	"github.com/okholm/feedwatch/internal/models"
)

// scopeEntry tracks the cached sequence and pagination state for one scope.
type scopeEntry struct {
	events []models.Event

	// lastUpdate is the Created timestamp of the newest known event.
	lastUpdate time.Time
	hasCursor  bool

	// allCached is set when a backward page came back short: there is no
	// further history to load.
	allCached bool

	// loaded marks that the first forward load has happened.
	loaded bool

	// paginating counts active backward-pagination sessions; the forward
	// size cap is suspended while non-zero so loaded history survives.
	paginating int

	// gen invalidates in-flight backward results after the entry is
	// cleared or replaced.
	gen uint64
}

// Store is the in-memory per-scope event cache. All mutation goes through
// the orchestrator's merge calls; the store itself only guards its map.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*scopeEntry
	capacity int
	pageSize int
	nextGen  uint64
	logger   zerolog.Logger
}

// ScopeStats is a point-in-time snapshot of one scope's cache state.
type ScopeStats struct {
	Count      int
	LastUpdate time.Time
	HasCursor  bool
	AllCached  bool
	Paginating bool
}

// NewStore creates a Store with the given forward-merge capacity and the
// page size used for exhaustion detection.
func NewStore(capacity, pageSize int) *Store {
	return &Store{
		entries:  make(map[string]*scopeEntry),
		capacity: capacity,
		pageSize: pageSize,
		logger:   logging.Component("feed-store"),
	}
}

// entry returns the scope entry, creating it on first use. Caller holds mu.
func (s *Store) entry(scopeID string) *scopeEntry {
	e, ok := s.entries[scopeID]
	if !ok {
		s.nextGen++
		e = &scopeEntry{gen: s.nextGen}
		s.entries[scopeID] = e
	}
	return e
}

// MergeForward applies a newer-first refresh page to the scope's cache.
// Returns true when the cached sequence changed.
//
// An empty page on an already-loaded scope only touches bookkeeping: the
// cursor stays put (the orchestrator queries since cursor+1ms, so the same
// instant is never requested twice) and exhaustion is untouched. An empty
// or short page on the very first load marks the scope exhausted: there is
// no history to page into.
func (s *Store) MergeForward(scopeID string, events []models.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(scopeID)
	first := !e.loaded
	e.loaded = true

	if len(events) == 0 {
		if first {
			e.allCached = true
		}
		return false
	}

	before := len(e.events)
	merged := Merge(e.events, events, Forward)
	changed := len(merged) != before
	if e.paginating == 0 && len(merged) > s.capacity {
		merged = merged[:s.capacity]
	}
	e.events = merged

	newest := events[0].Created
	for _, ev := range events[1:] {
		if ev.Created.After(newest) {
			newest = ev.Created
		}
	}
	if !e.hasCursor || newest.After(e.lastUpdate) {
		e.lastUpdate = newest
		e.hasCursor = true
	}

	if first && len(events) < s.pageSize {
		// Short first page: the head is the whole history.
		e.allCached = true
	} else {
		// Fresh head activity re-enables backward probing.
		e.allCached = false
	}

	if changed {
		s.logger.Debug().
			Str("scope_id", scopeID).
			Int("merged", len(events)).
			Int("cached", len(e.events)).
			Msg("forward merge applied")
	}
	return changed
}

// MergeBackward appends an older page to the scope's cache. No size cap
// applies: pagination must not lose already-loaded history. A short page
// marks the scope exhausted.
func (s *Store) MergeBackward(scopeID string, events []models.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(scopeID)
	before := len(e.events)
	e.events = Merge(e.events, events, Backward)

	if len(events) < s.pageSize {
		e.allCached = true
	}

	changed := len(e.events) != before
	if changed {
		s.logger.Debug().
			Str("scope_id", scopeID).
			Int("merged", len(events)).
			Int("cached", len(e.events)).
			Bool("all_cached", e.allCached).
			Msg("backward merge applied")
	}
	return changed
}

// StartPagination opens a backward-pagination session: the forward size
// cap is suspended until the matching EndPagination.
func (s *Store) StartPagination(scopeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(scopeID).paginating++
}

// EndPagination closes a backward-pagination session.
func (s *Store) EndPagination(scopeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(scopeID)
	if e.paginating > 0 {
		e.paginating--
	}
}

// Events returns a copy of the scope's cached sequence, newest first.
func (s *Store) Events(scopeID string) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[scopeID]
	if !ok {
		return nil
	}
	out := make([]models.Event, len(e.events))
	copy(out, e.events)
	return out
}

// Count returns the number of cached events for the scope.
func (s *Store) Count(scopeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[scopeID]; ok {
		return len(e.events)
	}
	return 0
}

// Cursor returns the scope's lastUpdate cursor, if one exists.
func (s *Store) Cursor(scopeID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[scopeID]; ok && e.hasCursor {
		return e.lastUpdate, true
	}
	return time.Time{}, false
}

// Oldest returns the Created timestamp of the oldest cached event.
func (s *Store) Oldest(scopeID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[scopeID]
	if !ok || len(e.events) == 0 {
		return time.Time{}, false
	}
	oldest := e.events[0].Created
	for _, ev := range e.events[1:] {
		if ev.Created.Before(oldest) {
			oldest = ev.Created
		}
	}
	return oldest, true
}

// AllCached reports whether backward pagination is exhausted for the scope.
func (s *Store) AllCached(scopeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[scopeID]; ok {
		return e.allCached
	}
	return false
}

// Loaded reports whether the scope has seen its first forward load.
func (s *Store) Loaded(scopeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[scopeID]; ok {
		return e.loaded
	}
	return false
}

// Generation returns the scope's cache generation. A backward fetch records
// the generation when it starts and must not merge if it moved.
func (s *Store) Generation(scopeID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(scopeID).gen
}

// Annotate attaches a derived render annotation to a cached event without
// touching its identity. Returns false when the event is not cached.
func (s *Store) Annotate(scopeID, eventID, rendered string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[scopeID]
	if !ok {
		return false
	}
	for i := range e.events {
		if e.events[i].ID == eventID {
			e.events[i].Rendered = rendered
			return true
		}
	}
	return false
}

// Clear drops all cached state for a scope and invalidates any in-flight
// backward fetch against it.
func (s *Store) Clear(scopeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[scopeID]
	if !ok {
		return
	}
	s.nextGen++
	*e = scopeEntry{gen: s.nextGen}
	s.logger.Debug().Str("scope_id", scopeID).Msg("scope cache cleared")
}

// Retain drops entries for scopes no longer in the list. Entries that
// survive keep their cursor and exhaustion state, which is how pagination
// state is carried over across scope-list replacements.
func (s *Store) Retain(scopeIDs []string) {
	keep := make(map[string]struct{}, len(scopeIDs))
	for _, id := range scopeIDs {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.entries {
		if _, ok := keep[id]; !ok {
			delete(s.entries, id)
		}
	}
}

// Stats returns a snapshot of the scope's cache state.
func (s *Store) Stats(scopeID string) ScopeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[scopeID]
	if !ok {
		return ScopeStats{}
	}
	return ScopeStats{
		Count:      len(e.events),
		LastUpdate: e.lastUpdate,
		HasCursor:  e.hasCursor,
		AllCached:  e.allCached,
		Paginating: e.paginating > 0,
	}
}
