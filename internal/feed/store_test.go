package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okholm/feedwatch/internal/models"
)

const (
	testCap      = 100
	testPageSize = 30
)

func newTestStore() *Store {
	return NewStore(testCap, testPageSize)
}

func TestMergeForwardCapsAtCapacity(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Fill close to the cap, then push past it.
	s.MergeForward("alice", makeEvents("old", base, 90))
	changed := s.MergeForward("alice", makeEvents("new", base.Add(time.Hour), 30))

	assert.True(t, changed)
	assert.Equal(t, testCap, s.Count("alice"))

	// Newest events survive the truncation.
	events := s.Events("alice")
	assert.Equal(t, "new-0", events[0].ID)
	assert.Equal(t, "old-69", events[99].ID)
}

func TestMergeForwardNoCapDuringPagination(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.MergeForward("alice", makeEvents("old", base, 90))
	s.StartPagination("alice")
	defer s.EndPagination("alice")

	s.MergeForward("alice", makeEvents("new", base.Add(time.Hour), 30))
	assert.Equal(t, 120, s.Count("alice"))
}

func TestEmptyForwardOnLoadedScopeIsBookkeepingOnly(t *testing.T) {
	// Scenario: scope X has cached events with lastUpdate = T. A refresh
	// returns 0 events. lastUpdate stays T, allCached and the cache are
	// unchanged.
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.MergeForward("x", makeEvents("a", base, 30))
	cursorBefore, ok := s.Cursor("x")
	require.True(t, ok)
	allCachedBefore := s.AllCached("x")

	changed := s.MergeForward("x", nil)

	assert.False(t, changed)
	assert.Equal(t, 30, s.Count("x"))
	cursorAfter, ok := s.Cursor("x")
	require.True(t, ok)
	assert.True(t, cursorBefore.Equal(cursorAfter))
	assert.Equal(t, allCachedBefore, s.AllCached("x"))
}

func TestFirstLoadShortPageMarksExhausted(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.MergeForward("alice", makeEvents("a", base, 12))
	assert.True(t, s.AllCached("alice"), "short first page means no history to page into")

	// Empty very first load behaves the same.
	s2 := newTestStore()
	s2.MergeForward("bob", nil)
	assert.True(t, s2.AllCached("bob"))
	assert.True(t, s2.Loaded("bob"))
}

func TestNonEmptyForwardResetsExhaustion(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.MergeForward("alice", makeEvents("a", base, 12))
	require.True(t, s.AllCached("alice"))

	s.MergeForward("alice", makeEvents("b", base.Add(time.Hour), 30))
	assert.False(t, s.AllCached("alice"), "fresh head activity re-enables probing")
}

func TestMergeBackwardScenarios(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("full page keeps probing", func(t *testing.T) {
		// Scenario: 5 cached events, loadOlder returns a full page of 30.
		// Result: 35 events, allCached still false.
		s := newTestStore()
		s.MergeForward("y", makeEvents("head", base, 30))
		require.Equal(t, 30, s.Count("y"))

		s.MergeBackward("y", makeEvents("tail", base.Add(-24*time.Hour), 30))
		assert.Equal(t, 60, s.Count("y"))
		assert.False(t, s.AllCached("y"))
	})

	t.Run("short page exhausts", func(t *testing.T) {
		// Scenario: 40 cached, loadOlder returns 12 (<30). Result: 52
		// events and allCached true.
		s := newTestStore()
		s.MergeForward("z", makeEvents("head", base, 30))
		s.MergeForward("z", makeEvents("more", base.Add(time.Hour), 10))
		require.Equal(t, 40, s.Count("z"))
		require.False(t, s.AllCached("z"))

		s.MergeBackward("z", makeEvents("tail", base.Add(-48*time.Hour), 12))

		assert.Equal(t, 52, s.Count("z"))
		assert.True(t, s.AllCached("z"))
	})
}

func TestCursorAdvancesToNewestOfResponse(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.MergeForward("alice", makeEvents("a", base, 30))
	cursor, ok := s.Cursor("alice")
	require.True(t, ok)
	assert.True(t, cursor.Equal(base))

	// Backward merges never move the cursor.
	s.MergeBackward("alice", makeEvents("b", base.Add(-time.Hour), 30))
	cursor, _ = s.Cursor("alice")
	assert.True(t, cursor.Equal(base))

	// A newer head advances it.
	s.MergeForward("alice", makeEvents("c", base.Add(2*time.Hour), 5))
	cursor, _ = s.Cursor("alice")
	assert.True(t, cursor.Equal(base.Add(2*time.Hour)))
}

func TestOldest(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, ok := s.Oldest("alice")
	assert.False(t, ok)

	s.MergeForward("alice", makeEvents("a", base, 30))
	oldest, ok := s.Oldest("alice")
	require.True(t, ok)
	assert.True(t, oldest.Equal(base.Add(-29*time.Minute)))
}

func TestRetainCarriesStateOverByID(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.MergeForward("team-a", makeEvents("a", base, 30))
	s.MergeForward("team-b", makeEvents("b", base, 30))

	// Scope list replaced: team-b is gone, team-a survives.
	s.Retain([]string{"alice", "team-a"})

	assert.Equal(t, 30, s.Count("team-a"))
	_, ok := s.Cursor("team-a")
	assert.True(t, ok, "cursor carried over for surviving scope")

	assert.Equal(t, 0, s.Count("team-b"))
	_, ok = s.Cursor("team-b")
	assert.False(t, ok)
}

func TestClearBumpsGeneration(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.MergeForward("alice", makeEvents("a", base, 5))
	gen := s.Generation("alice")

	s.Clear("alice")

	assert.Equal(t, 0, s.Count("alice"))
	_, ok := s.Cursor("alice")
	assert.False(t, ok)
	assert.NotEqual(t, gen, s.Generation("alice"), "clear must invalidate in-flight fetches")
}

func TestAnnotateSurvivesRefetch(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := makeEvents("a", base, 3)
	s.MergeForward("alice", events)
	require.True(t, s.Annotate("alice", "a-1", "<mark>deploy</mark>"))

	// The same event comes back in a later refresh; first-seen wins, the
	// annotation stays.
	refetch := []models.Event{events[1]}
	refetch = append(refetch, makeEvents("b", base.Add(time.Hour), 1)...)
	s.MergeForward("alice", refetch)

	for _, e := range s.Events("alice") {
		if e.ID == "a-1" {
			assert.Equal(t, "<mark>deploy</mark>", e.Rendered)
			return
		}
	}
	t.Fatal("annotated event missing after refetch")
}

func TestStats(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, ScopeStats{}, s.Stats("alice"))

	s.MergeForward("alice", makeEvents("a", base, 12))
	s.StartPagination("alice")

	stats := s.Stats("alice")
	assert.Equal(t, 12, stats.Count)
	assert.True(t, stats.HasCursor)
	assert.True(t, stats.AllCached)
	assert.True(t, stats.Paginating)
}
