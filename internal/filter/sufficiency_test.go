package filter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okholm/feedwatch/internal/feed"
	"github.com/okholm/feedwatch/internal/models"
)

type fakeLoader struct {
	calls []string
	err   error
}

func (f *fakeLoader) LoadOlder(_ context.Context, scopeID string) error {
	f.calls = append(f.calls, scopeID)
	return f.err
}

func seedEvents(user string, count int) []models.Event {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := make([]models.Event, count)
	for i := range events {
		events[i] = models.Event{
			ID:      fmt.Sprintf("%s-%d", user, i),
			Created: base.Add(-time.Duration(i) * time.Minute),
			Type:    models.EventTypeEntryCreated,
			User:    user,
		}
	}
	return events
}

func newTestSufficiency(store *feed.Store, loader OlderLoader, schedule func(time.Duration, func())) *Sufficiency {
	return NewSufficiency(SufficiencyConfig{
		MinVisible: 10,
		RetryDelay: 2 * time.Second,
		Schedule:   schedule,
	}, store, loader, func() string { return "alice" })
}

func TestEnsureIssuesAtMostOneFetch(t *testing.T) {
	store := feed.NewStore(100, 30)
	loader := &fakeLoader{}
	s := newTestSufficiency(store, loader, nil)

	// 30 team events, zero self and zero system: two categories are
	// short, but only one fetch may go out.
	store.MergeForward("team-a", seedEvents("bob", 30))

	require.NoError(t, s.Ensure(context.Background(), "team-a"))
	assert.Equal(t, []string{"team-a"}, loader.calls)
}

func TestEnsureSkipsExhaustedScope(t *testing.T) {
	store := feed.NewStore(100, 30)
	loader := &fakeLoader{}
	s := newTestSufficiency(store, loader, nil)

	// Short first page marks the scope exhausted.
	store.MergeForward("team-a", seedEvents("bob", 5))
	require.True(t, store.AllCached("team-a"))

	require.NoError(t, s.Ensure(context.Background(), "team-a"))
	assert.Empty(t, loader.calls)
}

func TestEnsureNoFetchWhenAllCategoriesSufficient(t *testing.T) {
	store := feed.NewStore(200, 30)
	loader := &fakeLoader{}
	s := newTestSufficiency(store, loader, nil)

	events := seedEvents("alice", 10)
	events = append(events, seedEvents("bob", 10)...)
	for i := 0; i < 10; i++ {
		events = append(events, models.Event{
			ID:      fmt.Sprintf("sys-%d", i),
			Created: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Minute),
			Type:    models.EventTypeMaintenance,
		})
	}
	store.MergeForward("team-a", events)

	require.NoError(t, s.Ensure(context.Background(), "team-a"))
	assert.Empty(t, loader.calls)
}

func TestEnsureReschedulesWholeCheckOnFailure(t *testing.T) {
	store := feed.NewStore(100, 30)
	loader := &fakeLoader{err: errors.New("boom")}

	var scheduledDelay time.Duration
	var scheduled func()
	schedule := func(d time.Duration, f func()) {
		scheduledDelay = d
		scheduled = f
	}
	s := newTestSufficiency(store, loader, schedule)

	store.MergeForward("team-a", seedEvents("bob", 30))

	err := s.Ensure(context.Background(), "team-a")
	require.Error(t, err)
	require.NotNil(t, scheduled, "failed fetch must reschedule the check")
	assert.Equal(t, 2*time.Second, scheduledDelay)
	assert.Len(t, loader.calls, 1, "the fetch itself is not retried directly")

	// The rescheduled invocation runs the whole check again.
	loader.err = nil
	scheduled()
	assert.Len(t, loader.calls, 2)
}
