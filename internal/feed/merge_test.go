package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/okholm/feedwatch/internal/models"
)

func makeEvents(prefix string, start time.Time, count int) []models.Event {
	events := make([]models.Event, count)
	for i := 0; i < count; i++ {
		// Newest first, one minute apart.
		events[i] = models.Event{
			ID:      fmt.Sprintf("%s-%d", prefix, i),
			Created: start.Add(-time.Duration(i) * time.Minute),
			Type:    models.EventTypeEntryCreated,
			User:    "alice",
		}
	}
	return events
}

func TestMergeForwardDedup(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	existing := makeEvents("a", base, 5)

	incoming := makeEvents("b", base.Add(time.Hour), 3)
	incoming = append(incoming, existing[0], existing[1]) // overlap with cache

	got := Merge(existing, incoming, Forward)

	if len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}

	seen := map[string]int{}
	for _, e := range got {
		seen[e.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("event %s appears %d times", id, n)
		}
	}

	// New events land ahead of the cached sequence.
	if got[0].ID != "b-0" || got[3].ID != "a-0" {
		t.Errorf("unexpected order: first=%s fourth=%s", got[0].ID, got[3].ID)
	}
}

func TestMergeBackwardArithmetic(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	existing := makeEvents("a", base, 40)

	incoming := makeEvents("c", base.Add(-24*time.Hour), 12)
	incoming = append(incoming, existing[39]) // one duplicate

	got := Merge(existing, incoming, Backward)

	// len(existing) + len(new) - duplicates, no cap.
	if want := 40 + 13 - 1; len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}

	// Older page appended at the tail.
	if got[0].ID != "a-0" || got[40].ID != "c-0" {
		t.Errorf("unexpected order: first=%s, tail head=%s", got[0].ID, got[40].ID)
	}
}

func TestMergeKeepsCachedInstance(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	existing := makeEvents("a", base, 2)
	existing[0].Rendered = "<mark>annotated</mark>"

	refetched := existing[0]
	refetched.Rendered = ""

	got := Merge(existing, []models.Event{refetched}, Forward)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Rendered != "<mark>annotated</mark>" {
		t.Error("cached instance with annotation was discarded")
	}
}

func TestMergeCollapsesIncomingDuplicates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	incoming := makeEvents("a", base, 3)
	incoming = append(incoming, incoming[1])

	got := Merge(nil, incoming, Forward)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestMergeEmptyIncomingIsIdentity(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	existing := makeEvents("a", base, 4)

	for _, dir := range []Direction{Forward, Backward} {
		got := Merge(existing, nil, dir)
		if len(got) != len(existing) {
			t.Fatalf("direction %d: len = %d, want %d", dir, len(got), len(existing))
		}
		for i := range got {
			if got[i].ID != existing[i].ID {
				t.Errorf("direction %d: order changed at %d", dir, i)
			}
		}
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	existing := makeEvents("a", base, 3)
	incoming := makeEvents("b", base.Add(time.Hour), 3)

	got := Merge(existing, incoming, Forward)
	got[0].ID = "mutated"
	got[5].ID = "mutated"

	if existing[2].ID != "a-2" || incoming[0].ID != "b-0" {
		t.Error("Merge shares backing storage with its inputs")
	}
}
