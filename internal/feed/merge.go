// Package feed owns the per-scope event cache: ordered merge with identity
// dedup, cursor bookkeeping, and the bounded size policy.
package feed

import (
	"github.com/okholm/feedwatch/internal/models"
)

// Direction selects the merge policy for a page of fetched events.
type Direction int

const (
	// Forward merges a newer-first refresh page: new events are
	// prepended ahead of the cached sequence.
	Forward Direction = iota

	// Backward merges an older page: new events are appended behind the
	// cached sequence, preserving already-loaded history.
	Backward
)

// Merge combines a cached sequence with a fetched page, unique by event ID.
// The cached instance always wins a duplicate ID so that attached render
// annotations survive. Duplicates inside the incoming page itself are also
// collapsed, first occurrence wins. The result is a fresh slice; neither
// input is mutated.
func Merge(existing, incoming []models.Event, direction Direction) []models.Event {
	if len(incoming) == 0 {
		out := make([]models.Event, len(existing))
		copy(out, existing)
		return out
	}

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, e := range existing {
		seen[e.ID] = struct{}{}
	}

	fresh := make([]models.Event, 0, len(incoming))
	for _, e := range incoming {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		fresh = append(fresh, e)
	}

	out := make([]models.Event, 0, len(existing)+len(fresh))
	if direction == Forward {
		out = append(out, fresh...)
		out = append(out, existing...)
	} else {
		out = append(out, existing...)
		out = append(out, fresh...)
	}
	return out
}
