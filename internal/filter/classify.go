// Package filter classifies cached events, runs keyword search with
// highlighting, and enforces the minimum-visible-count policy.
package filter

import (
	"github.com/okholm/feedwatch/internal/models"
)

// Category classifies an event for filtered display.
type Category string

const (
	// CategorySelf is an event performed by the current account.
	CategorySelf Category = "self"

	// CategoryTeam is an event performed by any other user.
	CategoryTeam Category = "team"

	// CategorySystem is an event with no acting user.
	CategorySystem Category = "system"
)

// Categories lists all categories in display order.
var Categories = []Category{CategorySelf, CategoryTeam, CategorySystem}

// Classify assigns an event to exactly one category: no user means system,
// the current account means self, anyone else means team.
func Classify(e models.Event, account string) Category {
	switch {
	case e.User == "":
		return CategorySystem
	case e.User == account:
		return CategorySelf
	default:
		return CategoryTeam
	}
}

// ByCategory returns the events belonging to the given category.
func ByCategory(events []models.Event, account string, cat Category) []models.Event {
	var out []models.Event
	for _, e := range events {
		if Classify(e, account) == cat {
			out = append(out, e)
		}
	}
	return out
}

// CountByCategory tallies events per category.
func CountByCategory(events []models.Event, account string) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, e := range events {
		counts[Classify(e, account)]++
	}
	return counts
}
