package models

import (
	"time"
)

// EventType categorizes activity feed events.
type EventType string

const (
	// Entry events
	EventTypeEntryCreated  EventType = "entry.created"
	EventTypeEntryUpdated  EventType = "entry.updated"
	EventTypeEntryArchived EventType = "entry.archived"

	// Comment events
	EventTypeCommentAdded   EventType = "comment.added"
	EventTypeCommentRemoved EventType = "comment.removed"

	// Membership events
	EventTypeMemberJoined EventType = "member.joined"
	EventTypeMemberLeft   EventType = "member.left"

	// Scope events
	EventTypeScopeRenamed EventType = "scope.renamed"

	// System events
	EventTypeExportCompleted EventType = "export.completed"
	EventTypeQuotaWarning    EventType = "quota.warning"
	EventTypeMaintenance     EventType = "maintenance"
)

// Event is a single activity item fetched from the feed source.
// Events are immutable once fetched; Rendered is the only field that may
// be attached afterwards, and it never participates in identity.
type Event struct {
	// ID is the unique identifier for the event. Uniqueness holds within
	// and across scopes, so it is the dedup key everywhere.
	ID string `json:"id"`

	// Created is when the event occurred. Merge ordering and cursor
	// advancement both key off this timestamp.
	Created time.Time `json:"created"`

	// Type categorizes the event and selects the rendering rule.
	Type EventType `json:"type"`

	// User is the acting user, empty for system-generated events.
	User string `json:"user,omitempty"`

	// Message is the server-rendered HTML fragment describing the event.
	Message string `json:"message,omitempty"`

	// Rendered is a locally derived display annotation (highlighted
	// markup). Never sent on the wire, never compared.
	Rendered string `json:"-"`
}

// Validate checks that the event carries the fields the cache relies on.
func (e *Event) Validate() error {
	errs := &ValidationErrors{}
	if e.ID == "" {
		errs.AddMessage("id", "event id is required")
	}
	if e.Created.IsZero() {
		errs.AddMessage("created", "event timestamp is required")
	}
	if e.Type == "" {
		errs.AddMessage("type", "event type is required")
	}
	return errs.Err()
}
