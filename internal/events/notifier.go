// Package events provides cache-change notification for feedwatch.
// Rendering collaborators subscribe here instead of polling the cache.
package events

import (
	"sync"
)

// Handler is a callback invoked when a scope's cached events change.
type Handler func(scopeID string)

// Filter defines criteria for matching notifications.
type Filter struct {
	// ScopeIDs filters to specific scopes (nil = all scopes).
	ScopeIDs []string
}

// Matches returns true if the notification matches the filter criteria.
func (f *Filter) Matches(scopeID string) bool {
	if len(f.ScopeIDs) == 0 {
		return true
	}
	for _, id := range f.ScopeIDs {
		if id == scopeID {
			return true
		}
	}
	return false
}

// subscription represents an active notification subscription.
type subscription struct {
	id      string
	filter  Filter
	handler Handler
}

// Notifier delivers cache-change notifications to subscribers.
type Notifier struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewNotifier creates a new in-process notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		subscriptions: make(map[string]*subscription),
	}
}

// Publish notifies all matching subscribers that a scope's cache changed.
func (n *Notifier) Publish(scopeID string) {
	// Collect matching handlers under read lock
	n.mu.RLock()
	var handlers []Handler
	for _, sub := range n.subscriptions {
		if sub.filter.Matches(scopeID) {
			handlers = append(handlers, sub.handler)
		}
	}
	n.mu.RUnlock()

	// Invoke handlers outside the lock to avoid deadlocks
	for _, handler := range handlers {
		handler(scopeID)
	}
}

// Subscribe registers a handler to receive notifications matching the filter.
func (n *Notifier) Subscribe(id string, filter Filter, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}

	n.subscriptions[id] = &subscription{
		id:      id,
		filter:  filter,
		handler: handler,
	}

	return nil
}

// Unsubscribe removes a subscription by ID.
func (n *Notifier) Unsubscribe(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}

	delete(n.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscriptions)
}

// Close removes all subscriptions.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscriptions = make(map[string]*subscription)
}

// Errors for notifier operations.
var (
	ErrInvalidSubscriptionID = &NotifierError{Message: "subscription ID is required"}
	ErrNilHandler            = &NotifierError{Message: "handler cannot be nil"}
	ErrSubscriptionExists    = &NotifierError{Message: "subscription with this ID already exists"}
	ErrSubscriptionNotFound  = &NotifierError{Message: "subscription not found"}
)

// NotifierError represents an error from notifier operations.
type NotifierError struct {
	Message string
}

func (e *NotifierError) Error() string {
	return e.Message
}
