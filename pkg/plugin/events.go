package plugin

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is the closed set of host notifications. The marker method
// seals the union so handler dispatch can be exhaustive.
type Event interface {
	isEvent()
}

// PluginRegistered is emitted after a manifest enters the registry
type PluginRegistered struct {
	PluginID string
}

// PluginUnregistered is emitted after a plugin leaves the registry
type PluginUnregistered struct {
	PluginID string
}

// ConnectionChanged is emitted when the active connection is replaced.
// ConnectionID is empty when no connection is active.
type ConnectionChanged struct {
	ConnectionID string
}

func (PluginRegistered) isEvent()   {}
func (PluginUnregistered) isEvent() {}
func (ConnectionChanged) isEvent()  {}

type subscription struct {
	id      string
	handler func(Event)
}

// Notifier is a synchronous in-process publish/subscribe channel.
// Emission happens on the caller's goroutine so subscribers observe a
// consistent history matching call order: a PluginRegistered event is
// observable before any later lookup of that plugin can succeed.
type Notifier struct {
	logger zerolog.Logger
	subs   []subscription
	mu     sync.RWMutex
}

// NewNotifier creates a new event notifier
func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		logger: logger.With().Str("component", "event-notifier").Logger(),
	}
}

// Subscribe registers a handler for all events and returns a
// subscription ID for Unsubscribe. Handlers run in subscription order.
func (n *Notifier) Subscribe(handler func(Event)) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.NewString()
	n.subs = append(n.subs, subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are a no-op.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, sub := range n.subs {
		if sub.id == id {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the event to every subscriber synchronously, in
// subscription order. A panicking subscriber is isolated so it cannot
// prevent delivery to the rest.
func (n *Notifier) Emit(event Event) {
	n.mu.RLock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, sub := range subs {
		n.deliver(sub, event)
	}
}

func (n *Notifier) deliver(sub subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().
				Str("subscription", sub.id).
				Interface("panic", r).
				Msg("Event subscriber panicked")
		}
	}()
	sub.handler(event)
}

// SubscriberCount returns the number of active subscriptions
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
