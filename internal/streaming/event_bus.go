package streaming

import (
	"fmt"
	"sync"
	"time"
)

// EventType identifies one category of application event.
type EventType int

const (
	EventChatLine EventType = iota
	EventScanCompleted
	EventScanTimedOut
	EventWorldsUpdated
	EventWaypointsChanged
	EventStatusMessage
)

// Event is one notification delivered through the bus.
type Event struct {
	Type      EventType
	Timestamp int64
	Data      any
}

// EventHandler receives events for a subscribed type.
type EventHandler func(Event)

// EventBus decouples the scan/reconcile side from the UI: the manager fires
// events, the TUI subscribes.
type EventBus struct {
	subscribers map[EventType]map[string]EventHandler
	mutex       sync.RWMutex
	nextID      int
}

// NewEventBus creates a new event bus instance
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType]map[string]EventHandler),
		nextID:      1,
	}
}

// Subscribe registers an event handler for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) string {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriptionID := fmt.Sprintf("sub_%d", eb.nextID)
	eb.nextID++

	if eb.subscribers[eventType] == nil {
		eb.subscribers[eventType] = make(map[string]EventHandler)
	}

	eb.subscribers[eventType][subscriptionID] = handler

	return subscriptionID
}

// Unsubscribe removes an event handler
func (eb *EventBus) Unsubscribe(eventType EventType, subscriptionID string) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if handlers, exists := eb.subscribers[eventType]; exists {
		delete(handlers, subscriptionID)

		if len(handlers) == 0 {
			delete(eb.subscribers, eventType)
		}
	}
}

// Fire synchronously delivers an event to all subscribers
func (eb *EventBus) Fire(event Event) {
	eb.mutex.RLock()
	handlers, exists := eb.subscribers[event.Type]
	eb.mutex.RUnlock()

	if !exists {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}

	// A panicking subscriber must not take down the scan pipeline
	for _, handler := range handlers {
		func() {
			defer func() {
				recover()
			}()
			handler(event)
		}()
	}
}

// GetSubscriberCount returns the number of subscribers for an event type
func (eb *EventBus) GetSubscriberCount(eventType EventType) int {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	if handlers, exists := eb.subscribers[eventType]; exists {
		return len(handlers)
	}
	return 0
}

// Clear removes all subscribers (useful for testing)
func (eb *EventBus) Clear() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	eb.subscribers = make(map[EventType]map[string]EventHandler)
}
