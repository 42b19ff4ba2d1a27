package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ezhost/panel/pkg/logger"
)

// EventType represents the type of event
type EventType string

const (
	// Server lifecycle events
	EventServerCreated      EventType = "server.created"
	EventServerInitialized  EventType = "server.initialized"
	EventServerDeleted      EventType = "server.deleted"
	EventServerStateChanged EventType = "server.state_changed"
	EventServerStartFailed  EventType = "server.start_failed"

	// Command events
	EventRCONCommand EventType = "rcon.command"
)

// Event is one system event.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	ServerID  string                 `json:"server_id,omitempty"`
	Data      map[string]interface{} `json:"data"`
}

// Handler is a function that handles events.
type Handler func(event Event)

// Storage persists events for later querying.
type Storage interface {
	Store(event Event) error
	Query(filters Filters) ([]Event, error)
}

// Filters narrows an event history query.
type Filters struct {
	Types    []EventType
	ServerID string
	Limit    int
}

// Bus is an in-process publish/subscribe event bus. Subscribing to the
// empty EventType receives every event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
	storage     Storage
}

// NewBus creates a bus; storage may be nil for a broadcast-only bus.
func NewBus(storage Storage) *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Handler),
		storage:     storage,
	}
}

// Subscribe registers a handler for an event type. The empty type
// subscribes to all events.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish stores the event and notifies subscribers. Handlers run in
// goroutines so a slow consumer cannot stall a lifecycle transition.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if b.storage != nil {
		if err := b.storage.Store(event); err != nil {
			logger.Error("Failed to store event", err, map[string]interface{}{
				"event_id":   event.ID,
				"event_type": event.Type,
			})
		}
	}

	b.mu.RLock()
	handlers := append([]Handler{}, b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[""]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Event handler panicked", nil, map[string]interface{}{
						"event_type": event.Type,
						"panic":      r,
					})
				}
			}()
			h(event)
		}(handler)
	}
}

// Query retrieves stored events.
func (b *Bus) Query(filters Filters) ([]Event, error) {
	if b.storage == nil {
		return nil, nil
	}
	return b.storage.Query(filters)
}
