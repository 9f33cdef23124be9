package events

import (
	"fmt"
	"sync"

	console "ruralsite/internal/utils/logger"
)

var log = console.New("EVENTS")

// Actions appended to a table name to form a content event name.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// AssetStranded is published when a remote asset could not be deleted.
const AssetStranded = "asset.stranded"

// Name builds the event name for an action on a table, e.g. "products.created".
func Name(table, action string) string {
	return table + "." + action
}

// ContentEvent describes a committed change to a managed record.
type ContentEvent struct {
	Table    string
	Action   string
	Resource string
	ID       string
	Actor    string
}

// StrandedEvent names a remote asset whose delete failed.
type StrandedEvent struct {
	Handle   string
	Resource string
}

type EventHandler func(interface{})

type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	inflight sync.WaitGroup
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

// On registers a handler for an event
func (bus *EventBus) On(event string, handler EventHandler) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.handlers[event] = append(bus.handlers[event], handler)
	log.Debug("Registered handler for event: %s", event)
}

// Emit runs every handler for event in its own goroutine. A nil bus drops
// the event.
func (bus *EventBus) Emit(event string, data interface{}) {
	if bus == nil {
		return
	}
	bus.mu.RLock()
	handlers := append([]EventHandler(nil), bus.handlers[event]...)
	bus.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	log.Debug("Emitting event: %s", event)

	for _, handler := range handlers {
		bus.inflight.Add(1)
		go func(h EventHandler) {
			defer bus.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					_ = log.Error("Panic in event handler", fmt.Errorf("panic: %v", r))
				}
			}()
			h(data)
		}(handler)
	}
}

// Wait blocks until all handlers started so far have returned.
func (bus *EventBus) Wait() {
	if bus == nil {
		return
	}
	bus.inflight.Wait()
}
