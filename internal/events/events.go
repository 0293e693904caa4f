package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Event types published by the availability engine.
const (
	TypeScheduleUpdated = "schedule.updated"
	TypeSlotsReconciled = "slots.reconciled"
)

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// ScheduleUpdatedPayload describes a schedule write.
type ScheduleUpdatedPayload struct {
	FacilityID string `json:"facility_id"`
	UpdatedBy  string `json:"updated_by,omitempty"`
}

// SlotsReconciledPayload describes a completed reconciliation run.
type SlotsReconciledPayload struct {
	JobID      string `json:"job_id"`
	FacilityID string `json:"facility_id"`
	FromDate   string `json:"from_date"`
	ToDate     string `json:"to_date"`
	Created    int    `json:"created"`
	Deleted    int    `json:"deleted"`
	Preserved  int    `json:"preserved"`
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON marshals payload and publishes it under eventType.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	b.Publish(Event{Type: eventType, Payload: data})
	return nil
}
