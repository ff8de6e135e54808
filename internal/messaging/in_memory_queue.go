package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type inMemoryEvent struct {
	event   string
	payload []byte
}

func (e *inMemoryEvent) Type() string {
	return e.event
}

func (e *inMemoryEvent) Payload() []byte {
	return e.payload
}

func (e *inMemoryEvent) Ack() error {
	return nil
}

func (e *inMemoryEvent) Nack() error {
	return nil
}

// InMemoryQueue is a channel-backed Publisher for local mode and tests.
// Nothing is required to drain Events(), so publishes never block: when the
// buffer is full the event is dropped and an error returned for the caller
// to log.
type InMemoryQueue struct {
	mu     sync.Mutex
	closed bool
	events chan Event
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		events: make(chan Event, 100),
	}
}

func (q *InMemoryQueue) publishInternal(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	select {
	case q.events <- &inMemoryEvent{event: event, payload: data}:
		return nil
	default:
		return fmt.Errorf("queue buffer is full, dropping %s event", event)
	}
}

func (q *InMemoryQueue) PublishHistorySaved(ctx context.Context, payload HistorySavedPayload) error {
	payload.Event = EventHistorySaved
	return q.publishInternal(EventHistorySaved, payload)
}

func (q *InMemoryQueue) PublishHistoryDeleted(ctx context.Context, payload HistoryDeletedPayload) error {
	payload.Event = EventHistoryDeleted
	return q.publishInternal(EventHistoryDeleted, payload)
}

func (q *InMemoryQueue) Events() <-chan Event {
	return q.events
}

func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.events)
	}
}
