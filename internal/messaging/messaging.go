package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	HistoryEventsQueue = "history_events"
	RetryDelay         = 5 * time.Second
	MaxConnectRetry    = 5
)

const (
	EventHistorySaved   = "history.saved"
	EventHistoryDeleted = "history.deleted"
)

// Event is a delivered history event, for consumers.
type Event interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error
}

type HistorySavedPayload struct {
	Event      string    `json:"event"`
	RecordId   uuid.UUID `json:"recordId"`
	OwnerId    string    `json:"ownerId"`
	Kind       string    `json:"kind"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type HistoryDeletedPayload struct {
	Event    string    `json:"event"`
	RecordId uuid.UUID `json:"recordId"`
	OwnerId  string    `json:"ownerId"`
	Kind     string    `json:"kind"`
}

// Publisher emits history events after successful writes. Publishing is
// best-effort: the write has already committed when an event goes out.
type Publisher interface {
	PublishHistorySaved(ctx context.Context, payload HistorySavedPayload) error

	PublishHistoryDeleted(ctx context.Context, payload HistoryDeletedPayload) error

	Close()
}
