package messagequeue

import (
	"context"
	"encoding/json"
	"time"
)

// Template lifecycle event types.
const (
	EventTemplateCreated = "template.created"
	EventTemplateDeleted = "template.deleted"
)

// Event is the JSON body published for a template change.
type Event struct {
	Type       string    `json:"type"`
	TemplateID string    `json:"templateId"`
	Name       string    `json:"name,omitempty"`
	ImageURL   string    `json:"imageURL,omitempty"`
	ActorUID   string    `json:"actorUid,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher defines the interface for event publishing services.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

func encode(event Event) ([]byte, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}

// NopPublisher drops every event. It is used when RABBITMQ_URL is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
