// Package events publishes event-store change notifications so other views
// (another tab, a dashboard) know to re-render.
package events

import (
	"context"

	"hcal/internal/model"
)

// Topic constants.
const (
	TopicEventCreated = "hcal.event.created"
	TopicEventUpdated = "hcal.event.updated"
	TopicEventDeleted = "hcal.event.deleted"
	TopicStoreReset   = "hcal.store.reset"
)

type EventCreated struct {
	Event model.Event `json:"event"`
}

type EventUpdated struct {
	Event model.Event `json:"event"`
}

type EventDeleted struct {
	EventID string `json:"event_id"`
}

// StoreReset is emitted when the whole collection is overwritten.
type StoreReset struct {
	Count int `json:"count"`
}

// Publisher is the interface for emitting notifications.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher is used when NATS is not configured.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
