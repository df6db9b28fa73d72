// Package broker fans moderation events out to subscribers.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventServerCreated  EventType = "server.created"
	EventServerUpdated  EventType = "server.updated"
	EventServerDeleted  EventType = "server.deleted"
	EventServerApproved EventType = "server.approved"
	EventServerRejected EventType = "server.rejected"
)

// ServerEvent describes a change to a listing.
type ServerEvent struct {
	Type       EventType `json:"type"`
	ServerID   uuid.UUID `json:"serverId"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	OwnerID    uuid.UUID `json:"ownerId"`
	ActorID    uuid.UUID `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event ServerEvent) error
}

type Subscriber interface {
	// Subscribe streams events until ctx is cancelled. The channel is closed afterwards.
	Subscribe(ctx context.Context) (<-chan ServerEvent, error)
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event ServerEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
