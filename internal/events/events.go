// Package events publishes domain events about companies, users and posts.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	CompanyCreated   Type = "company.created"
	CompanyUpdated   Type = "company.updated"
	UserCreated      Type = "user.created"
	UserUpdated      Type = "user.updated"
	UserDeleted      Type = "user.deleted"
	UserSoftDeleted  Type = "user.soft_deleted"
	PostCreated      Type = "post.created"
	PostUpdated      Type = "post.updated"
	PostDeleted      Type = "post.deleted"
	PostsBulkUpdated Type = "post.bulk_updated"
)

// Entity returns the entity part of the type, e.g. "post".
func (t Type) Entity() string {
	entity, _, _ := strings.Cut(string(t), ".")
	return entity
}

type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	Entity     string                 `json:"entity"`
	EntityID   uint                   `json:"entity_id"`
	ActorID    uint                   `json:"actor_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

func New(t Type, entityID, actorID uint, payload map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Entity:     t.Entity(),
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events on a best effort basis. Publish never fails the
// request that produced the event; delivery problems are logged.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

func (Noop) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.Events = append(r.Events, event)
}

func (r *Recorder) Close() error { return nil }

// Types returns the recorded event types in order.
func (r *Recorder) Types() []Type {
	out := make([]Type, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
