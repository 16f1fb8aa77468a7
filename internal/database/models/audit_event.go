package models

import "time"

// AuditEvent is a persisted domain event, written by the worker.
type AuditEvent struct {
	Base
	EventID    string    `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	Type       string    `gorm:"size:40;index;not null" json:"type"`
	Entity     string    `gorm:"size:20;index" json:"entity"`
	EntityID   uint      `gorm:"index" json:"entity_id"`
	ActorID    uint      `json:"actor_id"`
	Payload    string    `gorm:"type:text" json:"payload"`
	OccurredAt time.Time `gorm:"index" json:"occurred_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
