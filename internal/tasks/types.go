package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-companies/internal/events"
)

// Task type names
const (
	TypeAuditRecord = "audit:record"
	TypeAuditPrune  = "audit:prune"
)

// Queue names, matching the weights in pkg/queue
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// AuditRecordPayload is the event to persist
type AuditRecordPayload = events.Event

func NewAuditRecordTask(event events.Event) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAuditRecord, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// AuditPrunePayload contains the retention window for the prune task
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

func NewAuditPruneTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAuditPrune, data, asynq.Queue(QueueLow), asynq.MaxRetry(1)), nil
}
