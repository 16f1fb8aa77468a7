package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-companies/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeAuditRecord, h.HandleAuditRecord)
	mux.HandleFunc(TypeAuditPrune, h.HandleAuditPrune)
}

// HandleAuditRecord stores one domain event. Redelivered events are ignored
// through the unique event id.
func (h *Handler) HandleAuditRecord(ctx context.Context, t *asynq.Task) error {
	var payload AuditRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.ID == "" || payload.Type == "" {
		return fmt.Errorf("event without id or type: %w", asynq.SkipRetry)
	}

	data := ""
	if len(payload.Payload) > 0 {
		raw, err := json.Marshal(payload.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		data = string(raw)
	}

	record := models.AuditEvent{
		EventID:    payload.ID,
		Type:       string(payload.Type),
		Entity:     payload.Entity,
		EntityID:   payload.EntityID,
		ActorID:    payload.ActorID,
		Payload:    data,
		OccurredAt: payload.OccurredAt,
	}

	result := h.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return fmt.Errorf("storing audit event: %w", result.Error)
	}

	h.logger.Debug("audit event recorded",
		"event_id", payload.ID,
		"type", payload.Type,
		"entity_id", payload.EntityID,
		"duplicate", result.RowsAffected == 0,
	)
	return nil
}

// HandleAuditPrune deletes audit events older than the retention window.
func (h *Handler) HandleAuditPrune(ctx context.Context, t *asynq.Task) error {
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.RetentionDays <= 0 {
		return fmt.Errorf("retention must be positive, got %d: %w", payload.RetentionDays, asynq.SkipRetry)
	}

	cutoff := h.now().UTC().AddDate(0, 0, -payload.RetentionDays)
	result := h.db.WithContext(ctx).
		Where("occurred_at < ?", cutoff).
		Delete(&models.AuditEvent{})
	if result.Error != nil {
		return fmt.Errorf("pruning audit events: %w", result.Error)
	}

	h.logger.Info("audit events pruned",
		"deleted", result.RowsAffected,
		"cutoff", cutoff.Format(time.RFC3339),
	)
	return nil
}
