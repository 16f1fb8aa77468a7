package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-companies/internal/api/dto"
	"github.com/hugh/go-companies/internal/api/middleware"
	"github.com/hugh/go-companies/internal/api/validation"
	"github.com/hugh/go-companies/internal/events"
)

// maxBodyBytes caps request bodies decoded by handlers.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.MessageResponse{Message: message})
}

func writeValidation(w http.ResponseWriter, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: details})
}

// writeInternal logs err against the request and hides it from the client.
func writeInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(r.Context(), msg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := dto.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID returns the {id} parameter and whether it is a positive integer.
func pathID(r *http.Request) (string, uint, bool) {
	raw := chi.URLParam(r, "id")
	id, ok := validation.ParsePathID(raw)
	return raw, id, ok
}

func publish(ctx context.Context, publisher events.Publisher, t events.Type, entityID uint, payload map[string]interface{}) {
	publisher.Publish(ctx, events.New(t, entityID, middleware.GetUserID(ctx), payload))
}
