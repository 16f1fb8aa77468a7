package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// dependency is one backing service checked by the health endpoints.
type dependency struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

// HealthHandler pings the database and, when configured, Redis. Only the
// database is required: with Redis down the API still serves requests, it
// just stops publishing events through asynq.
type HealthHandler struct {
	deps []dependency
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	deps := []dependency{{
		name:     "database",
		required: true,
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if rdb != nil {
		deps = append(deps, dependency{
			name: "redis",
			ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	return &HealthHandler{deps: deps}
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health reports every dependency. The status is "unhealthy" (503) when a
// required one fails and "degraded" (200) when only optional ones do.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Services: make(map[string]string, len(h.deps))}
	code := http.StatusOK

	for _, name := range h.failing(ctx, resp.Services) {
		if h.isRequired(name) {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		} else if resp.Status == "healthy" {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, code, resp)
}

// Ready answers "ok" once the required dependencies respond.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	for _, name := range h.failing(ctx, nil) {
		if h.isRequired(name) {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// failing pings every dependency, records each result into states when it is
// non-nil and returns the names that failed in sorted order.
func (h *HealthHandler) failing(ctx context.Context, states map[string]string) []string {
	var failed []string
	for _, d := range h.deps {
		state := "healthy"
		if err := d.ping(ctx); err != nil {
			state = "unhealthy"
			failed = append(failed, d.name)
		}
		if states != nil {
			states[d.name] = state
		}
	}
	sort.Strings(failed)
	return failed
}

func (h *HealthHandler) isRequired(name string) bool {
	for _, d := range h.deps {
		if d.name == name {
			return d.required
		}
	}
	return false
}
