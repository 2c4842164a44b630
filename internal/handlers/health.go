package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks a dependency. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports liveness, and readiness of the database when one is set.
type Health struct {
	db Pinger
}

// NewHealth creates the health handler. db may be nil.
func NewHealth(db Pinger) *Health {
	return &Health{db: db}
}

// Check answers {"status":"ok"}, or 503 when the database does not respond.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
