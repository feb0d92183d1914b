// Package server contains HTTP handlers for the pid generator service.
// This file implements the readiness check endpoint.
package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// readyHandler returns 200 OK if the service is ready to serve requests.
// When the underlying store exposes database connectivity (the Postgres
// backend does; Memory does not), it is pinged so load balancers see
// database outages as not-ready rather than as request-time failures.
func (h *Handler) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if pinger, ok := h.store.(interface {
		DB() *sql.DB
	}); ok {
		if err := pinger.DB().PingContext(ctx); err != nil {
			h.writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "database not ready", correlationIDFrom(r.Context()), nil)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
