package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		version: version,
	}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
}

// ServeHTTP handles the health check request. A failing database ping
// reports "degraded" with 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	connected := h.db.Ping(ctx) == nil

	status, code := "healthy", http.StatusOK
	if !connected {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	response.Success(w, code, healthData{
		Status:   status,
		Version:  h.version,
		Database: databaseStatus{Connected: connected},
	}, requestID)
}
