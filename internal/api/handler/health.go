package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/daap14/reportkit/internal/api/middleware"
	"github.com/daap14/reportkit/internal/api/response"
)

const storePingTimeout = 2 * time.Second

// StorePinger checks connectivity to the user record store.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	store   StorePinger
	backend string
	version string
}

// NewHealthHandler creates a new HealthHandler. A nil store reports the
// in-memory backend, which is always reachable.
func NewHealthHandler(store StorePinger, version string) *HealthHandler {
	backend := "postgres"
	if store == nil {
		backend = "memory"
	}
	return &HealthHandler{
		store:   store,
		backend: backend,
		version: version,
	}
}

type storeStatus struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
}

type healthData struct {
	Status  string      `json:"status"`
	Version string      `json:"version"`
	Store   storeStatus `json:"store"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	connected := true
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), storePingTimeout)
		defer cancel()
		connected = h.store.Ping(ctx) == nil
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !connected {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	response.Success(w, httpStatus, healthData{
		Status:  status,
		Version: h.version,
		Store: storeStatus{
			Backend:   h.backend,
			Connected: connected,
		},
	}, requestID)
}
