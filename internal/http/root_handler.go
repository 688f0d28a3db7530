package http

import (
	"context"
	"net/http"
	"time"

	"github.com/callmaker24/segmentation/pkg/logger"
)

// Pinger checks the database connection
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RootHandler serves the unauthenticated health and version endpoints
type RootHandler struct {
	db      Pinger
	version string
	logger  logger.Logger
}

func NewRootHandler(db Pinger, version string, logger logger.Logger) *RootHandler {
	return &RootHandler{
		db:      db,
		version: version,
		logger:  logger,
	}
}

func (h *RootHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api", h.handleVersion)
}

func (h *RootHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.WithField("error", err.Error()).Error("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": "unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "ok",
	})
}

func (h *RootHandler) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "segmentation",
		"version": h.version,
	})
}
