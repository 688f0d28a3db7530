package http

import (
	"net/http"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/internal/http/middleware"
	"github.com/callmaker24/segmentation/pkg/logger"
)

type SegmentHandler struct {
	service   domain.SegmentService
	getSecret func() ([]byte, error)
	logger    logger.Logger
}

func NewSegmentHandler(service domain.SegmentService, getSecret func() ([]byte, error), logger logger.Logger) *SegmentHandler {
	return &SegmentHandler{
		service:   service,
		getSecret: getSecret,
		logger:    logger,
	}
}

func (h *SegmentHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.NewAuthMiddleware(h.getSecret).RequireAuth()

	mux.Handle("/api/segments.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/segments.get", requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/segments.customers", requireAuth(http.HandlerFunc(h.handleGetCustomers)))
}

func (h *SegmentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.ListSegmentsRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !authorizeOrganization(w, r, req.OrganizationID) {
		return
	}

	segments, err := h.service.ListSegments(r.Context(), req.OrganizationID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get segments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments": segments,
	})
}

func (h *SegmentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetSegmentRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !authorizeOrganization(w, r, req.OrganizationID) {
		return
	}

	segment, err := h.service.GetSegment(r.Context(), req.OrganizationID, req.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get segment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segment": segment,
	})
}

func (h *SegmentHandler) handleGetCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetSegmentCustomersRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !authorizeOrganization(w, r, req.OrganizationID) {
		return
	}

	resp, err := h.service.GetSegmentCustomers(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get segment customers")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
