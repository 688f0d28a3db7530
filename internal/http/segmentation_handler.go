package http

import (
	"math"
	"net/http"
	"strconv"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/internal/http/middleware"
	"github.com/callmaker24/segmentation/pkg/logger"
	"github.com/callmaker24/segmentation/pkg/ratelimiter"
)

// EvaluateRateLimitNamespace is the rate limiter namespace of segmentation.evaluate
const EvaluateRateLimitNamespace = "segmentation.evaluate"

type SegmentationHandler struct {
	segmentation domain.SegmentationService
	segments     domain.SegmentService
	rateLimiter  *ratelimiter.RateLimiter
	getSecret    func() ([]byte, error)
	logger       logger.Logger
}

func NewSegmentationHandler(
	segmentation domain.SegmentationService,
	segments domain.SegmentService,
	rateLimiter *ratelimiter.RateLimiter,
	getSecret func() ([]byte, error),
	logger logger.Logger,
) *SegmentationHandler {
	return &SegmentationHandler{
		segmentation: segmentation,
		segments:     segments,
		rateLimiter:  rateLimiter,
		getSecret:    getSecret,
		logger:       logger,
	}
}

func (h *SegmentationHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.NewAuthMiddleware(h.getSecret).RequireAuth()

	mux.Handle("/api/segmentation.evaluate", requireAuth(http.HandlerFunc(h.handleEvaluate)))
	mux.Handle("/api/segmentation.recalculate", requireAuth(http.HandlerFunc(h.handleRecalculate)))
	mux.Handle("/api/segmentation.assign", requireAuth(http.HandlerFunc(h.handleAssign)))
	mux.Handle("/api/customers.recalculate", requireAuth(http.HandlerFunc(h.handleRecalculateCustomer)))
}

func (h *SegmentationHandler) decodeOrganizationRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	var req domain.OrganizationRequest
	if !decodeJSONBody(w, r, h.logger, &req) {
		return "", false
	}
	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	if !authorizeOrganization(w, r, req.OrganizationID) {
		return "", false
	}
	return req.OrganizationID, true
}

// handleEvaluate runs the full pipeline: recalculate every customer then assign segments
func (h *SegmentationHandler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	organizationID, ok := h.decodeOrganizationRequest(w, r)
	if !ok {
		return
	}

	if h.rateLimiter != nil && !h.rateLimiter.Allow(EvaluateRateLimitNamespace, organizationID) {
		retryAfter := h.rateLimiter.RetryAfter(EvaluateRateLimitNamespace, organizationID)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		h.logger.WithField("organization_id", organizationID).Warn("Segmentation evaluation rate limited")
		WriteJSONError(w, "Too many evaluation requests, please retry later", http.StatusTooManyRequests)
		return
	}

	result, err := h.segmentation.EvaluateOrganization(r.Context(), organizationID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to evaluate segments")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SegmentationHandler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	organizationID, ok := h.decodeOrganizationRequest(w, r)
	if !ok {
		return
	}

	result, err := h.segmentation.RecalculateOrganization(r.Context(), organizationID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to recalculate customers")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SegmentationHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	organizationID, ok := h.decodeOrganizationRequest(w, r)
	if !ok {
		return
	}

	summaries, err := h.segments.AssignSegments(r.Context(), organizationID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to assign segments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments": summaries,
	})
}

func (h *SegmentationHandler) handleRecalculateCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.RecalculateCustomerRequest
	if !decodeJSONBody(w, r, h.logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !authorizeOrganization(w, r, req.OrganizationID) {
		return
	}

	snapshot, err := h.segmentation.RecalculateCustomer(r.Context(), req.OrganizationID, req.CustomerID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to recalculate customer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customer_id":  req.CustomerID,
		"segmentation": snapshot,
	})
}
