package http

import (
	"net/http"
	"time"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/internal/http/middleware"
	"github.com/callmaker24/segmentation/pkg/logger"
)

type CustomerHandler struct {
	service   domain.CustomerService
	getSecret func() ([]byte, error)
	logger    logger.Logger
	now       func() time.Time
}

func NewCustomerHandler(service domain.CustomerService, getSecret func() ([]byte, error), logger logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		service:   service,
		getSecret: getSecret,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *CustomerHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.NewAuthMiddleware(h.getSecret).RequireAuth()

	mux.Handle("/api/customers.upsert", requireAuth(http.HandlerFunc(h.handleUpsert)))
	mux.Handle("/api/customers.get", requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/customers.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/activities.create", requireAuth(http.HandlerFunc(h.handleCreateActivity)))
}

func (h *CustomerHandler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.UpsertCustomerRequest
	if !decodeJSONBody(w, r, h.logger, &req) {
		return
	}

	customer, organizationID, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !authorizeOrganization(w, r, organizationID) {
		return
	}

	created, err := h.service.UpsertCustomer(r.Context(), customer)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to upsert customer")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{
		"customer": customer,
		"created":  created,
	})
}

func (h *CustomerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetCustomerRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !authorizeOrganization(w, r, req.OrganizationID) {
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), req.OrganizationID, req.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get customer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customer": customer,
	})
}

func (h *CustomerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.ListCustomersRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !authorizeOrganization(w, r, req.OrganizationID) {
		return
	}

	resp, err := h.service.ListCustomers(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list customers")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CustomerHandler) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CreateActivityRequest
	if !decodeJSONBody(w, r, h.logger, &req) {
		return
	}

	activity, err := req.Validate(h.now())
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !authorizeOrganization(w, r, activity.OrganizationID) {
		return
	}

	if err := h.service.RecordActivity(r.Context(), activity); err != nil {
		writeServiceError(w, h.logger, err, "Failed to record activity")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"activity": activity,
	})
}
