package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/internal/http/middleware"
	"github.com/callmaker24/segmentation/pkg/logger"
)

// WriteJSONError writes {"error": message} with the given status code
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes v as JSON with the given status code
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps validation errors to 400, missing entities to 404
// and everything else to 500 with a generic message
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error, failure string) {
	var validationErr domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteJSONError(w, validationErr.Message, http.StatusBadRequest)
	case domain.IsNotFound(err):
		WriteJSONError(w, err.Error(), http.StatusNotFound)
	default:
		log.WithField("error", err.Error()).Error(failure)
		WriteJSONError(w, failure, http.StatusInternalServerError)
	}
}

// authorizeOrganization writes a 403 and returns false when the bearer token
// is not scoped to organizationID
func authorizeOrganization(w http.ResponseWriter, r *http.Request, organizationID string) bool {
	if !middleware.CanAccessOrganization(r.Context(), organizationID) {
		WriteJSONError(w, "Access to organization denied", http.StatusForbidden)
		return false
	}
	return true
}

// decodeJSONBody decodes a POST body, writing a 400 on failure
func decodeJSONBody(w http.ResponseWriter, r *http.Request, log logger.Logger, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.WithField("error", err.Error()).Error("Failed to decode request body")
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
