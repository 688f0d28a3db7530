package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("default origin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORSMiddleware("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/segments.list", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("configured origin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORSMiddleware("https://app.example.com")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/segments.list", nil))

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORSMiddleware("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/segments.list", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
