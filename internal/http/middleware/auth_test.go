package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret-key-for-testing-32bytes")

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims *OrganizationClaims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(organizationID string) *OrganizationClaims {
	return &OrganizationClaims{
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestRequireAuth(t *testing.T) {
	var gotClaims *OrganizationClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := NewAuthMiddleware(func() ([]byte, error) { return testSecret, nil }).RequireAuth()(next)

	expired := validClaims("org1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong key", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other-secret"), validClaims("org1")), http.StatusUnauthorized},
		{"wrong algorithm", "Bearer " + signToken(t, jwt.SigningMethodHS512, testSecret, validClaims("org1")), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, expired), http.StatusUnauthorized},
		{"no organization", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("")), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("org1")), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims = nil
			req := httptest.NewRequest(http.MethodGet, "/api/segments.list", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, gotClaims)
				assert.Equal(t, "org1", gotClaims.OrganizationID)
			} else {
				assert.Nil(t, gotClaims)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireAuth_SecretUnavailable(t *testing.T) {
	handler := NewAuthMiddleware(func() ([]byte, error) { return nil, errors.New("no key") }).RequireAuth()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { t.Fatal("next must not run") }),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/segments.list", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("org1")))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCanAccessOrganization(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, CanAccessOrganization(req.Context(), "org1"))

	var ctxReq *http.Request
	handler := NewAuthMiddleware(func() ([]byte, error) { return testSecret, nil }).RequireAuth()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ctxReq = r }),
	)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("org1")))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, ctxReq)
	assert.True(t, CanAccessOrganization(ctxReq.Context(), "org1"))
	assert.False(t, CanAccessOrganization(ctxReq.Context(), "org2"))
	assert.False(t, CanAccessOrganization(ctxReq.Context(), ""))
}
