package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	// ClaimsKey holds the verified *OrganizationClaims of the request
	ClaimsKey contextKey = "auth_claims"
)

// OrganizationClaims are the claims of an API bearer token. A token is
// scoped to exactly one organization.
type OrganizationClaims struct {
	OrganizationID string `json:"organization_id"`
	jwt.RegisteredClaims
}

// AuthConfig verifies HS256 bearer tokens
type AuthConfig struct {
	getSecret func() ([]byte, error)
}

// NewAuthMiddleware creates the auth middleware. getSecret returns the HMAC key.
func NewAuthMiddleware(getSecret func() ([]byte, error)) *AuthConfig {
	return &AuthConfig{getSecret: getSecret}
}

// RequireAuth rejects requests without a valid bearer token carrying an organization claim
func (ac *AuthConfig) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				writeError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			secret, err := ac.getSecret()
			if err != nil {
				writeError(w, "Authentication unavailable", http.StatusInternalServerError)
				return
			}

			claims := &OrganizationClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !parsed.Valid {
				writeError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			if claims.OrganizationID == "" {
				writeError(w, "Organization not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified claims of the request, if any
func ClaimsFromContext(ctx context.Context) (*OrganizationClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*OrganizationClaims)
	return claims, ok && claims != nil
}

// CanAccessOrganization reports whether the request token is scoped to organizationID
func CanAccessOrganization(ctx context.Context, organizationID string) bool {
	claims, ok := ClaimsFromContext(ctx)
	return ok && organizationID != "" && claims.OrganizationID == organizationID
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
