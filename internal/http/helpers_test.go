package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/callmaker24/segmentation/internal/domain/mocks"
	"github.com/callmaker24/segmentation/internal/http/middleware"
)

var testJWTSecret = []byte("test-jwt-secret-key-for-testing-32bytes")

func getTestSecret() ([]byte, error) { return testJWTSecret, nil }

func setupMockLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().WithFields(gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().Info(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()
	return mockLogger
}

func createAuthToken(t *testing.T, organizationID string) string {
	claims := &middleware.OrganizationClaims{
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testJWTSecret)
	require.NoError(t, err)
	return signed
}

// doRequest sends a request through mux authenticated for organizationID;
// an empty organizationID sends no token
func doRequest(t *testing.T, mux http.Handler, method, target, organizationID string, body interface{}) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			payload.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&payload).Encode(b))
		}
	}

	req := httptest.NewRequest(method, target, &payload)
	req.Header.Set("Content-Type", "application/json")
	if organizationID != "" {
		req.Header.Set("Authorization", "Bearer "+createAuthToken(t, organizationID))
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}
