package service

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	svix "github.com/standard-webhooks/standard-webhooks/libraries/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/callmaker24/segmentation/internal/domain"
)

var testWebhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("segmentation-webhook-test-secret"))

func TestWebhookNotifier_Notify(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("delivers a signed event", func(t *testing.T) {
		var (
			body    []byte
			headers http.Header
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ = io.ReadAll(r.Body)
			headers = r.Header.Clone()
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		notifier, err := NewWebhookNotifier(server.URL, testWebhookSecret, server.Client(), setupMockLogger(ctrl))
		require.NoError(t, err)
		// signatures older than the verifier tolerance are rejected
		notifier.now = func() time.Time { return time.Now().UTC() }

		err = notifier.Notify(context.Background(), domain.EventSegmentsAssigned, map[string]interface{}{
			"organization_id": "org1",
			"segments":        2,
		})
		require.NoError(t, err)

		verifier, err := svix.NewWebhook(testWebhookSecret)
		require.NoError(t, err)
		assert.NoError(t, verifier.Verify(body, headers))

		assert.Equal(t, domain.EventSegmentsAssigned, gjson.GetBytes(body, "type").String())
		assert.Equal(t, "org1", gjson.GetBytes(body, "data.organization_id").String())
		assert.Equal(t, headers.Get("webhook-id"), gjson.GetBytes(body, "id").String())
		assert.Equal(t, "application/json", headers.Get("Content-Type"))
	})

	t.Run("non 2xx response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}))
		defer server.Close()

		notifier, err := NewWebhookNotifier(server.URL, testWebhookSecret, server.Client(), setupMockLogger(ctrl))
		require.NoError(t, err)

		err = notifier.Notify(context.Background(), domain.EventCustomersRecalculated, map[string]interface{}{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
		assert.Contains(t, err.Error(), "upstream down")
	})

	t.Run("disabled without url", func(t *testing.T) {
		notifier, err := NewWebhookNotifier("", "", nil, setupMockLogger(ctrl))
		require.NoError(t, err)
		assert.False(t, notifier.Enabled())
		assert.NoError(t, notifier.Notify(context.Background(), domain.EventSegmentsAssigned, nil))
	})
}

func TestNewWebhookNotifier_Secret(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := NewWebhookNotifier("https://hooks.example.com", "", nil, setupMockLogger(ctrl))
	assert.Error(t, err)

	_, err = NewWebhookNotifier("https://hooks.example.com", "whsec_%%%not-base64", nil, setupMockLogger(ctrl))
	assert.Error(t, err)

	notifier, err := NewWebhookNotifier("https://hooks.example.com", testWebhookSecret, nil, setupMockLogger(ctrl))
	require.NoError(t, err)
	assert.True(t, notifier.Enabled())
	assert.NotNil(t, notifier.httpClient)
}
