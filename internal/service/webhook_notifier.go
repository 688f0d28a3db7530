package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	svix "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/pkg/logger"
	"github.com/callmaker24/segmentation/pkg/tracing"
)

// WebhookNotifier posts segmentation events signed per the Standard Webhooks
// scheme (webhook-id, webhook-timestamp and webhook-signature headers)
type WebhookNotifier struct {
	url        string
	signer     *svix.Webhook
	httpClient *http.Client
	logger     logger.Logger
	now        func() time.Time
}

var _ domain.WebhookNotifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a notifier. An empty url disables delivery.
// secret is a base64 key, optionally prefixed with "whsec_".
func NewWebhookNotifier(url, secret string, httpClient *http.Client, logger logger.Logger) (*WebhookNotifier, error) {
	n := &WebhookNotifier{
		url:        url,
		httpClient: httpClient,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if n.httpClient == nil {
		n.httpClient = tracing.WrapHTTPClient(&http.Client{Timeout: 10 * time.Second})
	}

	if url == "" {
		return n, nil
	}
	if secret == "" {
		return nil, fmt.Errorf("webhook secret is required when a webhook url is set")
	}

	signer, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	n.signer = signer
	return n, nil
}

// Enabled reports whether a destination is configured
func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

// Notify sends one event. It returns nil without a configured url.
func (n *WebhookNotifier) Notify(ctx context.Context, eventType string, payload interface{}) error {
	if !n.Enabled() {
		return nil
	}

	ctx, span := tracing.StartServiceSpan(ctx, "WebhookNotifier", "Notify")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	msgID := "msg_" + uuid.New().String()
	now := n.now()

	envelope := map[string]interface{}{
		"id":        msgID,
		"type":      eventType,
		"timestamp": now.Format(time.RFC3339),
		"data":      payload,
	}

	var body []byte
	body, err = json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	var signature string
	signature, err = n.signer.Sign(msgID, now, body)
	if err != nil {
		return fmt.Errorf("failed to sign webhook payload: %w", err)
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("webhook-id", msgID)
	req.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("webhook-signature", signature)

	var resp *http.Response
	resp, err = n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	// Read response body (limit to 1KB)
	responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("webhook endpoint returned HTTP %d: %s", resp.StatusCode, string(responseBody))
		return err
	}

	n.logger.WithFields(map[string]interface{}{
		"event_type":  eventType,
		"webhook_id":  msgID,
		"status_code": resp.StatusCode,
	}).Debug("Segmentation webhook delivered")

	return nil
}
