package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/pkg/config"
)

// WebhookSender delivers enrollment notifications as JSON POSTs.
type WebhookSender struct {
	client *http.Client
}

// NewWebhookSender constructs the sender with a bounded-timeout client.
func NewWebhookSender(cfg config.WebhookConfig) *WebhookSender {
	return &WebhookSender{client: &http.Client{Timeout: cfg.Timeout}}
}

// Name identifies the delivery channel.
func (s *WebhookSender) Name() string { return "webhook" }

// Endpoint returns the subscription's webhook URL, if any.
func (s *WebhookSender) Endpoint(sub *models.Subscription) string {
	if sub == nil {
		return ""
	}
	return sub.WebhookURL
}

// Send posts the notification to the subscriber's webhook.
func (s *WebhookSender) Send(ctx context.Context, d Delivery) error {
	payload, err := json.Marshal(map[string]string{
		"class_name": d.ClassName,
		"message":    d.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
