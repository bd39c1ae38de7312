package outbox

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/logging"
)

const (
	SignatureHeader         = "X-Webhook-Signature"
	EventTypeHeader         = "X-Event-Type"
	EventIDHeader           = "X-Event-ID"
	NeedsConfirmationHeader = "X-Needs-Confirmation"
)

// WebhookConduit POSTs the event JSON to a fixed URL, signed with
// HMAC-SHA256 over the body.
type WebhookConduit struct {
	url        string
	secret     string
	httpClient *http.Client
}

func NewWebhookConduit(url, secret string, timeout time.Duration) *WebhookConduit {
	return &WebhookConduit{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *WebhookConduit) Send(ctx context.Context, event domain.PaymentEvent) error {
	log := logging.FromContext(ctx)

	body, err := domain.MarshalEvent(event)
	if err != nil {
		return fmt.Errorf("WebhookConduit.Send: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("WebhookConduit.Send: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(c.secret, body))
	req.Header.Set(EventTypeHeader, string(event.Name()))
	req.Header.Set(EventIDHeader, event.ID().String())
	req.Header.Set(NeedsConfirmationHeader, strconv.FormatBool(event.NeedsConfirmation()))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("WebhookConduit.Send: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("webhook response received",
		"event_id", event.ID(),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("WebhookConduit.Send: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
