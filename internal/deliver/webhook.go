package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/util"
)

// Webhook POSTs the payload to the request's callback URL
type Webhook struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewWebhook creates a callback deliverer. logger may be nil.
func NewWebhook(cfg model.DeliveryConfig, httpCfg model.HTTPConfig, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		httpClient: util.NewHTTPClient(cfg.WebhookTimeout, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
		userAgent:  httpCfg.UserAgent,
		logger:     logger,
	}
}

// Deliver sends the payload. A request without a callback URL is skipped.
func (w *Webhook) Deliver(ctx context.Context, d Delivery) error {
	if d.CallbackURL == "" {
		return nil
	}

	body, err := json.Marshal(d.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", d.RequestID)
	req.Header.Set("X-Traveller-Name", headerSafe(d.TravellerName))
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status: %d", resp.StatusCode)
	}

	w.logger.Info("deliver.webhook.done", "req_id", d.RequestID, "status", d.Payload.Status, "code", resp.StatusCode)
	return nil
}

// headerSafe drops characters a header value cannot carry
func headerSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r < 0x20 && r != '\t' {
			return -1
		}
		return r
	}, s)
}
