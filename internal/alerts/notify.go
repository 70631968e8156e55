package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scrimshawlife-ctrl/abraxas/internal/resilience"
)

// NotifierConfig configures webhook delivery of derived alerts.
type NotifierConfig struct {
	WebhookURL string
	// RatePerMinute bounds outbound webhook posts. Default: 30.
	RatePerMinute int
}

// Notifier delivers derived alerts to a configured webhook. Delivery is an
// external collaborator concern: failures are logged, never propagated as
// derivation failures.
type Notifier struct {
	cfg     NotifierConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewNotifier creates a webhook notifier.
func NewNotifier(cfg NotifierConfig) *Notifier {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Notifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

// Send delivers alerts to the webhook URL, retrying transient failures.
// Returns the number of alerts successfully sent.
func (n *Notifier) Send(ctx context.Context, alerts []Alert) int {
	if n.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := n.limiter.Wait(ctx); err != nil {
			break
		}

		err := resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			return n.post(ctx, alert)
		})
		if err != nil {
			zap.L().Error("alerts: failed to send alert",
				zap.String("code", alert.Code),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("alerts: alert sent",
			zap.String("code", alert.Code),
			zap.String("severity", string(alert.Severity)),
		)
		sent++
	}
	return sent
}

// post sends a single alert to the webhook URL.
func (n *Notifier) post(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "alerts: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "alerts: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "alerts: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return resilience.NewTransientError(
			eris.Errorf("alerts: webhook returned status %d", resp.StatusCode),
			resp.StatusCode,
		)
	}
	if resp.StatusCode >= 400 {
		return eris.Errorf("alerts: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
