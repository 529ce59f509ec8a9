package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"tutoring-service/pkg/sl"
)

// Webhook posts a run-failure payload to a configured URL. Delivery is
// best-effort: failures here are logged and swallowed so a broken
// receiver cannot take the job down with it.
type Webhook struct {
	log    *slog.Logger
	url    string
	client *http.Client
}

func NewWebhook(log *slog.Logger, url string) *Webhook {
	return &Webhook{
		log:    log,
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) NotifyFailure(ctx context.Context, runID string, runErr error) {
	const op = "notify.Webhook.NotifyFailure"

	if w == nil || w.url == "" {
		return
	}

	log := w.log.With(slog.String("op", op), slog.String("run_id", runID))

	body, err := json.Marshal(map[string]string{
		"run_id":    runID,
		"error":     runErr.Error(),
		"failed_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Error("Failed to marshal webhook payload", sl.Err(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		log.Error("Failed to build webhook request", sl.Err(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		log.Error("Failed to deliver failure webhook", sl.Err(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Error("Failure webhook rejected", slog.Int("status", resp.StatusCode))
		return
	}

	log.Info("Failure webhook delivered")
}
