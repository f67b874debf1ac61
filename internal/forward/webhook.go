package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mind-engage/mindcheck/internal/quiz"
)

type WebhookConfig struct {
	URL string

	// Optional client-credentials auth for the receiving endpoint.
	TokenURL     string
	ClientID     string
	ClientSecret string

	Timeout time.Duration
}

// Webhook POSTs each result as JSON to a fixed URL.
type Webhook struct {
	url  string
	http *http.Client
}

func NewWebhook(cfg WebhookConfig) *Webhook {
	h := &http.Client{}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(context.Background())
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Webhook{url: cfg.URL, http: h}
}

func (w *Webhook) Deliver(ctx context.Context, r quiz.Result) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", r.ID)
	res, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return errors.Errorf("webhook: %s", res.Status)
	}
	return nil
}
