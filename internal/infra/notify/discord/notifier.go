// Package discord delivers transaction notifications to a Discord channel
// through an incoming webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabapcia/hosewatch/internal/addresswatch"
	transporthttp "github.com/gabapcia/hosewatch/internal/pkg/transport/http"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrUnexpectedStatus is returned when the webhook answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected webhook status")

type notifier struct {
	webhookURL string
	template   Message
	httpClient *retryablehttp.Client
}

var _ addresswatch.TransactionNotifier = (*notifier)(nil)

// NotifyTransaction renders n with the message template and POSTs it to the
// webhook once.
func (d *notifier) NotifyTransaction(ctx context.Context, n addresswatch.Notification) error {
	body, err := json.Marshal(BuildPayload(d.template, n))
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}
	return nil
}

type config struct {
	httpClient *retryablehttp.Client
}

// Option configures optional notifier dependencies.
type Option func(*config)

// WithHTTPClient overrides the HTTP client. The default never retries.
func WithHTTPClient(c *retryablehttp.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// NewNotifier builds a notifier posting to webhookURL with payloads derived from template.
func NewNotifier(webhookURL string, template Message, opts ...Option) *notifier {
	cfg := config{
		httpClient: transporthttp.NewClient(transporthttp.WithRetryMax(0)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &notifier{
		webhookURL: webhookURL,
		template:   template,
		httpClient: cfg.httpClient,
	}
}
