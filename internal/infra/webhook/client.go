// Package webhook forwards session events to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voicecalc/internal/domain"
	"voicecalc/internal/infra"
)

type Client struct {
	url        string
	token      string
	kinds      map[domain.EventKind]bool
	httpClient *http.Client
	retry      infra.RetryConfig
}

// NewClient posts events of the given kinds to url. With no kinds, results
// and errors are forwarded. An empty url disables the client.
func NewClient(url, token string, kinds []domain.EventKind, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if len(kinds) == 0 {
		kinds = []domain.EventKind{domain.EventKindResult, domain.EventKindError}
	}
	set := make(map[domain.EventKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return &Client{
		url:        url,
		token:      token,
		kinds:      set,
		httpClient: &http.Client{Timeout: timeout},
		retry:      infra.DefaultRetryConfig(),
	}
}

func (c *Client) Publish(ctx context.Context, ev domain.Event) error {
	if c.url == "" || !c.kinds[ev.Kind] {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	return infra.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Event-ID", ev.ID)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending event: %w", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 300 {
			err := fmt.Errorf("webhook error: %s", resp.Status)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return err
			}
			return infra.Permanent(err)
		}
		return nil
	})
}
