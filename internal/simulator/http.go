package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/okian/powerstream/internal/adapters/notification"
)

const notificationField = "notification"

// HTTPClient wraps http.Client with the server base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client for baseURL. timeout bounds regular
// requests; streams use their own context deadline.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// ackResponse mirrors the server's ingest acknowledgement.
type ackResponse struct {
	Status   string `json:"status"`
	Instance string `json:"instance"`
	Events   int    `json:"events"`
}

// CheckHealth verifies the service answers /healthz.
func (c *HTTPClient) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// PostNotification uploads one notification as a multipart form, the way
// the machine gateway does, and returns the number of accepted events.
func (c *HTTPClient) PostNotification(ctx context.Context, instance string, entries []notification.Entry) (int, error) {
	doc, err := notification.Encode(instance, entries)
	if err != nil {
		return 0, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField(notificationField, string(doc)); err != nil {
		return 0, err
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("post notification for %s: status %d: %s", instance, resp.StatusCode, bytes.TrimSpace(raw))
	}
	var ack ackResponse
	if err := json.Unmarshal(raw, &ack); err != nil {
		return 0, fmt.Errorf("decode ack: %w", err)
	}
	if ack.Status != "accepted" {
		return 0, fmt.Errorf("post notification for %s: %s", instance, ack.Status)
	}
	return ack.Events, nil
}
