package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	t "github.com/rius2g/musicchain/backend/pkg/types"
)

// Client reports manifests to a collector running `musicchain serve`.
type Client struct {
	CollectorURL string
	HTTPClient   *http.Client
}

func NewClient(collectorURL string) *Client {
	return &Client{
		CollectorURL: strings.TrimRight(collectorURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Submit posts m to the collector and expects 201 Created.
func (c *Client) Submit(ctx context.Context, m *t.Manifest) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	endpoint := c.CollectorURL + "/deployments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit manifest to collector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("collector returned non-201 status: %s", resp.Status)
	}
	return nil
}
