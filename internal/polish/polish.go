package polish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FallbackSuffix marks feedback stored without AI polishing after the
// rewrite service failed or was unavailable.
const FallbackSuffix = " [AI polishing unavailable]"

type Config struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client rewrites feedback text through an external inference API.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether polishing can actually run: the feature flag
// alone is not enough without an endpoint and a key.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.Endpoint != "" && c.cfg.APIKey != ""
}

// Rewrite sends the text to the inference endpoint and returns the
// polished variant. Callers fall back to the original text with
// FallbackSuffix on error.
func (c *Client) Rewrite(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("polish endpoint returned status %d", resp.StatusCode)
	}

	var results []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", err
	}
	if len(results) == 0 || strings.TrimSpace(results[0].SummaryText) == "" {
		return "", fmt.Errorf("polish endpoint returned empty result")
	}
	return strings.TrimSpace(results[0].SummaryText), nil
}
