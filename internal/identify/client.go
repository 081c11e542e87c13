package identify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize caps how much of an upstream response is read (1 MB).
const maxResponseSize = 1 << 20

// Config holds the settings for the AI identification integration. Leaving
// Endpoint empty disables the feature.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Suggestion is one candidate species returned by the vision API.
type Suggestion struct {
	Name           string  `json:"name"`
	ScientificName string  `json:"scientific_name,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// Client calls an external vision API that identifies plants from photos.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewClient creates an identification client, or nil when the integration is
// not configured. Callers treat a nil client as feature-disabled.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Identify sends a base64-encoded image to the vision API and returns
// candidate species ordered by confidence.
func (c *Client) Identify(ctx context.Context, imageBase64 string) ([]Suggestion, error) {
	payload, err := json.Marshal(map[string]any{
		"images": []string{imageBase64},
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling identify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building identify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling vision api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision api returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Suggestions []struct {
			Name           string  `json:"name"`
			ScientificName string  `json:"scientific_name"`
			Probability    float64 `json:"probability"`
		} `json:"suggestions"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding vision response: %w", err)
	}

	out := make([]Suggestion, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		out = append(out, Suggestion{
			Name:           s.Name,
			ScientificName: s.ScientificName,
			Confidence:     s.Probability,
		})
	}
	return out, nil
}
