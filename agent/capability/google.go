package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxGoogleResponseBytes = 4 << 20

// GoogleConfig covers every Google REST adapter. A missing access token
// means the dependent providers are not constructed at all.
type GoogleConfig struct {
	AccessToken string        `envconfig:"ACCESS_TOKEN" split_words:"true"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"20s"`
}

// googleClient is a minimal bearer-token REST client shared by the Docs,
// Sheets, Gmail, and Analytics providers.
type googleClient struct {
	token      string
	httpClient *http.Client
}

func newGoogleClient(cfg GoogleConfig) (*googleClient, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errors.New("google access token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &googleClient{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// do issues one JSON request and decodes the JSON response into out when
// out is non-nil. Non-2xx statuses surface as errors with the body text.
func (c *googleClient) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGoogleResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("google api status=%d body=%s", resp.StatusCode, truncateBody(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncateBody(raw []byte) string {
	const limit = 512
	s := string(raw)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
