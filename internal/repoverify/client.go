// Package repoverify calls the repository provider's ownership check.
// The engine treats repository URLs as opaque; this client only asks the
// provider whether a given user controls a URL.
package repoverify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Config struct {
	// VerifyURL is the provider endpoint. Empty disables verification.
	VerifyURL string
	Timeout   time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type verifyRequest struct {
	RepoURL string `json:"repo_url"`
	UserID  int64  `json:"user_id"`
}

type verifyResponse struct {
	Owned bool `json:"owned"`
}

// VerifyOwnership asks the provider whether userID controls repoURL.
func (c *Client) VerifyOwnership(ctx context.Context, repoURL string, userID int64) (bool, error) {
	body, err := json.Marshal(verifyRequest{RepoURL: repoURL, UserID: userID})
	if err != nil {
		return false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verify request: status %d", resp.StatusCode)
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return vr.Owned, nil
}
