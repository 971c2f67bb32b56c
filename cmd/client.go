package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nextstep/internal/apperr"
	"nextstep/internal/models"
	"nextstep/internal/server/middleware"
)

// adminClient talks to the admin API of a running server.
type adminClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// newAdminClient signs a short-lived admin token when secret is set.
func newAdminClient(baseURL, secret string) (*adminClient, error) {
	c := &adminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	if secret != "" {
		token, err := middleware.NewAdminToken(secret, "nextstep-cli", 15*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("sign admin token: %w", err)
		}
		c.token = token
	}
	return c, nil
}

type jobEnvelope struct {
	Job *models.Job `json:"job"`
}

func (c *adminClient) RunSource(ctx context.Context, sourceID string) (*models.Job, error) {
	var out jobEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/admin/scraping/sources/"+sourceID+"/run", http.StatusAccepted, &out); err != nil {
		return nil, err
	}
	return out.Job, nil
}

func (c *adminClient) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var out jobEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/admin/scraping/jobs/"+jobID, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Job, nil
}

// WaitForJob polls until the job reaches a terminal status.
func (c *adminClient) WaitForJob(ctx context.Context, jobID string, interval, timeout time.Duration) (*models.Job, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		j, err := c.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if j.Status.Terminal() {
			return j, nil
		}
		select {
		case <-ctx.Done():
			return j, fmt.Errorf("job %s still %s: %w", jobID, j.Status, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *adminClient) do(ctx context.Context, method, path string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		var apiErr apperr.Response
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}
