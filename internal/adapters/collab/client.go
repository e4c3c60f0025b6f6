package collab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"route-scheduling-service/internal/domain"
)

// client is the shared HTTP plumbing behind every collaborator adapter
// (fleet, skills, product catalog). Transient failures are retried with
// exponential backoff; what still fails after the retries surfaces as
// Unavailable so the core can distinguish "unreachable" from "no".
type client struct {
	baseURL string
	apiKey  string
	session *http.Client
}

func newClient(baseURL, apiKey string) (*client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("collaborator client: base URL must not be empty")
	}
	return &client{
		baseURL: baseURL,
		apiKey:  apiKey,
		session: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (c *client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
	return req, nil
}

func (c *client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// get retries transient failures (network errors, 429/5xx responses) with
// exponential backoff while respecting context cancellation. A 404 maps to
// NotFound; anything still failing after the last attempt maps to
// Unavailable.
func (c *client) get(ctx context.Context, path string) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := c.newRequest(ctx, http.MethodGet, path)
		if err != nil {
			return nil, err
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}

		retry := false
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, fmt.Errorf("%s: %v: %w", path, lastErr, domain.ErrUnavailable)
}
