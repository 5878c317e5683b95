package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Retry settings for throttled requests.
const (
	maxThrottleRetries = 5
	defaultRetryAfter  = time.Second
)

// ErrUnexpectedStatus is returned when the service answers with a status the
// caller did not expect.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the depth chart HTTP API.
type Client struct {
	http    *http.Client
	baseURL string
	// throttled is called once per 429 response.
	throttled func()
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		throttled: func() {},
	}
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: healthz returned %d", ErrUnexpectedStatus, status)
	}
	return nil
}

// AddPlayer posts p and returns the response status.
func (c *Client) AddPlayer(ctx context.Context, p Player) (int, error) {
	status, _, err := c.do(ctx, http.MethodPost, "/depthchart", p)
	return status, err
}

// Chart fetches the full depth chart.
func (c *Client) Chart(ctx context.Context) ([]Player, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/depthchart", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: chart returned %d", ErrUnexpectedStatus, status)
	}
	var chart []Player
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return chart, nil
}

// PlayersUnder fetches the players ranked below id in g. It returns the
// status so callers can assert on 404.
func (c *Client) PlayersUnder(ctx context.Context, g Group, id int) ([]Player, int, error) {
	path := "/depthchart/" + url.PathEscape(g.GameName) + "/" + url.PathEscape(g.Position) + "/" + strconv.Itoa(id)
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil || status != http.StatusOK {
		return nil, status, err
	}
	var under []Player
	if err := json.Unmarshal(body, &under); err != nil {
		return nil, status, fmt.Errorf("decode players under: %w", err)
	}
	return under, status, nil
}

// do sends a request, retrying while the service throttles it.
func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return 0, nil, fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxThrottleRetries {
			return resp.StatusCode, data, nil
		}

		c.throttled()
		select {
		case <-ctx.Done():
			return resp.StatusCode, data, ctx.Err()
		case <-time.After(retryAfter(resp)):
		}
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultRetryAfter
}
