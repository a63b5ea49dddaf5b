// Package platform is the REST client for the commerce platform admin API:
// variant lookups, recurring application charges and price rules. Every call
// takes an explicit Session; the client keeps no per-shop state.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"kitly/internal/domain"
)

// Session identifies the shop a call acts on behalf of.
type Session struct {
	Shop        string
	AccessToken string
}

const defaultAPIVersion = "2024-10"

type Client struct {
	httpClient *http.Client
	apiVersion string
	// baseURL overrides the per-shop admin URL when set; used for tests and
	// local platform stubs.
	baseURL string
	logger  *log.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiVersion: defaultAPIVersion,
		logger:     log.New(os.Stdout, "[platform] ", log.LstdFlags|log.LUTC),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(sess Session, path string) string {
	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s/admin/api/%s", sess.Shop, c.apiVersion)
	}
	return base + path
}

func (c *Client) do(ctx context.Context, sess Session, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(sess, path), reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Access-Token", sess.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Printf("%s shop=%s timeout: %v", op, sess.Shop, err)
			return &domain.TimeoutError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Printf("%s shop=%s status=%d", op, sess.Shop, resp.StatusCode)
		return &domain.PlatformError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
