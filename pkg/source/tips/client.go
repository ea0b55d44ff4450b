package tips

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/frogopher/internal/ratelimiter"
)

const (
	// DefaultBaseURL is the public frog.tips API root.
	DefaultBaseURL = "https://frog.tips/api/2"

	// DefaultTimeout bounds a single API call.
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 4 << 20
)

// ErrStatus is returned when the API answers with anything but 200 OK.
var ErrStatus = errors.New("unexpected status")

// Tip is one record of the frog.tips archive.
type Tip struct {
	Approved  bool   `json:"approved"`
	Moderated bool   `json:"moderated"`
	Tweeted   uint64 `json:"tweeted"`
	Number    uint64 `json:"number"`
	Tip       string `json:"tip"`
}

// Query is the body of a search request. A nil Tip searches without text criteria.
type Query struct {
	Tweeted  bool    `json:"tweeted"`
	Approved bool    `json:"approved"`
	Tip      *string `json:"tip,omitempty"`
}

type searchResults struct {
	Results []Tip `json:"results"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the API root without a trailing slash.
	// Default: DefaultBaseURL
	BaseURL string

	// APIKey is sent verbatim in the Authorization header.
	APIKey string

	// Timeout bounds each call, rate limiting excluded.
	// Default: DefaultTimeout
	Timeout time.Duration

	// RequestsPerSecond and Burst throttle outgoing calls. Zero disables throttling.
	RequestsPerSecond uint
	Burst             uint

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the frog.tips API.
//
// A Client is safe for concurrent use: http.Client and the rate limiter
// both are, and the remaining fields are never written after NewClient.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *ratelimiter.RateLimiter
}

// NewClient returns a Client for cfg.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		limiter: ratelimiter.New(cfg.RequestsPerSecond, cfg.Burst),
	}
}

// Tip fetches tip number n.
func (c *Client) Tip(ctx context.Context, n uint64) (*Tip, error) {
	var tip Tip
	if err := c.do(ctx, http.MethodGet, "/tips/"+strconv.FormatUint(n, 10), nil, &tip); err != nil {
		return nil, err
	}
	return &tip, nil
}

// Search runs q against the archive and returns the matching tips in API order.
func (c *Client) Search(ctx context.Context, q Query) ([]Tip, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal search query: %w", err)
	}

	var results searchResults
	if err := c.do(ctx, http.MethodPost, "/tips/search", body, &results); err != nil {
		return nil, err
	}
	return results.Results, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.apiKey)
	req.Close = true
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response of %s %s: %w", method, url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: %w %d", method, url, ErrStatus, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response of %s %s: %w", method, url, err)
	}
	return nil
}
