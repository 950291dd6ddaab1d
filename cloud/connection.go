package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// maxLoggedBody bounds how much of an undecodable body ends up in the log
const maxLoggedBody = 512

// Result is implemented by every typed response
type Result interface {
	IsSuccess() bool
	Failure() string
}

// Connection sends authenticated JSON requests to the cloud API. It never
// returns errors: each call reports success through its boolean result and
// logs the cause of any failure. Safe for concurrent use.
type Connection struct {
	baseURL    string
	creds      Credentials
	codec      Codec
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewConnection creates a connection to the API rooted at baseURL
func NewConnection(baseURL string, creds Credentials, logger zerolog.Logger, opts ...Option) (*Connection, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newConnection(baseURL, creds, logger, o)
}

func newConnection(baseURL string, creds Credentials, logger zerolog.Logger, o clientOptions) (*Connection, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if creds == nil {
		return nil, fmt.Errorf("%w: credentials are required", ErrInvalidConfig)
	}

	// Ensure baseURL doesn't have trailing slash
	baseURL = strings.TrimRight(baseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrInvalidConfig, baseURL)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Connection{
		baseURL:    baseURL,
		creds:      creds,
		codec:      o.codec,
		userAgent:  o.userAgent,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "cloud").Logger(),
	}, nil
}

// BaseURL returns the API root without trailing slash
func (c *Connection) BaseURL() string {
	return c.baseURL
}

// Scheme reports the authentication scheme attached to every request
func (c *Connection) Scheme() Scheme {
	return c.creds.Scheme()
}

// Request POSTs body to endpoint and decodes the response into out.
// out is decoded on a best-effort basis even when the call fails.
func (c *Connection) Request(ctx context.Context, endpoint string, body, out any) bool {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := c.codec.Marshal(body)
		if err != nil {
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to encode request body")
			return false
		}
		payload = bytes.NewReader(data)
	}

	return c.do(ctx, http.MethodPost, endpoint, payload, out)
}

// Get issues a GET to endpoint; only the authentication check uses it
func (c *Connection) Get(ctx context.Context, endpoint string, out any) bool {
	return c.do(ctx, http.MethodGet, endpoint, http.NoBody, out)
}

func (c *Connection) do(ctx context.Context, method, endpoint string, payload io.Reader, out any) bool {
	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL(endpoint), payload)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to create request")
		return false
	}
	c.prepare(req)

	c.logger.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Msg("Making cloud API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Cloud API request failed")
		return false
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().Err(err).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Failed to read response body")
		return false
	}

	statusOK := resp.StatusCode >= 200 && resp.StatusCode < 300
	if out == nil {
		return statusOK
	}

	// Decode regardless of status so error payloads reach the caller
	if err := c.codec.Unmarshal(data, out); err != nil {
		c.logger.Error().Err(err).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("body", truncate(data, maxLoggedBody)).
			Msg("Failed to decode response")
		return false
	}

	result, hasResult := out.(Result)
	if !statusOK {
		ev := c.logger.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode)
		if hasResult {
			ev = ev.Str("message", result.Failure())
		}
		ev.Msg("Cloud API returned error status")
		return false
	}

	if hasResult && !result.IsSuccess() {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("message", result.Failure()).
			Msg("Cloud API reported failure")
		return false
	}

	return true
}

func (c *Connection) prepare(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	c.creds.Apply(req)
}

func (c *Connection) endpointURL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func truncate(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
