package cloud

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout applies to every transport unless overridden
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent with every request
	DefaultUserAgent = "cloudbridge/1.0"
)

// Option configures a Connection or Client.
type Option func(*clientOptions)

// clientOptions holds configuration options shared by Connection and Client.
type clientOptions struct {
	timeout    time.Duration
	httpClient *http.Client
	codec      Codec
	userAgent  string
	poolSize   int
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:   DefaultTimeout,
		codec:     DefaultCodec(),
		userAgent: DefaultUserAgent,
		poolSize:  DefaultPoolSize,
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient sets the client used by the typed request path.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithCodec sets the serialization configuration.
func WithCodec(codec Codec) Option {
	return func(o *clientOptions) {
		if codec != nil {
			o.codec = codec
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithPoolSize sets the number of pooled download transports.
func WithPoolSize(size int) Option {
	return func(o *clientOptions) {
		if size > 0 {
			o.poolSize = size
		}
	}
}
