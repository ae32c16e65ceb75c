package pubchem

import (
	"net/http"
	"time"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Per-call deadlines still
// apply on top of any client-level timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.Named("pubchem")
		}
	}
}

// WithRecorder sets the per-request metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithRetryMax sets how many times a 429/5xx or transport failure is retried.
func WithRetryMax(retryMax int) Option {
	return func(c *Client) {
		if retryMax >= 0 {
			c.retryMax = retryMax
		}
	}
}

// WithRetryWait sets the backoff bounds. max is ignored unless max >= min.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		if min > 0 {
			c.retryWaitMin = min
			if max >= min {
				c.retryWaitMax = max
			}
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithLookupTimeout bounds CID, property and synonym requests.
func WithLookupTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

// WithStructureTimeout bounds SDF requests.
func WithStructureTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.structureTimeout = d
		}
	}
}

// WithRateLimit sets requests per second; 0 disables limiting.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps >= 0 {
			c.rps = rps
		}
	}
}
