package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds every outbound call unless configured otherwise
const DefaultTimeout = 30 * time.Second

// Config defines the setup for an outbound HTTP client.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	// Transport replaces the default round tripper, e.g. in tests
	Transport http.RoundTripper
}

// New creates an *http.Client with a bounded timeout and redirect policy.
func New(cfg Config) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 5
	}

	c := &http.Client{Timeout: cfg.Timeout}

	limit := cfg.MaxRedirects
	if limit < 0 {
		c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		c.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}
	return c
}

// IsTimeout reports whether err came from a deadline rather than a
// connection or protocol failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// CloseIdle releases pooled connections held by c, if it supports it.
func CloseIdle(c any) {
	if ci, ok := c.(interface{ CloseIdleConnections() }); ok {
		ci.CloseIdleConnections()
	}
}
