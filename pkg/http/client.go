// Package http provides the outbound HTTP client used to fetch site pages.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ClientConfig represents HTTP client configuration
type ClientConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	MaxRedirects int
	UserAgent    string
	Headers      map[string]string

	// BlockPrivateNetworks refuses connections to loopback, private and
	// link-local addresses
	BlockPrivateNetworks bool
}

// DefaultConfig returns default HTTP client configuration. Retries are off:
// page metadata is cosmetic and a failed fetch is not worth repeating.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:      10 * time.Second,
		MaxRetries:   0,
		RetryBackoff: 1 * time.Second,
		MaxRedirects: 10,
		UserAgent:    "Mozilla/5.0 (compatible; nsite-directory/1.0; OpenGraph fetcher)",
		Headers:      make(map[string]string),

		BlockPrivateNetworks: true,
	}
}

// Client represents an HTTP client with optional retry logic
type Client struct {
	client *http.Client
	config *ClientConfig
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	maxRedirects := config.MaxRedirects
	client := &http.Client{
		Timeout: config.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if maxRedirects > 0 && len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	if config.BlockPrivateNetworks {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   publicOnlyControl,
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = dialer.DialContext
		// A proxy would be dialed instead of the target, bypassing the check
		transport.Proxy = nil
		client.Transport = transport
	}

	return &Client{
		client: client,
		config: config,
	}
}

// GetWithContext performs an HTTP GET request with context and retry logic.
// Headers given here override the client defaults.
func (c *Client) GetWithContext(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	c.applyHeaders(req)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.doWithRetry(req)
}

// applyHeaders sets the User-Agent and default headers on a request
func (c *Client) applyHeaders(req *http.Request) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}
}

// doWithRetry performs an HTTP request with retry logic
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	var lastErr error
	backoff := c.config.RetryBackoff

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				break
			}
			continue
		}

		if IsRetryableStatusCode(resp.StatusCode) && attempt < c.config.MaxRetries {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("retryable HTTP status: %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	if c.config.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// IsRetryableStatusCode determines if an HTTP status code should be retried
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
