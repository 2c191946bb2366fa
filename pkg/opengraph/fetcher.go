package opengraph

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/net/html/charset"

	httputil "github.com/lepinkainen/nsite-directory/pkg/http"
	"github.com/lepinkainen/nsite-directory/pkg/urlutils"
)

// Fetcher downloads pages and extracts their Open Graph metadata
type Fetcher struct {
	client      *httputil.Client
	maxBodySize int64
}

// NewFetcher creates a new Open Graph fetcher. A nil client uses the default
// configuration and a non-positive maxBodySize uses DefaultMaxBodySize.
func NewFetcher(client *httputil.Client, maxBodySize int64) *Fetcher {
	if client == nil {
		client = httputil.NewClient(nil)
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}

	return &Fetcher{
		client:      client,
		maxBodySize: maxBodySize,
	}
}

// FetchMetadata fetches a page and returns its metadata. It never fails
// loudly: any error is logged and reported as nil.
func (f *Fetcher) FetchMetadata(ctx context.Context, targetURL string) *Metadata {
	data, err := f.Fetch(ctx, targetURL)
	if err != nil {
		slog.Debug("Failed to fetch OpenGraph data", "url", targetURL, "error", err)
		return nil
	}
	return data
}

// Fetch fetches a page and returns its metadata or the reason it could not
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Metadata, error) {
	if !urlutils.IsValidURL(targetURL) {
		return nil, fmt.Errorf("invalid URL format: %s", targetURL)
	}

	slog.Debug("Fetching OpenGraph data", "url", targetURL)

	resp, err := f.client.GetWithContext(ctx, targetURL, map[string]string{
		"Accept": acceptHeader,
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if err := httputil.EnsureSuccess(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	pageURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		pageURL = resp.Request.URL.String()
	}

	contentType := httputil.GetContentType(resp)
	body, err := httputil.ReadLimitedBody(resp, f.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	data, err := Extract(utf8Reader(body, contentType))
	if err != nil {
		return nil, err
	}

	if data.Image != "" {
		if image, err := urlutils.ResolveURL(pageURL, data.Image); err == nil {
			data.Image = image
		}
	}

	slog.Debug("Extracted OpenGraph data", "url", targetURL, "title", data.Title, "hasDescription", data.Description != "")
	return data, nil
}

// utf8Reader converts the body to UTF-8 based on the declared or sniffed charset
func utf8Reader(body []byte, contentType string) io.Reader {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		slog.Debug("Failed to detect charset, assuming UTF-8", "error", err)
		return bytes.NewReader(body)
	}
	return reader
}
