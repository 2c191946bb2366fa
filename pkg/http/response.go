package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ReadLimitedBody reads at most limit bytes of the response body and closes it.
// A limit of zero or less reads the whole body.
func ReadLimitedBody(resp *http.Response, limit int64) ([]byte, error) {
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	var reader io.Reader = resp.Body
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit)
	}

	return io.ReadAll(reader)
}

// EnsureSuccess checks that the response has a 2xx status
func EnsureSuccess(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}
	return nil
}

// GetContentType returns the content type of the response
func GetContentType(resp *http.Response) string {
	return resp.Header.Get("Content-Type")
}
