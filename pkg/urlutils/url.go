// Package urlutils provides URL validation and resolution helpers.
package urlutils

import (
	"net/url"
	"strings"
)

// IsValidURL checks if a URL is absolute and names a host. A port alone is not a host.
func IsValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Hostname() != ""
}

// HasScheme reports whether urlStr parses with one of the given schemes,
// compared case-insensitively
func HasScheme(urlStr string, schemes ...string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	for _, scheme := range schemes {
		if strings.EqualFold(u.Scheme, scheme) {
			return true
		}
	}
	return false
}

// ResolveURL resolves a relative URL against a base URL.
// If the URL is already absolute, it returns it unchanged.
func ResolveURL(baseURL, relativeURL string) (string, error) {
	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", err
	}

	if rel.IsAbs() {
		return relativeURL, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(rel).String(), nil
}
