package opengraph

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lepinkainen/nsite-directory/pkg/kvstore"
)

// MetadataFetcher fetches metadata from the network, returning nil on failure
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, targetURL string) *Metadata
}

// Ensure Fetcher implements MetadataFetcher
var _ MetadataFetcher = (*Fetcher)(nil)

// Resolver answers metadata lookups from the key-value store, fetching and
// storing on a miss. Concurrent lookups of one URL are not coalesced.
type Resolver struct {
	store   kvstore.Store
	fetcher MetadataFetcher
	ttl     time.Duration
}

// NewResolver creates a cache-aside resolver. A ttl of zero keeps entries forever.
func NewResolver(store kvstore.Store, fetcher MetadataFetcher, ttl time.Duration) *Resolver {
	return &Resolver{
		store:   store,
		fetcher: fetcher,
		ttl:     ttl,
	}
}

// CacheKey returns the store key for a page URL
func CacheKey(targetURL string) string {
	return CacheKeyPrefix + targetURL
}

// GetMetadata returns the cached metadata for a URL, fetching it on a miss.
// Unreadable cache entries count as misses. A failed fetch returns nil and
// is not cached.
func (r *Resolver) GetMetadata(ctx context.Context, targetURL string) *Metadata {
	if cached, ok := r.Cached(targetURL); ok {
		slog.Debug("Found cached OpenGraph data", "url", targetURL)
		return cached
	}

	data := r.fetcher.FetchMetadata(ctx, targetURL)
	if data == nil {
		return nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Failed to encode OpenGraph data", "url", targetURL, "error", err)
		return data
	}

	if err := r.store.Set(CacheKey(targetURL), string(encoded), r.ttl); err != nil {
		slog.Warn("Failed to cache OpenGraph data", "url", targetURL, "error", err)
	}

	return data
}

// Cached returns the stored metadata for a URL without touching the network
func (r *Resolver) Cached(targetURL string) (*Metadata, bool) {
	value, ok, err := r.store.Get(CacheKey(targetURL))
	if err != nil {
		slog.Warn("Error reading OpenGraph cache", "url", targetURL, "error", err)
		return nil, false
	}
	if !ok || value == "null" {
		return nil, false
	}

	var data Metadata
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		slog.Warn("Discarding corrupt OpenGraph cache entry", "url", targetURL, "error", err)
		return nil, false
	}

	return &data, true
}

// Forget removes the cached metadata for a URL so the next lookup refetches it
func (r *Resolver) Forget(targetURL string) error {
	return r.store.Delete(CacheKey(targetURL))
}
