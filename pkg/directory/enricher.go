package directory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lepinkainen/nsite-directory/pkg/opengraph"
	"github.com/lepinkainen/nsite-directory/pkg/ratelimit"
)

// DefaultConcurrency bounds simultaneous metadata fetches
const DefaultConcurrency = 5

// MetadataSource resolves page metadata for a site URL
type MetadataSource interface {
	GetMetadata(ctx context.Context, targetURL string) *opengraph.Metadata
}

// Enricher attaches page metadata to cards
type Enricher struct {
	source      MetadataSource
	limiter     ratelimit.Limiter
	concurrency int
}

// NewEnricher creates an enricher running at most concurrency lookups at once,
// each started through limiter
func NewEnricher(source MetadataSource, limiter ratelimit.Limiter, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if limiter == nil {
		limiter = ratelimit.NoOpLimiter{}
	}

	return &Enricher{
		source:      source,
		limiter:     limiter,
		concurrency: concurrency,
	}
}

// Enrich resolves metadata for every card. Cards whose lookup fails keep their
// manifest and profile text. It returns ctx.Err() if cancelled before finishing.
func (e *Enricher) Enrich(ctx context.Context, cards []*Card) error {
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for _, card := range cards {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		}

		wg.Add(1)
		go func(card *Card) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := e.limiter.Wait(ctx); err != nil {
				return
			}

			metadata := e.source.GetMetadata(ctx, card.URL)
			if metadata == nil {
				slog.Debug("No metadata for site", "url", card.URL)
				return
			}
			card.SetMetadata(metadata)
		}(card)
	}

	wg.Wait()
	return ctx.Err()
}
