package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/nsite-directory/internal/config"
	"github.com/lepinkainen/nsite-directory/pkg/database"
	"github.com/lepinkainen/nsite-directory/pkg/directory"
	"github.com/lepinkainen/nsite-directory/pkg/eventstore"
	httputil "github.com/lepinkainen/nsite-directory/pkg/http"
	"github.com/lepinkainen/nsite-directory/pkg/kvstore"
	"github.com/lepinkainen/nsite-directory/pkg/nostr"
	"github.com/lepinkainen/nsite-directory/pkg/opengraph"
	"github.com/lepinkainen/nsite-directory/pkg/ratelimit"
	"github.com/lepinkainen/nsite-directory/pkg/settings"
)

// app holds the services shared by the commands
type app struct {
	config   *config.Config
	db       *database.Database
	kv       *kvstore.SQLiteStore
	events   *eventstore.Store
	resolver *opengraph.Resolver
	relays   *settings.RelayStore
}

// newApp opens the database and wires the services from cfg
func newApp(cfg *config.Config) (*app, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}

	kv, err := kvstore.NewSQLiteStore(db, kvstore.DefaultTable)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	events, err := eventstore.New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	clientConfig := httputil.DefaultConfig()
	clientConfig.Timeout = cfg.OpenGraph.Timeout
	clientConfig.MaxRetries = cfg.OpenGraph.MaxRetries
	clientConfig.BlockPrivateNetworks = !cfg.OpenGraph.AllowPrivateNetworks
	if cfg.OpenGraph.UserAgent != "" {
		clientConfig.UserAgent = cfg.OpenGraph.UserAgent
	}
	fetcher := opengraph.NewFetcher(httputil.NewClient(clientConfig), cfg.OpenGraph.MaxBodyBytes)

	return &app{
		config:   cfg,
		db:       db,
		kv:       kv,
		events:   events,
		resolver: opengraph.NewResolver(kv, fetcher, cfg.OpenGraph.CacheTTL),
		relays:   settings.NewRelayStore(kv),
	}, nil
}

// Close releases the database
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// enricher builds a metadata enricher from the directory settings
func (a *app) enricher() *directory.Enricher {
	return directory.NewEnricher(a.resolver,
		ratelimit.New(a.config.Directory.MinFetchInterval),
		a.config.Directory.Concurrency)
}

// directoryOptions returns the build options for the configured gateway and featured list
func (a *app) directoryOptions(all bool) directory.Options {
	return directory.Options{
		Gateway:      a.config.Gateway(),
		All:          all,
		FeaturedList: a.config.Directory.Featured,
	}
}

// cards builds the directory, optionally fetching metadata, and applies the search.
// Without enrich only cached metadata is used.
func (a *app) cards(ctx context.Context, all, enrich bool, query string, hideUnknown bool) (*directory.Result, error) {
	result, err := directory.Build(ctx, a.events, a.directoryOptions(all))
	if err != nil {
		return nil, err
	}

	if enrich {
		if err := a.enricher().Enrich(ctx, result.Cards); err != nil {
			return nil, fmt.Errorf("metadata enrichment interrupted: %w", err)
		}
	} else {
		for _, card := range result.Cards {
			if metadata, ok := a.resolver.Cached(card.URL); ok {
				card.SetMetadata(metadata)
			}
		}
	}

	result.Cards = directory.Filter(result.Cards, query, hideUnknown)
	return result, nil
}

// stats collects store statistics for the stats command
func (a *app) stats(ctx context.Context) (map[string]any, error) {
	info, err := a.db.Info(ctx)
	if err != nil {
		return nil, err
	}

	byKind, err := a.events.CountByKind(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, count := range byKind {
		total += count
	}

	cached, err := a.kv.CountPrefix(opengraph.CacheKeyPrefix)
	if err != nil {
		return nil, err
	}

	info["events"] = total
	info["sites"] = byKind[nostr.KindRootSite] + byKind[nostr.KindNamedSite]
	info["profiles"] = byKind[nostr.KindProfile]
	info["legacy_site_files"] = byKind[nostr.KindLegacySite]
	info["opengraph_cached"] = cached
	info["relays"] = len(a.relays.Relays())
	return info, nil
}
