// Package main provides the CLI entry point for nsite-directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/lepinkainen/nsite-directory/internal/config"
	"github.com/lepinkainen/nsite-directory/internal/server"
	"github.com/lepinkainen/nsite-directory/pkg/directory"
	"github.com/lepinkainen/nsite-directory/pkg/feed"
	"github.com/lepinkainen/nsite-directory/pkg/opengraph"
	"github.com/lepinkainen/nsite-directory/pkg/preview"
	"github.com/lepinkainen/nsite-directory/pkg/web"
)

// shutdownTimeout bounds graceful server shutdown
const shutdownTimeout = 10 * time.Second

// CLI structure
var CLI struct {
	Config      string `help:"Configuration file path" default:"config.yaml"`
	Debug       bool   `help:"Enable debug logging" default:"false"`
	DB          string `help:"Database file path (overrides config)" name:"db"`
	GatewayHost string `help:"Host sites are served from (overrides config)"`

	OG struct {
		URL     string `arg:"" help:"Page URL"`
		Refresh bool   `help:"Drop the cached entry before looking up"`
	} `cmd:"og" help:"Look up Open Graph metadata for a URL, using the cache."`

	Relays struct {
		List struct{} `cmd:"" default:"1" help:"List relays."`
		Add  struct {
			URL string `arg:"" help:"Relay URL (ws:// or wss://)"`
		} `cmd:"" help:"Add a relay."`
		Remove struct {
			URL string `arg:"" help:"Relay URL"`
		} `cmd:"" help:"Remove a relay."`
		Reset struct{} `cmd:"" help:"Restore the default relays."`
	} `cmd:"relays" help:"Manage the relay list."`

	Import struct {
		Files []string `arg:"" type:"existingfile" help:"JSON array or newline-delimited event files"`
	} `cmd:"import" help:"Load Nostr events into the event store."`

	Sites struct {
		Search      string `help:"Case-insensitive search" short:"s"`
		All         bool   `help:"List every site instead of the featured list"`
		HideUnknown bool   `help:"Hide sites with no title, description or profile"`
		Enrich      bool   `help:"Fetch missing page metadata"`
		Format      string `help:"Output format" enum:"table,json,yaml" default:"table"`
	} `cmd:"sites" help:"List directory sites."`

	Render struct {
		Outfile     string `help:"Output file path" short:"o" default:"index.html"`
		Search      string `help:"Case-insensitive search" short:"s"`
		All         bool   `help:"List every site instead of the featured list"`
		HideUnknown bool   `help:"Hide sites with no title, description or profile"`
		Enrich      bool   `help:"Fetch missing page metadata"`
	} `cmd:"render" help:"Render the directory to a static HTML page."`

	Feed struct {
		Outfile string `help:"Output file path" short:"o" default:"sites.xml"`
		Type    string `help:"Feed type" enum:"atom,rss" default:"atom"`
		All     bool   `help:"Include every site instead of the featured list"`
		Enrich  bool   `help:"Fetch missing page metadata"`
	} `cmd:"feed" help:"Generate an Atom or RSS feed of sites."`

	Browse struct {
		Enrich bool `help:"Fetch missing page metadata"`
	} `cmd:"browse" help:"Browse sites interactively."`

	Serve struct {
		Addr string `help:"Listen address (overrides config)"`
	} `cmd:"serve" help:"Serve the directory over HTTP."`

	Cache struct {
		Prune struct{} `cmd:"" help:"Remove expired metadata entries."`
		Clear struct{} `cmd:"" help:"Remove all cached metadata."`
	} `cmd:"cache" help:"Manage the metadata cache."`

	Stats struct{} `cmd:"stats" help:"Show store statistics."`
}

func main() {
	// Parse CLI with per-user flag defaults
	kctx := kong.Parse(&CLI,
		kong.Name("nsite-directory"),
		kong.Description("A directory of static websites published on Nostr."),
		kong.Configuration(kongyaml.Loader, "~/.nsite-directory/cli.yaml"),
	)

	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}

	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if CLI.DB != "" {
		cfg.Database.Path = CLI.DB
	}
	if CLI.GatewayHost != "" {
		cfg.Directory.GatewayHost = CLI.GatewayHost
	}

	a, err := newApp(cfg)
	if err != nil {
		slog.Error("Failed to open stores", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, a, kctx.Command())
	stop()
	a.Close()

	if err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

// run dispatches the parsed command
func run(ctx context.Context, a *app, command string) error {
	switch command {
	case "og <url>":
		return lookupMetadata(ctx, a)

	case "relays", "relays list":
		return printRelays(a)

	case "relays add <url>":
		if err := a.relays.Add(CLI.Relays.Add.URL); err != nil {
			return fmt.Errorf("cannot add relay: %w", err)
		}
		return printRelays(a)

	case "relays remove <url>":
		a.relays.Remove(CLI.Relays.Remove.URL)
		return printRelays(a)

	case "relays reset":
		a.relays.Reset()
		return printRelays(a)

	case "import <files>":
		return importEvents(ctx, a)

	case "sites":
		result, err := a.cards(ctx, CLI.Sites.All, CLI.Sites.Enrich, CLI.Sites.Search, hideUnknown(a, CLI.Sites.HideUnknown))
		if err != nil {
			return err
		}
		return writeCards(os.Stdout, result.Cards, CLI.Sites.Format)

	case "render":
		return renderPage(ctx, a)

	case "feed":
		return generateFeed(ctx, a)

	case "browse":
		return browse(ctx, a)

	case "serve":
		return serve(ctx, a)

	case "cache prune":
		return a.kv.CleanupExpired()

	case "cache clear":
		removed, err := a.kv.DeletePrefix(opengraph.CacheKeyPrefix)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached entries\n", removed)
		return nil

	case "stats":
		stats, err := a.stats(ctx)
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, stats)

	default:
		panic(command)
	}
}

// hideUnknown combines the flag with the configured default
func hideUnknown(a *app, flag bool) bool {
	return flag || a.config.Directory.HideUnknown
}

// lookupMetadata runs the cache-aside lookup and prints the result
func lookupMetadata(ctx context.Context, a *app) error {
	if CLI.OG.Refresh {
		if err := a.resolver.Forget(CLI.OG.URL); err != nil {
			slog.Warn("Failed to drop cached metadata", "url", CLI.OG.URL, "error", err)
		}
	}

	metadata := a.resolver.GetMetadata(ctx, CLI.OG.URL)
	if metadata == nil {
		return fmt.Errorf("no metadata available for %s", CLI.OG.URL)
	}
	return writeJSON(os.Stdout, metadata)
}

func printRelays(a *app) error {
	for _, relay := range a.relays.Relays() {
		fmt.Println(relay)
	}
	return nil
}

// importEvents loads every file, stopping at the first failure
func importEvents(ctx context.Context, a *app) error {
	for _, path := range CLI.Import.Files {
		result, err := a.events.ImportFile(ctx, path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: read %d, stored %d, skipped %d\n", path, result.Read, result.Stored, result.Skipped)
	}
	return nil
}

// renderPage writes the static HTML directory
func renderPage(ctx context.Context, a *app) error {
	result, err := a.cards(ctx, CLI.Render.All, CLI.Render.Enrich, CLI.Render.Search, hideUnknown(a, CLI.Render.HideUnknown))
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	file, err := os.Create(CLI.Render.Outfile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	page := web.Page{Query: CLI.Render.Search, Featured: result.Featured, Cards: result.Cards}
	if err := renderer.Render(file, page); err != nil {
		return err
	}

	slog.Info("Directory rendered", "path", CLI.Render.Outfile, "sites", len(result.Cards))
	return nil
}

// generateFeed writes the sites feed
func generateFeed(ctx context.Context, a *app) error {
	feedType, err := feed.ParseFeedType(CLI.Feed.Type)
	if err != nil {
		return err
	}

	result, err := a.cards(ctx, CLI.Feed.All, CLI.Feed.Enrich, "", a.config.Directory.HideUnknown)
	if err != nil {
		return err
	}

	fc := a.config.Feed
	generator := feed.NewGenerator(fc.Title, fc.Description, fc.Link, fc.Author)

	generated, err := generator.Generate(feed.ItemsFromCards(result.Cards), feedType)
	if err != nil {
		return err
	}
	if err := generator.ValidateFeed(generated); err != nil {
		return err
	}

	return generator.SaveToFile(generated, feedType, CLI.Feed.Outfile)
}

// browse starts the interactive browser on all sites, with the featured list when stored
func browse(ctx context.Context, a *app) error {
	all, err := a.cards(ctx, true, CLI.Browse.Enrich, "", false)
	if err != nil {
		return err
	}

	featured, err := a.cards(ctx, false, false, "", false)
	if err != nil {
		return err
	}

	var featuredCards []*directory.Card
	if featured.Featured {
		featuredCards = featured.Cards
	}

	return preview.Run(all.Cards, featuredCards, a.config.Directory.HideUnknown)
}

// serve runs the HTTP server until ctx is cancelled
func serve(ctx context.Context, a *app) error {
	if err := a.kv.CleanupExpired(); err != nil {
		slog.Warn("Failed to remove expired cache entries", "error", err)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	handler := server.NewHandler(a.events, a.resolver, a.enricher(), a.relays, renderer, server.Options{
		Directory:   a.directoryOptions(false),
		HideUnknown: a.config.Directory.HideUnknown,

		AllowPrivateNetworks: a.config.OpenGraph.AllowPrivateNetworks,
	})

	addr := a.config.Server.Addr
	if CLI.Serve.Addr != "" {
		addr = CLI.Serve.Addr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewServer(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
