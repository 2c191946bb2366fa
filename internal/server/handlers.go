package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/nsite-directory/pkg/directory"
	httputil "github.com/lepinkainen/nsite-directory/pkg/http"
	"github.com/lepinkainen/nsite-directory/pkg/opengraph"
	"github.com/lepinkainen/nsite-directory/pkg/settings"
	"github.com/lepinkainen/nsite-directory/pkg/urlutils"
	"github.com/lepinkainen/nsite-directory/pkg/web"
)

// EventStore is the event store as seen by the handlers
type EventStore interface {
	directory.EventSource
	Count(ctx context.Context) (int, error)
}

// MetadataResolver is the cache-aside metadata lookup
type MetadataResolver interface {
	GetMetadata(ctx context.Context, targetURL string) *opengraph.Metadata
	Cached(targetURL string) (*opengraph.Metadata, bool)
}

// Options holds the directory defaults applied to every request
type Options struct {
	Directory   directory.Options
	HideUnknown bool

	// AllowPrivateNetworks lets /api/opengraph look up loopback and
	// private-network hosts
	AllowPrivateNetworks bool
}

// Handler serves the HTTP routes
type Handler struct {
	events   EventStore
	resolver MetadataResolver
	enricher *directory.Enricher
	relays   *settings.RelayStore
	renderer *web.Renderer
	opts     Options
}

// NewHandler creates a handler. enricher may be nil, in which case pages only
// show metadata that is already cached.
func NewHandler(events EventStore, resolver MetadataResolver, enricher *directory.Enricher,
	relays *settings.RelayStore, renderer *web.Renderer, opts Options) *Handler {
	return &Handler{
		events:   events,
		resolver: resolver,
		enricher: enricher,
		relays:   relays,
		renderer: renderer,
		opts:     opts,
	}
}

// relayRequest is the body of POST /api/relays
type relayRequest struct {
	URL string `json:"url"`
}

// Directory renders the HTML site grid
func (h *Handler) Directory(c *gin.Context) {
	result, query, err := h.buildDirectory(c)
	if err != nil {
		slog.Error("Failed to build directory", "error", err)
		c.String(http.StatusInternalServerError, "failed to build directory")
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)

	page := web.Page{Query: query, Featured: result.Featured, Cards: result.Cards}
	if err := h.renderer.Render(c.Writer, page); err != nil {
		slog.Error("Failed to render directory", "error", err)
	}
}

// Sites returns the directory as JSON
func (h *Handler) Sites(c *gin.Context) {
	result, query, err := h.buildDirectory(c)
	if err != nil {
		slog.Error("Failed to build directory", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build directory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"featured": result.Featured,
		"query":    query,
		"count":    len(result.Cards),
		"sites":    result.Cards,
	})
}

// buildDirectory builds, enriches and filters cards for the request's
// q, all, hide_unknown and enrich parameters
func (h *Handler) buildDirectory(c *gin.Context) (*directory.Result, string, error) {
	ctx := c.Request.Context()

	opts := h.opts.Directory
	opts.All = c.Query("all") == "1" || c.Query("all") == "true"

	result, err := directory.Build(ctx, h.events, opts)
	if err != nil {
		return nil, "", err
	}

	enrich := c.Query("enrich") == "1" || c.Query("enrich") == "true"
	if enrich && h.enricher != nil {
		if err := h.enricher.Enrich(ctx, result.Cards); err != nil {
			slog.Warn("Metadata enrichment interrupted", "error", err)
		}
	} else {
		for _, card := range result.Cards {
			if metadata, ok := h.resolver.Cached(card.URL); ok {
				card.SetMetadata(metadata)
			}
		}
	}

	hideUnknown := h.opts.HideUnknown
	if value, ok := c.GetQuery("hide_unknown"); ok {
		hideUnknown = value == "1" || value == "true"
	}

	query := c.Query("q")
	result.Cards = directory.Filter(result.Cards, query, hideUnknown)
	return result, query, nil
}

// OpenGraph returns the metadata of the page at ?url=
func (h *Handler) OpenGraph(c *gin.Context) {
	targetURL := c.Query("url")
	if !urlutils.IsValidURL(targetURL) || !urlutils.HasScheme(targetURL, "http", "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an absolute http or https URL"})
		return
	}
	if !h.opts.AllowPrivateNetworks {
		if err := httputil.CheckURL(targetURL); err != nil {
			slog.Warn("Refusing metadata lookup", "url", targetURL, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "url must point to a public host"})
			return
		}
	}

	metadata := h.resolver.GetMetadata(c.Request.Context(), targetURL)
	if metadata == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no metadata available", "url": targetURL})
		return
	}

	c.JSON(http.StatusOK, metadata)
}

// ListRelays returns the relay list
func (h *Handler) ListRelays(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"relays": h.relays.Relays()})
}

// AddRelay validates and appends a relay
func (h *Handler) AddRelay(c *gin.Context) {
	var req relayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"url\": \"wss://...\"}"})
		return
	}

	if err := h.relays.Add(req.URL); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, settings.ErrRelayExists) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"relays": h.relays.Relays()})
}

// RemoveRelay removes the relay given in ?url=
func (h *Handler) RemoveRelay(c *gin.Context) {
	target, ok := c.GetQuery("url")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter required"})
		return
	}

	h.relays.Remove(target)
	c.JSON(http.StatusOK, gin.H{"relays": h.relays.Relays()})
}

// ResetRelays restores the default relay list
func (h *Handler) ResetRelays(c *gin.Context) {
	h.relays.Reset()
	c.JSON(http.StatusOK, gin.H{"relays": h.relays.Relays()})
}

// Health reports service status
func (h *Handler) Health(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if count, err := h.events.Count(c.Request.Context()); err == nil {
		health["events"] = count
	} else {
		slog.Warn("Failed to count events", "error", err)
	}

	c.JSON(http.StatusOK, health)
}
