package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/nsite-directory/pkg/database"
	"github.com/lepinkainen/nsite-directory/pkg/directory"
	"github.com/lepinkainen/nsite-directory/pkg/eventstore"
	"github.com/lepinkainen/nsite-directory/pkg/kvstore"
	"github.com/lepinkainen/nsite-directory/pkg/nostr"
	"github.com/lepinkainen/nsite-directory/pkg/opengraph"
	"github.com/lepinkainen/nsite-directory/pkg/ratelimit"
	"github.com/lepinkainen/nsite-directory/pkg/settings"
	"github.com/lepinkainen/nsite-directory/pkg/web"
)

const (
	alicePub = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	bobPub   = "1805301ca7c1ad2f9349076cf282f905b3c1e540e88675e14b95856c40b75e33"
)

// stubFetcher serves canned metadata by URL
type stubFetcher struct {
	pages map[string]*opengraph.Metadata
	calls int
}

func (s *stubFetcher) FetchMetadata(_ context.Context, targetURL string) *opengraph.Metadata {
	s.calls++
	return s.pages[targetURL]
}

type testEnv struct {
	router  http.Handler
	fetcher *stubFetcher
	relays  *settings.RelayStore
}

func newTestEnv(t *testing.T, featured bool) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	events, err := eventstore.New(db)
	require.NoError(t, err)

	ctx := context.Background()
	seed := []nostr.Event{
		{ID: "s1", PubKey: alicePub, Kind: nostr.KindNamedSite, CreatedAt: 20, Tags: []nostr.Tag{{"d", "blog"}, {"title", "Alice's Blog"}}},
		{ID: "s2", PubKey: bobPub, Kind: nostr.KindRootSite, CreatedAt: 10},
		{ID: "p1", PubKey: alicePub, Kind: nostr.KindProfile, CreatedAt: 1, Content: `{"name":"alice"}`},
	}
	if featured {
		seed = append(seed, nostr.Event{ID: "l1", PubKey: nostr.DefaultFeaturedList.PubKey, Kind: nostr.KindPeopleList, CreatedAt: 1,
			Tags: []nostr.Tag{{"d", nostr.DefaultFeaturedList.Identifier}, {"p", alicePub}}})
	}
	for i := range seed {
		_, err := events.Add(ctx, &seed[i])
		require.NoError(t, err)
	}

	fetcher := &stubFetcher{pages: map[string]*opengraph.Metadata{
		"https://example.com/": {Title: "Example", Description: "Example page"},
	}}
	resolver := opengraph.NewResolver(kvstore.NewMemoryStore(), fetcher, 0)
	enricher := directory.NewEnricher(resolver, ratelimit.NoOpLimiter{}, 2)
	relays := settings.NewRelayStore(kvstore.NewMemoryStore())

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	handler := NewHandler(events, resolver, enricher, relays, renderer, Options{
		Directory: directory.Options{Gateway: nostr.DefaultGateway, FeaturedList: nostr.DefaultFeaturedList},
	})

	return &testEnv{router: NewServer(handler), fetcher: fetcher, relays: relays}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["events"])
}

func TestSites(t *testing.T) {
	tests := []struct {
		name     string
		featured bool
		target   string
		count    float64
		featFlag bool
	}{
		{name: "featured list missing falls back to all", target: "/api/sites", count: 2},
		{name: "featured", featured: true, target: "/api/sites", count: 1, featFlag: true},
		{name: "all", featured: true, target: "/api/sites?all=1", count: 2},
		{name: "search", target: "/api/sites?q=BLOG", count: 1},
		{name: "hide unknown", target: "/api/sites?hide_unknown=1", count: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.featured)

			rec := env.do(t, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, tt.count, body["count"])
			assert.Equal(t, tt.featFlag, body["featured"])
		})
	}
}

func TestDirectoryPage(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/?all=1&q=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Alice&#39;s Blog")
	assert.Contains(t, rec.Body.String(), "All sites (1)")
}

func TestOpenGraph(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/api/opengraph?url=https://example.com/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Example", decode(t, rec)["title"])

	rec = env.do(t, http.MethodGet, "/api/opengraph?url=https://example.com/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.fetcher.calls, "second lookup is served from cache")

	rec = env.do(t, http.MethodGet, "/api/opengraph?url=https://missing.example/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/opengraph?url=ftp://example.com/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/opengraph", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenGraph_RejectsPrivateHosts(t *testing.T) {
	env := newTestEnv(t, false)
	env.fetcher.pages["http://127.0.0.1/"] = &opengraph.Metadata{Title: "Internal"}

	for _, target := range []string{
		"http://127.0.0.1/",
		"http://localhost:8080/admin",
		"http://[::1]/",
		"http://169.254.169.254/latest/meta-data/",
	} {
		rec := env.do(t, http.MethodGet, "/api/opengraph?url="+url.QueryEscape(target), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
	assert.Equal(t, 0, env.fetcher.calls)
}

func TestOpenGraph_LoopbackServerNotFetched(t *testing.T) {
	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html><head><title>Internal admin</title></head></html>`))
	}))
	defer internal.Close()

	resolver := opengraph.NewResolver(kvstore.NewMemoryStore(), opengraph.NewFetcher(nil, 0), 0)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	handler := NewHandler(nil, resolver, nil, settings.NewRelayStore(kvstore.NewMemoryStore()), renderer, Options{})
	router := NewServer(handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/opengraph?url="+url.QueryEscape(internal.URL+"/"), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Internal admin")
	assert.Equal(t, int32(0), hits.Load())
}

func TestRelays(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/api/relays", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["relays"], len(settings.DefaultRelays()))

	rec = env.do(t, http.MethodPost, "/api/relays", `{"url":"wss://relay.example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, env.relays.Relays(), "wss://relay.example.com")

	rec = env.do(t, http.MethodPost, "/api/relays", `{"url":"wss://relay.example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "relay already exists", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/relays", `{"url":"https://relay.example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must start with ws:// or wss://", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/relays", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/relays?url=wss://relay.example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, env.relays.Relays(), "wss://relay.example.com")

	rec = env.do(t, http.MethodDelete, "/api/relays", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.relays.Remove("wss://nostr.wine")
	rec = env.do(t, http.MethodPost, "/api/relays/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, settings.DefaultRelays(), env.relays.Relays())
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodOptions, "/api/relays", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
