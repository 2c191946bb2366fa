package opengraph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httputil "github.com/lepinkainen/nsite-directory/pkg/http"
)

func testClient() *httputil.Client {
	config := httputil.DefaultConfig()
	config.Timeout = 2 * time.Second
	config.BlockPrivateNetworks = false // httptest listens on loopback
	return httputil.NewClient(config)
}

func TestFetcher_BlocksPrivateNetworks(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		_, _ = w.Write([]byte(`<html><head><title>Internal</title></head></html>`))
	}))
	defer server.Close()

	fetcher := NewFetcher(nil, 0)

	_, err := fetcher.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, httputil.ErrBlockedAddress)
	assert.Nil(t, fetcher.FetchMetadata(context.Background(), server.URL))
	assert.False(t, hit)
}

func TestFetcher_Fetch(t *testing.T) {
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head>
			<title>Fallback</title>
			<meta property="og:title" content="Blog">
			<meta name="description" content="Posts about things">
		</head></html>`))
	}))
	defer server.Close()

	fetcher := NewFetcher(testClient(), 0)
	data, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, &Metadata{Title: "Blog", Description: "Posts about things"}, data)
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetcher_Charset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Café" in Latin-1
		_, _ = w.Write([]byte("<html><head><title>Caf\xe9</title></head></html>"))
	}))
	defer server.Close()

	data, err := NewFetcher(testClient(), 0).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Café", data.Title)
}

func TestFetcher_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(testClient(), 0)

	tests := []struct {
		name string
		url  string
	}{
		{name: "non-success status", url: server.URL},
		{name: "invalid URL", url: "not a url"},
		{name: "connection refused", url: "http://127.0.0.1:1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetcher.Fetch(context.Background(), tt.url)
			assert.Error(t, err)
			assert.Nil(t, fetcher.FetchMetadata(context.Background(), tt.url), "FetchMetadata reports failures as nil")
		})
	}
}

func TestFetcher_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Early">`))
		for i := 0; i < 100; i++ {
			_, _ = w.Write([]byte("<p>padding padding padding padding</p>"))
		}
		_, _ = w.Write([]byte(`<meta property="og:description" content="Too late"></head></html>`))
	}))
	defer server.Close()

	data, err := NewFetcher(testClient(), 512).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Early", data.Title)
	assert.Empty(t, data.Description, "content past the body limit is not read")
}

func TestFetcher_RelativeImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<meta property="og:image" content="/img/cover.png">`))
	}))
	defer server.Close()

	data, err := NewFetcher(testClient(), 0).Fetch(context.Background(), server.URL+"/blog/")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/img/cover.png", data.Image)
}
