package feed

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/nsite-directory/pkg/directory"
	"github.com/lepinkainen/nsite-directory/pkg/opengraph"
)

func testCards() []*directory.Card {
	return []*directory.Card{
		{
			EventID:     "event-1",
			Title:       "Alice's Blog",
			Description: "Notes & thoughts",
			URL:         "https://blog.npub1abc.nsite.lol/",
			UpdatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Publisher:   directory.Publisher{Name: "Alice"},
			OpenGraph:   &opengraph.Metadata{Image: "https://img.example/a.png"},
		},
		{
			EventID:   "event-2",
			Title:     "npub1xyz",
			URL:       "https://npub1xyz.nsite.lol/",
			UpdatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestItemsFromCards(t *testing.T) {
	items := ItemsFromCards(testCards())

	require.Len(t, items, 2)
	assert.Equal(t, "Alice's Blog", items[0].Title)
	assert.Equal(t, "https://blog.npub1abc.nsite.lol/", items[0].Link)
	assert.Equal(t, "Alice", items[0].Author)
	assert.Equal(t, "https://img.example/a.png", items[0].ImageURL)
	assert.Equal(t, "", items[1].ImageURL)
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator("nsite directory", "Sites on Nostr", "https://nsite.lol/", "nsite-directory")

	tests := []struct {
		name     string
		feedType FeedType
		contains []string
	}{
		{name: "atom", feedType: Atom, contains: []string{"<feed", "Alice&#39;s Blog", "https://blog.npub1abc.nsite.lol/"}},
		{name: "rss", feedType: RSS, contains: []string{"<rss", "<channel>", "https://blog.npub1abc.nsite.lol/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, err := g.Generate(ItemsFromCards(testCards()), tt.feedType)
			require.NoError(t, err)
			require.NoError(t, g.ValidateFeed(feed))
			assert.Len(t, feed.Items, 2)

			var buf bytes.Buffer
			require.NoError(t, g.Write(feed, tt.feedType, &buf))
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}

	_, err := g.Generate(nil, FeedType("json"))
	assert.Error(t, err)
}

func TestGenerator_SaveToFile(t *testing.T) {
	g := NewGenerator("nsite directory", "Sites on Nostr", "https://nsite.lol/", "")
	feed, err := g.Generate(ItemsFromCards(testCards()), Atom)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "sites.xml")
	require.NoError(t, g.SaveToFile(feed, Atom, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "<feed")
}

func TestGenerator_ValidateFeed(t *testing.T) {
	g := NewGenerator("t", "d", "https://x/", "")

	assert.Error(t, g.ValidateFeed(nil))

	feed, err := g.Generate([]Item{{Title: "", Link: "https://a/", ID: "1"}}, RSS)
	require.NoError(t, err)
	assert.Error(t, g.ValidateFeed(feed))

	feed, err = NewGenerator("", "d", "https://x/", "").Generate(nil, RSS)
	require.NoError(t, err)
	assert.Error(t, g.ValidateFeed(feed))
}

func TestParseFeedType(t *testing.T) {
	feedType, err := ParseFeedType("rss")
	require.NoError(t, err)
	assert.Equal(t, RSS, feedType)

	_, err = ParseFeedType("json")
	assert.Error(t, err)
}
