package feed

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"

	"github.com/lepinkainen/nsite-directory/pkg/directory"
)

// ItemsFromCards converts directory cards into feed items, one per site
func ItemsFromCards(cards []*directory.Card) []Item {
	items := make([]Item, 0, len(cards))
	for _, card := range cards {
		item := Item{
			Title:       card.Title,
			Link:        card.URL,
			Description: card.Description,
			Author:      card.Publisher.Name,
			Created:     card.UpdatedAt,
			ID:          card.EventID,
		}
		if card.OpenGraph != nil {
			item.ImageURL = card.OpenGraph.Image
		}
		items = append(items, item)
	}
	return items
}

// Generate creates a feed from the provided items
func (g *Generator) Generate(items []Item, feedType FeedType) (*feeds.Feed, error) {
	if feedType != RSS && feedType != Atom {
		return nil, fmt.Errorf("unsupported feed type: %s", feedType)
	}

	now := time.Now()
	feed := &feeds.Feed{
		Title:       g.Title,
		Link:        &feeds.Link{Href: g.Link},
		Description: g.Description,
		Author:      &feeds.Author{Name: g.Author},
		Created:     now,
		Updated:     now,
	}

	for _, item := range items {
		feedItem := &feeds.Item{
			Title:       item.Title,
			Link:        &feeds.Link{Href: item.Link},
			Description: item.Description,
			Author:      &feeds.Author{Name: item.Author},
			Created:     item.Created,
			Updated:     item.Created,
			Id:          item.ID,
		}
		if item.ImageURL != "" {
			feedItem.Enclosure = &feeds.Enclosure{Url: item.ImageURL, Type: "image/*", Length: "0"}
		}

		feed.Items = append(feed.Items, feedItem)
	}

	slog.Info("Generated feed", "type", feedType, "items", len(feed.Items))
	return feed, nil
}

// Write serializes feed to w
func (g *Generator) Write(feed *feeds.Feed, feedType FeedType, w io.Writer) error {
	var err error
	switch feedType {
	case RSS:
		err = feed.WriteRss(w)
	case Atom:
		err = feed.WriteAtom(w)
	default:
		return fmt.Errorf("unsupported feed type: %s", feedType)
	}

	if err != nil {
		return fmt.Errorf("failed to write %s feed: %w", feedType, err)
	}
	return nil
}

// SaveToFile saves the generated feed to a specified file
func (g *Generator) SaveToFile(feed *feeds.Feed, feedType FeedType, outputPath string) error {
	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := g.Write(feed, feedType, file); err != nil {
		return err
	}

	slog.Info("Feed saved successfully", "type", feedType, "path", outputPath)
	return nil
}

// ValidateFeed checks the channel fields and every item
func (g *Generator) ValidateFeed(feed *feeds.Feed) error {
	if feed == nil {
		return fmt.Errorf("feed is nil")
	}

	if feed.Title == "" {
		return fmt.Errorf("feed title is empty")
	}

	if feed.Link == nil || feed.Link.Href == "" {
		return fmt.Errorf("feed link is empty")
	}

	for i, item := range feed.Items {
		if err := validateFeedItem(item); err != nil {
			return fmt.Errorf("item %d validation failed: %w", i, err)
		}
	}

	return nil
}

func validateFeedItem(item *feeds.Item) error {
	if item.Title == "" {
		return fmt.Errorf("item title is empty")
	}

	if item.Link == nil || item.Link.Href == "" {
		return fmt.Errorf("item link is empty")
	}

	if item.Id == "" {
		return fmt.Errorf("item ID is empty")
	}

	return nil
}
