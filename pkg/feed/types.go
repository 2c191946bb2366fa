// Package feed publishes the directory as an RSS or Atom feed.
package feed

import (
	"fmt"
	"time"
)

// Generator holds the channel-level feed fields
type Generator struct {
	Title       string
	Description string
	Link        string
	Author      string
}

// NewGenerator creates a new feed generator
func NewGenerator(title, description, link, author string) *Generator {
	return &Generator{
		Title:       title,
		Description: description,
		Link:        link,
		Author:      author,
	}
}

// Item represents a feed item
type Item struct {
	Title       string
	Link        string
	Description string
	Author      string
	Created     time.Time
	ID          string
	ImageURL    string
}

// FeedType represents the type of feed to generate
type FeedType string

const (
	RSS  FeedType = "rss"
	Atom FeedType = "atom"
)

// ParseFeedType validates a feed type name
func ParseFeedType(name string) (FeedType, error) {
	switch FeedType(name) {
	case RSS, Atom:
		return FeedType(name), nil
	default:
		return "", fmt.Errorf("unsupported feed type: %s", name)
	}
}
