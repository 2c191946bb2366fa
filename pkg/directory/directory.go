package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/nsite-directory/pkg/eventstore"
	"github.com/lepinkainen/nsite-directory/pkg/nostr"
)

// EventSource is the part of the event store the directory reads
type EventSource interface {
	Sites(ctx context.Context) ([]nostr.Event, error)
	Profiles(ctx context.Context) (map[string]*nostr.Event, error)
	List(ctx context.Context, kind int, pubkey, d string) (*nostr.Event, error)
}

// Options selects which sites a directory lists
type Options struct {
	Gateway      nostr.Gateway
	All          bool
	FeaturedList nostr.FeaturedList
}

// Result is a built directory
type Result struct {
	Cards []*Card
	// Featured is false when every site is listed, including the fallback
	// used when the featured list is not stored
	Featured bool
}

// Build loads sites and profiles from source and returns their cards, newest
// first. Search and hiding are applied afterwards with Filter so they can see
// enriched metadata.
func Build(ctx context.Context, source EventSource, opts Options) (*Result, error) {
	sites, err := source.Sites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sites: %w", err)
	}

	profiles, err := source.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	result := &Result{}
	if !opts.All {
		members, err := featuredMembers(ctx, source, opts.FeaturedList)
		switch {
		case errors.Is(err, eventstore.ErrNotFound):
			slog.Warn("Featured list not in event store, listing all sites", "pubkey", opts.FeaturedList.PubKey, "identifier", opts.FeaturedList.Identifier)
		case err != nil:
			return nil, err
		default:
			sites = featuredSites(sites, members)
			result.Featured = true
		}
	}

	cards := make([]*Card, 0, len(sites))
	for i := range sites {
		card, err := NewCard(&sites[i], profiles[sites[i].PubKey], opts.Gateway)
		if err != nil {
			slog.Warn("Skipping site", "id", sites[i].ID, "pubkey", sites[i].PubKey, "error", err)
			continue
		}
		cards = append(cards, card)
	}

	result.Cards = cards
	slog.Debug("Built directory", "sites", len(sites), "cards", len(result.Cards), "featured", result.Featured)
	return result, nil
}

// featuredMembers returns the set of publishers on the featured list
func featuredMembers(ctx context.Context, source EventSource, list nostr.FeaturedList) (map[string]bool, error) {
	if list.PubKey == "" {
		list = nostr.DefaultFeaturedList
	}

	event, err := source.List(ctx, nostr.KindPeopleList, list.PubKey, list.Identifier)
	if err != nil {
		return nil, err
	}

	members := make(map[string]bool)
	for _, pubkey := range nostr.PeopleListMembers(event) {
		members[pubkey] = true
	}
	return members, nil
}

func featuredSites(sites []nostr.Event, members map[string]bool) []nostr.Event {
	featured := make([]nostr.Event, 0, len(sites))
	for _, site := range sites {
		if members[site.PubKey] {
			featured = append(featured, site)
		}
	}
	return featured
}
