// Package directory turns stored site manifests into searchable cards.
package directory

import (
	"log/slog"
	"strings"
	"time"

	"github.com/lepinkainen/nsite-directory/pkg/nostr"
	"github.com/lepinkainen/nsite-directory/pkg/opengraph"
)

// fallbackNameLength is how much of the npub stands in for a missing profile name
const fallbackNameLength = 12

// Publisher is the profile shown on a card
type Publisher struct {
	PubKey  string `json:"pubkey" yaml:"pubkey"`
	Npub    string `json:"npub" yaml:"npub"`
	Name    string `json:"name" yaml:"name"`
	Picture string `json:"picture,omitempty" yaml:"picture,omitempty"`
	NIP05   string `json:"nip05,omitempty" yaml:"nip05,omitempty"`
}

// Card is one site in the directory
type Card struct {
	EventID             string              `json:"event_id" yaml:"event_id"`
	Kind                int                 `json:"kind" yaml:"kind"`
	Identifier          string              `json:"identifier" yaml:"identifier"`
	URL                 string              `json:"url" yaml:"url"`
	Title               string              `json:"title" yaml:"title"`
	Description         string              `json:"description,omitempty" yaml:"description,omitempty"`
	ManifestTitle       string              `json:"manifest_title,omitempty" yaml:"manifest_title,omitempty"`
	ManifestDescription string              `json:"manifest_description,omitempty" yaml:"manifest_description,omitempty"`
	FileCount           int                 `json:"file_count" yaml:"file_count"`
	UpdatedAt           time.Time           `json:"updated_at" yaml:"updated_at"`
	Publisher           Publisher           `json:"publisher" yaml:"publisher"`
	OpenGraph           *opengraph.Metadata `json:"opengraph,omitempty" yaml:"opengraph,omitempty"`

	// hasProfileName is set when the publisher name came from a profile rather than the npub
	hasProfileName bool
}

// NewCard builds a card from a site manifest and the publisher's profile event, which may be nil
func NewCard(site *nostr.Event, profileEvent *nostr.Event, gateway nostr.Gateway) (*Card, error) {
	npub, err := nostr.EncodeNpub(site.PubKey)
	if err != nil {
		return nil, err
	}

	url, err := nostr.SiteURL(site, gateway)
	if err != nil {
		return nil, err
	}

	var profile *nostr.Profile
	if profileEvent != nil {
		if profile, err = nostr.ParseProfile(profileEvent); err != nil {
			slog.Debug("Ignoring unreadable profile", "pubkey", site.PubKey, "error", err)
			profile = nil
		}
	}

	card := &Card{
		EventID:             site.ID,
		Kind:                site.Kind,
		Identifier:          nostr.ManifestIdentifier(site),
		URL:                 url,
		ManifestTitle:       nostr.ManifestTitle(site),
		ManifestDescription: nostr.ManifestDescription(site),
		FileCount:           nostr.ManifestFileCount(site),
		UpdatedAt:           site.Time(),
		Publisher: Publisher{
			PubKey: site.PubKey,
			Npub:   npub,
			Name:   profile.BestName(npub[:fallbackNameLength]),
		},
		hasProfileName: profile.BestName("") != "",
	}
	if profile != nil {
		card.Publisher.Picture = profile.Picture
		card.Publisher.NIP05 = profile.NIP05
	}

	card.refresh()
	return card, nil
}

// SetMetadata attaches fetched page metadata and recomputes the title and description
func (c *Card) SetMetadata(metadata *opengraph.Metadata) {
	c.OpenGraph = metadata
	c.refresh()
}

// refresh derives Title and Description from the manifest, page metadata and profile
func (c *Card) refresh() {
	var ogTitle, ogDescription string
	if c.OpenGraph != nil {
		ogTitle, ogDescription = c.OpenGraph.Title, c.OpenGraph.Description
	}

	c.Title = firstNonEmpty(c.ManifestTitle, ogTitle, c.Publisher.Name)
	c.Description = firstNonEmpty(c.ManifestDescription, ogDescription)
}

// IsUnknown reports whether the card has no manifest, page or profile text
func (c *Card) IsUnknown() bool {
	if c.ManifestTitle != "" || c.ManifestDescription != "" || c.hasProfileName {
		return false
	}
	return c.OpenGraph == nil || (c.OpenGraph.Title == "" && c.OpenGraph.Description == "")
}

// Matches reports whether query appears, ignoring case, in any searchable field.
// A blank query matches everything.
func (c *Card) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	fields := []string{c.ManifestTitle, c.ManifestDescription, c.Identifier, c.Publisher.Name}
	if c.OpenGraph != nil {
		fields = append(fields, c.OpenGraph.Title, c.OpenGraph.Description)
	}

	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// Filter returns the cards matching query, dropping unknown cards when hideUnknown is set
func Filter(cards []*Card, query string, hideUnknown bool) []*Card {
	filtered := make([]*Card, 0, len(cards))
	for _, card := range cards {
		if hideUnknown && card.IsUnknown() {
			continue
		}
		if !card.Matches(query) {
			continue
		}
		filtered = append(filtered, card)
	}
	return filtered
}
