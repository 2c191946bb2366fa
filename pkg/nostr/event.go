// Package nostr holds the subset of the Nostr event model the directory reads:
// site manifests, profiles and people lists.
package nostr

import (
	"time"
)

// Event kinds read by the directory
const (
	KindProfile    = 0
	KindRootSite   = 15128
	KindPeopleList = 30000
	KindLegacySite = 34128
	KindNamedSite  = 35128
)

// LegacyIndexPath is the d tag of the legacy per-file event that stands for a whole site
const LegacyIndexPath = "/index.html"

// Tag is a single event tag: a name followed by its values
type Tag []string

// Name returns the tag name or "" for an empty tag
func (t Tag) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the first value or "" when the tag has none
func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// Event is a NIP-01 event. Signatures are carried but not verified.
type Event struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// Time returns CreatedAt as a time.Time
func (e *Event) Time() time.Time {
	return time.Unix(e.CreatedAt, 0).UTC()
}

// TagValue returns the first value of the first tag called name
func (e *Event) TagValue(name string) (string, bool) {
	for _, tag := range e.Tags {
		if tag.Name() == name && len(tag) > 1 {
			return tag[1], true
		}
	}
	return "", false
}

// TagValues returns the first value of every tag called name
func (e *Event) TagValues(name string) []string {
	var values []string
	for _, tag := range e.Tags {
		if tag.Name() == name && len(tag) > 1 {
			values = append(values, tag[1])
		}
	}
	return values
}

// CountTags returns how many tags are called name
func (e *Event) CountTags(name string) int {
	count := 0
	for _, tag := range e.Tags {
		if tag.Name() == name {
			count++
		}
	}
	return count
}

// Identifier returns the d tag value or ""
func (e *Event) Identifier() string {
	d, _ := e.TagValue("d")
	return d
}

// IsReplaceable reports whether only the newest event per (kind, pubkey) is kept
func IsReplaceable(kind int) bool {
	return kind == KindProfile || kind == 3 || (kind >= 10000 && kind < 20000)
}

// IsAddressable reports whether only the newest event per (kind, pubkey, d) is kept
func IsAddressable(kind int) bool {
	return kind >= 30000 && kind < 40000
}
