package nostr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Profile is the kind 0 metadata content
type Profile struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Picture     string `json:"picture,omitempty" yaml:"picture,omitempty"`
	NIP05       string `json:"nip05,omitempty" yaml:"nip05,omitempty"`
	About       string `json:"about,omitempty" yaml:"about,omitempty"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty"`
}

// ParseProfile decodes the content of a kind 0 event
func ParseProfile(event *Event) (*Profile, error) {
	if event.Kind != KindProfile {
		return nil, fmt.Errorf("event %s is kind %d, not a profile", event.ID, event.Kind)
	}

	var profile Profile
	if err := json.Unmarshal([]byte(event.Content), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile content: %w", err)
	}
	return &profile, nil
}

// BestName returns display_name, then name, then fallback. A nil profile yields fallback.
func (p *Profile) BestName(fallback string) string {
	if p == nil {
		return fallback
	}
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return fallback
}
