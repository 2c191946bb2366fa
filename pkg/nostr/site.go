package nostr

import (
	"fmt"
	"regexp"
	"strings"
)

// RootIdentifier is the identifier shown for sites served at the npub subdomain
const RootIdentifier = "root"

// UnknownIdentifier is shown for named sites without a d tag
const UnknownIdentifier = "unknown"

// npubLabel matches a leading npub subdomain on a gateway host
var npubLabel = regexp.MustCompile(`^npub1[qpzry9x8gf2tvdw0s3jn54khce6mua7l]{58,}\.`)

// Gateway is the host nsites are served from
type Gateway struct {
	Scheme string
	Host   string
}

// DefaultGateway is used when no gateway host is configured
var DefaultGateway = Gateway{Scheme: "https", Host: "nsite.lol"}

// IsSite reports whether the event is a site manifest the directory lists
func IsSite(event *Event) bool {
	switch event.Kind {
	case KindRootSite, KindNamedSite:
		return true
	case KindLegacySite:
		return event.Identifier() == LegacyIndexPath
	default:
		return false
	}
}

// ManifestTitle returns the title tag
func ManifestTitle(event *Event) string {
	title, _ := event.TagValue("title")
	return title
}

// ManifestDescription returns the description tag
func ManifestDescription(event *Event) string {
	description, _ := event.TagValue("description")
	return description
}

// ManifestIdentifier returns "root" for root and legacy sites, the d tag of named sites
func ManifestIdentifier(event *Event) string {
	if event.Kind == KindRootSite || event.Kind == KindLegacySite {
		return RootIdentifier
	}
	if d := event.Identifier(); d != "" {
		return d
	}
	return UnknownIdentifier
}

// ManifestFileCount returns the number of path tags
func ManifestFileCount(event *Event) int {
	return event.CountTags("path")
}

// StripNpubLabel removes a leading npub subdomain from host
func StripNpubLabel(host string) string {
	return npubLabel.ReplaceAllString(host, "")
}

// SiteURL returns the address a site is served at on gateway
func SiteURL(event *Event, gateway Gateway) (string, error) {
	npub, err := EncodeNpub(event.PubKey)
	if err != nil {
		return "", err
	}

	scheme := gateway.Scheme
	if scheme == "" {
		scheme = DefaultGateway.Scheme
	}
	host := StripNpubLabel(strings.TrimSuffix(gateway.Host, "/"))
	if host == "" {
		host = DefaultGateway.Host
	}

	subdomain := npub
	if identifier := ManifestIdentifier(event); identifier != RootIdentifier {
		subdomain = identifier + "." + npub
	}

	return fmt.Sprintf("%s://%s.%s/", scheme, subdomain, host), nil
}

// FeaturedList addresses the people list that selects featured sites
type FeaturedList struct {
	PubKey     string `mapstructure:"pubkey" yaml:"pubkey"`
	Identifier string `mapstructure:"identifier" yaml:"identifier"`
}

// DefaultFeaturedList is the curated list the directory shows by default
var DefaultFeaturedList = FeaturedList{
	PubKey:     "1805301ca7c1ad2f9349076cf282f905b3c1e540e88675e14b95856c40b75e33",
	Identifier: "E1HkNAWzVQSQBVYfzNTDD",
}

// PeopleListMembers returns the p-tagged public keys of a people list
func PeopleListMembers(event *Event) []string {
	return event.TagValues("p")
}
