package opengraph

// Metadata represents the Open Graph summary of a page. Every field is
// optional; a Metadata with all fields empty means the page declared
// nothing, while a nil *Metadata means the lookup failed.
type Metadata struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
}

// IsEmpty reports whether no field is populated
func (m *Metadata) IsEmpty() bool {
	return m == nil || (m.Title == "" && m.Description == "" && m.Image == "" && m.URL == "")
}

const (
	// CacheKeyPrefix is prepended to the page URL to form its cache key
	CacheKeyPrefix = "og_cache_"

	// DefaultMaxBodySize limits how much of a page is read for metadata
	DefaultMaxBodySize = 1024 * 1024

	// acceptHeader asks for HTML first
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// propertyPrefix marks the structured metadata tags
	propertyPrefix = "og:"
)
