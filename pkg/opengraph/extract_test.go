package opengraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected Metadata
	}{
		{
			name: "all structured properties",
			html: `<html><head>
				<meta property="og:title" content="My Site">
				<meta property="og:description" content="A static site">
				<meta property="og:image" content="https://example.com/cover.png">
				<meta property="og:url" content="https://example.com/">
			</head></html>`,
			expected: Metadata{
				Title:       "My Site",
				Description: "A static site",
				Image:       "https://example.com/cover.png",
				URL:         "https://example.com/",
			},
		},
		{
			name: "structured title wins over title element",
			html: `<html><head>
				<title>Plain Title</title>
				<meta property="og:title" content="Structured Title">
			</head></html>`,
			expected: Metadata{Title: "Structured Title"},
		},
		{
			name:     "title element used when no structured title",
			html:     `<html><head><title>  Plain Title  </title></head></html>`,
			expected: Metadata{Title: "  Plain Title  "},
		},
		{
			name: "repeated structured tag keeps the last value",
			html: `<html><head>
				<meta property="og:title" content="First">
				<meta property="og:title" content="Second">
			</head></html>`,
			expected: Metadata{Title: "Second"},
		},
		{
			name: "description meta fallback",
			html: `<html><head>
				<meta name="description" content="Standard description">
				<meta name="description" content="Ignored second description">
			</head></html>`,
			expected: Metadata{Description: "Standard description"},
		},
		{
			name: "structured description wins over description meta",
			html: `<html><head>
				<meta name="description" content="Standard">
				<meta property="og:description" content="Structured">
			</head></html>`,
			expected: Metadata{Description: "Structured"},
		},
		{
			name: "empty structured content is ignored",
			html: `<html><head>
				<meta property="og:title" content="Kept">
				<meta property="og:title" content="">
			</head></html>`,
			expected: Metadata{Title: "Kept"},
		},
		{
			name: "unrecognized properties are ignored",
			html: `<html><head>
				<meta property="og:site_name" content="Site Name">
				<meta property="og:type" content="website">
				<meta property="twitter:title" content="Twitter">
			</head></html>`,
			expected: Metadata{},
		},
		{
			name:     "meta tags in body still count",
			html:     `<html><body><meta property="og:image" content="/cover.png"></body></html>`,
			expected: Metadata{Image: "/cover.png"},
		},
		{
			name:     "no metadata is a valid empty result",
			html:     `<html><body><p>hello</p></body></html>`,
			expected: Metadata{},
		},
		{
			name:     "scripts are not executed",
			html:     `<html><head><script>document.title = "Injected"</script></head></html>`,
			expected: Metadata{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Extract(strings.NewReader(tt.html))
			require.NoError(t, err)
			require.NotNil(t, data)
			assert.Equal(t, tt.expected, *data)
		})
	}
}

func TestMetadata_IsEmpty(t *testing.T) {
	var nilData *Metadata
	assert.True(t, nilData.IsEmpty())
	assert.True(t, (&Metadata{}).IsEmpty())
	assert.False(t, (&Metadata{URL: "https://example.com"}).IsEmpty())
}
