// Package opengraph fetches and caches the Open Graph summary of a page.
package opengraph

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Extract parses an HTML document and returns its Open Graph metadata.
//
// og:title, og:description, og:image and og:url tags are applied in document
// order, so a repeated property keeps its last value. A missing title falls
// back to the text of the first <title> element, whitespace included, and a
// missing description to the first <meta name="description">.
func Extract(r io.Reader) (*Metadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var (
		data         Metadata
		title        string
		titleSeen    bool
		description  string
		descSeen     bool
		extractNodes func(*html.Node)
	)

	extractNodes = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				property, name, content := metaAttributes(n)
				if strings.HasPrefix(property, propertyPrefix) && content != "" {
					applyProperty(&data, strings.TrimPrefix(property, propertyPrefix), content)
				}
				if name == "description" && !descSeen {
					descSeen = true
					description = content
				}
			case "title":
				if !titleSeen {
					titleSeen = true
					title = textContent(n)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractNodes(c)
		}
	}
	extractNodes(doc)

	if data.Title == "" {
		data.Title = title
	}
	if data.Description == "" {
		data.Description = description
	}

	return &data, nil
}

// applyProperty maps a recognized og: suffix onto the record
func applyProperty(data *Metadata, property, content string) {
	switch property {
	case "title":
		data.Title = content
	case "description":
		data.Description = content
	case "image":
		data.Image = content
	case "url":
		data.URL = content
	}
}

// metaAttributes returns the property, name and content attributes of a meta tag
func metaAttributes(n *html.Node) (property, name, content string) {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "property":
			property = attr.Val
		case "name":
			name = attr.Val
		case "content":
			content = attr.Val
		}
	}
	return property, name, content
}

// textContent concatenates every text node below n
func textContent(n *html.Node) string {
	var text strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			text.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return text.String()
}
