// Package templates holds the HTML templates compiled into the binary.
package templates

import "embed"

// EmbeddedTemplates provides read-only access to the built-in page templates.
//
//go:embed *.html.tmpl
var EmbeddedTemplates embed.FS
