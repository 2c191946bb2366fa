// Package preview provides an interactive site browser using Bubble Tea.
package preview

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lepinkainen/nsite-directory/pkg/directory"
)

// maxTitleLength keeps list rows on one line in an 80 column terminal
const maxTitleLength = 40

// wrapText wraps text to the specified width, breaking at word boundaries when possible
func wrapText(text string, width int) string {
	if width <= 0 {
		width = 70
	}

	var result strings.Builder
	var line strings.Builder
	lineLen := 0

	words := strings.Fields(text)
	for i, word := range words {
		wordLen := utf8.RuneCountInString(word)

		if lineLen > 0 && lineLen+1+wordLen > width {
			result.WriteString(line.String())
			result.WriteString("\n")
			line.Reset()
			lineLen = 0
		}

		if lineLen > 0 {
			line.WriteString(" ")
			lineLen++
		}

		line.WriteString(word)
		lineLen += wordLen

		if i == len(words)-1 {
			result.WriteString(line.String())
		}
	}

	return result.String()
}

// truncate shortens s to maxLen runes
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}

// FormatCompactListItem formats a card as a single list row
// Example: " 1. 2025-10-21  blog           Alice's Blog"
func FormatCompactListItem(index int, card *directory.Card) string {
	return fmt.Sprintf("%2d. %s  %-14s %s",
		index+1,
		card.UpdatedAt.Format(time.DateOnly),
		truncate(card.Identifier, 14),
		truncate(card.Title, maxTitleLength))
}

// FormatDetailedItem formats a card with all its metadata
func FormatDetailedItem(card *directory.Card) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(&b, "Title: %s\n", card.Title)
	fmt.Fprintf(&b, "URL: %s\n", card.URL)
	fmt.Fprintf(&b, "Identifier: %s\n", card.Identifier)
	fmt.Fprintf(&b, "Files: %d\n", card.FileCount)
	fmt.Fprintf(&b, "Updated: %s\n", card.UpdatedAt.Format(time.RFC3339))
	b.WriteString("───────────────────────────────────────────────────────────────────────\n")
	fmt.Fprintf(&b, "Publisher: %s\n", card.Publisher.Name)
	fmt.Fprintf(&b, "Npub: %s\n", card.Publisher.Npub)
	if card.Publisher.NIP05 != "" {
		fmt.Fprintf(&b, "NIP-05: %s\n", card.Publisher.NIP05)
	}

	if card.ManifestTitle != "" || card.ManifestDescription != "" {
		b.WriteString("───────────────────────────────────────────────────────────────────────\n")
		b.WriteString("Manifest:\n")
		if card.ManifestTitle != "" {
			fmt.Fprintf(&b, "  Title: %s\n", card.ManifestTitle)
		}
		if card.ManifestDescription != "" {
			fmt.Fprintf(&b, "  %s\n", wrapText(card.ManifestDescription, 68))
		}
	}

	if og := card.OpenGraph; og != nil {
		b.WriteString("───────────────────────────────────────────────────────────────────────\n")
		b.WriteString("Open Graph:\n")
		if og.Title != "" {
			fmt.Fprintf(&b, "  Title: %s\n", og.Title)
		}
		if og.Description != "" {
			fmt.Fprintf(&b, "  %s\n", wrapText(og.Description, 68))
		}
		if og.Image != "" {
			fmt.Fprintf(&b, "  Image: %s\n", og.Image)
		}
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	return b.String()
}
