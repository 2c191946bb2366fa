package preview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/nsite-directory/pkg/directory"
	"github.com/lepinkainen/nsite-directory/pkg/opengraph"
)

func testCards() []*directory.Card {
	return []*directory.Card{
		{EventID: "1", Title: "Alice's Blog", ManifestTitle: "Alice's Blog", Identifier: "blog", URL: "https://blog.a/", FileCount: 2,
			UpdatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Publisher: directory.Publisher{Name: "Alice", Npub: "npub1a"}},
		{EventID: "2", Title: "Photo gallery", Identifier: "root", URL: "https://b/",
			OpenGraph: &opengraph.Metadata{Title: "Photo gallery", Image: "https://b/i.png"}},
		{EventID: "3", Title: "npub1ccc", Identifier: "root", URL: "https://c/"},
	}
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func TestModel_Navigation(t *testing.T) {
	m := NewModel(testCards(), nil, false)
	assert.Len(t, m.visible, 3)

	m = update(t, m, keys("j"))
	m = update(t, m, keys("j"))
	m = update(t, m, keys("j"))
	assert.Equal(t, 2, m.cursor)

	m = update(t, m, keys("k"))
	assert.Equal(t, 1, m.cursor)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, DetailViewMode, m.viewMode)
	assert.Contains(t, m.View(), "Photo gallery")
	assert.Contains(t, m.View(), "Image: https://b/i.png")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ListViewMode, m.viewMode)
}

func TestModel_Search(t *testing.T) {
	m := NewModel(testCards(), nil, false)

	m = update(t, m, keys("/"))
	assert.Equal(t, SearchMode, m.viewMode)

	m = update(t, m, keys("gal"))
	assert.Equal(t, "gal", m.query)
	require.Len(t, m.visible, 1)
	assert.Equal(t, "2", m.visible[0].EventID)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "ga", m.query)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ListViewMode, m.viewMode)
	assert.Contains(t, m.View(), "search: ga")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "", m.query)
	assert.Len(t, m.visible, 3)
}

func TestModel_FeaturedToggle(t *testing.T) {
	cards := testCards()
	m := NewModel(cards, cards[:1], false)

	assert.True(t, m.showFeatured)
	assert.Len(t, m.visible, 1)
	assert.True(t, strings.Contains(m.View(), "Featured sites (1)"))

	m = update(t, m, keys("f"))
	assert.False(t, m.showFeatured)
	assert.Len(t, m.visible, 3)

	withoutFeatured := NewModel(cards, nil, false)
	withoutFeatured = update(t, withoutFeatured, keys("f"))
	assert.False(t, withoutFeatured.showFeatured)
}

func TestModel_HideUnknown(t *testing.T) {
	m := NewModel(testCards(), nil, false)

	m = update(t, m, keys("h"))
	assert.True(t, m.hideUnknown)
	assert.Len(t, m.visible, 2)
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(testCards(), nil, false)

	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestFormatCompactListItem(t *testing.T) {
	line := FormatCompactListItem(0, testCards()[0])
	assert.Equal(t, " 1. 2024-03-01  blog           Alice's Blog", line)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "", wrapText("", 10))
}
