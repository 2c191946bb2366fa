package preview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/nsite-directory/pkg/directory"
)

// ViewMode represents the current view mode
type ViewMode int

// View modes for the browser
const (
	ListViewMode ViewMode = iota
	DetailViewMode
	SearchMode
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Model is the Bubble Tea model for the site browser
type Model struct {
	all          []*directory.Card
	featured     []*directory.Card
	showFeatured bool
	hideUnknown  bool
	query        string
	visible      []*directory.Card
	cursor       int
	viewMode     ViewMode
	width        int
	height       int
}

// NewModel creates a browser over all cards. featured may be nil when no
// featured list is available; otherwise the browser starts on it.
func NewModel(all, featured []*directory.Card, hideUnknown bool) Model {
	m := Model{
		all:          all,
		featured:     featured,
		showFeatured: featured != nil,
		hideUnknown:  hideUnknown,
		viewMode:     ListViewMode,
	}
	m.refilter()
	return m
}

// refilter recomputes the visible cards and clamps the cursor
func (m *Model) refilter() {
	source := m.all
	if m.showFeatured {
		source = m.featured
	}
	m.visible = directory.Filter(source, m.query, m.hideUnknown)

	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ListViewMode:
			return m.updateListView(msg)
		case DetailViewMode:
			return m.updateDetailView(msg)
		case SearchMode:
			return m.updateSearch(msg)
		}
	}

	return m, nil
}

// updateListView handles key presses in list view mode
func (m Model) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}

	case "enter":
		if len(m.visible) > 0 {
			m.viewMode = DetailViewMode
		}

	case "/":
		m.viewMode = SearchMode

	case "f":
		if m.featured != nil {
			m.showFeatured = !m.showFeatured
			m.cursor = 0
			m.refilter()
		}

	case "h":
		m.hideUnknown = !m.hideUnknown
		m.refilter()

	case "esc":
		if m.query != "" {
			m.query = ""
			m.refilter()
		}
	}

	return m, nil
}

// updateSearch edits the query, filtering as the user types
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.viewMode = ListViewMode
	case tea.KeyEsc:
		m.query = ""
		m.viewMode = ListViewMode
	case tea.KeyBackspace:
		if runes := []rune(m.query); len(runes) > 0 {
			m.query = string(runes[:len(runes)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.query += string(msg.Runes)
	default:
		return m, nil
	}

	m.cursor = 0
	m.refilter()
	return m, nil
}

// updateDetailView handles key presses in detail view mode
func (m Model) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc", "backspace":
		m.viewMode = ListViewMode
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	if m.viewMode == DetailViewMode {
		return m.renderDetailView()
	}
	return m.renderListView()
}

// renderListView renders the list view
func (m Model) renderListView() string {
	var b strings.Builder

	label := "All"
	if m.showFeatured {
		label = "Featured"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s sites (%d)", label, len(m.visible))))
	b.WriteString("\n")

	switch {
	case m.viewMode == SearchMode:
		b.WriteString("/" + m.query + "█")
	case m.query != "":
		b.WriteString("search: " + m.query)
	}
	b.WriteString("\n\n")

	visibleStart := 0
	visibleEnd := len(m.visible)

	if m.height > 0 {
		maxVisible := max(m.height-7, 1)
		if maxVisible < len(m.visible) {
			// Keep cursor in the middle of the screen when possible
			visibleStart = max(m.cursor-maxVisible/2, 0)
			visibleEnd = visibleStart + maxVisible
			if visibleEnd > len(m.visible) {
				visibleEnd = len(m.visible)
				visibleStart = max(visibleEnd-maxVisible, 0)
			}
		}
	}

	if len(m.visible) == 0 {
		b.WriteString("  No sites found\n")
	}

	for i := visibleStart; i < visibleEnd; i++ {
		line := FormatCompactListItem(i, m.visible[i])
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("→ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := "↑/↓ or j/k: navigate • enter: details • /: search • h: hide unknown • q: quit"
	if m.featured != nil {
		footer = "↑/↓ or j/k: navigate • enter: details • /: search • f: featured/all • h: hide unknown • q: quit"
	}
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

// renderDetailView renders the detail view
func (m Model) renderDetailView() string {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return "No site selected"
	}

	var b strings.Builder
	b.WriteString(FormatDetailedItem(m.visible[m.cursor]))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("esc: back to list • q: quit"))

	return b.String()
}

// Run starts the Bubble Tea program
func Run(all, featured []*directory.Card, hideUnknown bool) error {
	if len(all) == 0 {
		fmt.Println("No sites to browse")
		return nil
	}

	p := tea.NewProgram(NewModel(all, featured, hideUnknown), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
