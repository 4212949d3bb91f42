// Package reportview shows a session's readiness report, fetched as
// markdown and rendered for the terminal.
package reportview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/theme"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// LoadedMsg carries the fetched report, or the fetch error.
type LoadedMsg struct {
	SessionID string
	Markdown  string
	Err       error
}

// FetchCmd loads a session's report off the UI loop.
func FetchCmd(c *client.HTTPClient, sessionID string) tea.Cmd {
	return func() tea.Msg {
		md, err := c.GetReportMarkdown(sessionID)
		return LoadedMsg{SessionID: sessionID, Markdown: md, Err: err}
	}
}

// Model is the report overlay: a viewport over glamour-rendered markdown.
type Model struct {
	Open bool

	sessionID string
	candidate string
	loading   bool
	err       error
	raw       string

	vp     viewport.Model
	width  int
	height int
}

func New() Model {
	return Model{vp: viewport.New(0, 0)}
}

// OpenFor starts showing (and loading) the report for a session.
func (m *Model) OpenFor(sessionID, candidate string) {
	m.Open = true
	m.sessionID = sessionID
	m.candidate = candidate
	m.loading = true
	m.err = nil
	m.raw = ""
	m.vp.SetContent("")
	m.vp.GotoTop()
}

// SessionID returns the session whose report is shown.
func (m *Model) SessionID() string { return m.sessionID }

// SetSize resizes the overlay and re-renders the markdown at the new wrap
// width.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	pw, ph := m.panelSize()
	m.vp.Width = pw - 4
	m.vp.Height = ph - 4
	if m.raw != "" {
		m.render()
	}
}

func (m *Model) panelSize() (int, int) {
	pw := m.width - 8
	if pw > 84 {
		pw = 84
	}
	if pw < 20 {
		pw = 20
	}
	ph := m.height - 4
	if ph < 8 {
		ph = 8
	}
	return pw, ph
}

// Loaded applies a fetch result. Stale results for a previously shown
// session are dropped.
func (m *Model) Loaded(msg LoadedMsg) {
	if msg.SessionID != m.sessionID {
		return
	}
	m.loading = false
	m.err = msg.Err
	m.raw = msg.Markdown
	if m.err == nil {
		m.render()
	}
}

func (m *Model) render() {
	wrap := m.vp.Width
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.err = err
		return
	}
	out, err := r.Render(m.raw)
	if err != nil {
		m.err = err
		return
	}
	m.vp.SetContent(out)
	m.vp.GotoTop()
}

func (m *Model) ScrollUp()   { m.vp.LineUp(1) }
func (m *Model) ScrollDown() { m.vp.LineDown(1) }
func (m *Model) PageUp()     { m.vp.ViewUp() }
func (m *Model) PageDown()   { m.vp.ViewDown() }

// ViewOverlay renders the centered report panel.
func (m *Model) ViewOverlay() string {
	pw, ph := m.panelSize()

	title := theme.StyleHeader.Render("READINESS REPORT")
	if m.candidate != "" {
		title += theme.StyleDimmed.Render(" · " + m.candidate)
	}

	var body string
	switch {
	case m.loading:
		body = theme.StyleDimmed.Render("loading…")
	case errors.Is(m.err, client.ErrNoReport):
		body = theme.StyleDimmed.Render("no report generated for this session yet")
	case m.err != nil:
		body = theme.StyleError.Render(m.err.Error())
	default:
		body = m.vp.View()
	}

	footer := theme.StyleDimmed.Render(fmt.Sprintf("%3.0f%%", m.vp.ScrollPercent()*100))
	inner := title + "\n" +
		theme.StyleDimmed.Render(strings.Repeat("─", pw-4)) + "\n" +
		body + "\n" + footer

	panel := theme.StyleBorder.Width(pw).Height(ph).Padding(0, 1).Render(inner)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
