// Package status renders the top bar: connection state, server address, and
// session counts.
package status

import (
	"fmt"
	"strings"

	"github.com/greenroomhq/greenroom/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the status bar state. Counts are set by the app on every
// snapshot or delta.
type Model struct {
	Connected bool
	URL       string
	Live      int
	Waiting   int
	Done      int
	Err       string

	spin spinner.Model
}

func New(url string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorCaution)
	return Model{URL: url, spin: sp}
}

// StartSpinner returns the tick command that animates the connecting
// indicator. Issue it on startup and after every disconnect.
func (m Model) StartSpinner() tea.Cmd { return m.spin.Tick }

// SpinnerView exposes the spinner frame for the disconnect overlay.
func (m Model) SpinnerView() string { return m.spin.View() }

// Update advances the spinner while disconnected. Once connected the tick
// chain is dropped and the spinner stops.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.Connected {
		return m, nil
	}
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

func (m Model) View(width int) string {
	title := theme.StyleHeader.Render("GREENROOM")

	var conn string
	if m.Connected {
		dot := lipgloss.NewStyle().Foreground(theme.ColorGood).Render("●")
		conn = dot + " " + m.URL
	} else {
		conn = m.spin.View() + " connecting " + theme.StyleDimmed.Render(m.URL)
	}

	left := title + "  " + conn
	if m.Err != "" {
		left += "  " + theme.StyleError.Render("! "+m.Err)
	}

	right := theme.StyleDimmed.Render(fmt.Sprintf(
		"%d live · %d waiting · %d done", m.Live, m.Waiting, m.Done))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	rule := theme.StyleDimmed.Render(strings.Repeat("─", max(width, 0)))
	return bar + "\n" + rule
}
