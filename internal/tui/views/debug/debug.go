// Package debug renders the toggleable client log: socket lifecycle,
// sequence gaps, fetch errors. Useful when the board looks wrong.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/greenroomhq/greenroom/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const maxEntries = 200

// Entry kinds.
const (
	KindWS  = "ws"
	KindErr = "err"
	KindNav = "nav"
	KindVio = "vio"
	KindCam = "cam"
)

type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model is a capped log with bottom-anchored scrolling.
type Model struct {
	entries []Entry
	Offset  int
}

// Add appends a log line and snaps the view back to the tail.
func (m *Model) Add(kind, message string) {
	m.entries = append(m.entries, Entry{Time: time.Now(), Kind: kind, Message: message})
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
	m.Offset = 0
}

func (m *Model) Len() int { return len(m.entries) }

func (m *Model) ScrollUp() {
	if m.Offset < len(m.entries)-1 {
		m.Offset++
	}
}

func (m *Model) ScrollDown() {
	if m.Offset > 0 {
		m.Offset--
	}
}

// View renders the last lines that fit, honoring the scroll offset.
func (m *Model) View(width, height int) string {
	if height < 1 {
		return ""
	}
	if len(m.entries) == 0 {
		return theme.StyleDimmed.Render("  log empty")
	}
	end := len(m.entries) - m.Offset
	if end < 1 {
		end = 1
	}
	start := end - height
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, end-start)
	for _, e := range m.entries[start:end] {
		msg := e.Message
		if budget := width - 15; budget > 3 && len([]rune(msg)) > budget {
			msg = string([]rune(msg)[:budget-1]) + "…"
		}
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
		kind := lipgloss.NewStyle().Foreground(kindColor(e.Kind)).
			Render(fmt.Sprintf("%-4s", e.Kind))
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, kind, msg))
	}
	return strings.Join(lines, "\n")
}

func kindColor(kind string) lipgloss.Color {
	switch kind {
	case KindErr:
		return theme.ColorCritical
	case KindWS:
		return theme.ColorAccent
	case KindVio:
		return theme.ColorWarning
	case KindCam:
		return theme.ColorCaution
	}
	return theme.ColorDim
}
