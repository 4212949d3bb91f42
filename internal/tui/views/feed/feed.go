// Package feed renders the rolling violation feed: every violation pushed
// over the socket, newest at the bottom.
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/greenroomhq/greenroom/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const maxEntries = 200

// Entry is one violation line.
type Entry struct {
	Time      time.Time
	Candidate string
	Kind      string
	Message   string
}

// Model keeps a capped buffer of entries with bottom-anchored scrolling.
// Offset counts lines scrolled up from the live tail.
type Model struct {
	entries []Entry
	Offset  int
}

// Add appends an entry, trims the buffer, and snaps back to the tail so new
// violations are always visible.
func (m *Model) Add(e Entry) {
	m.entries = append(m.entries, e)
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

// View renders the visible window, bottom-anchored.
func (m *Model) View(width, height int) string {
	if height < 1 {
		return ""
	}
	if len(m.entries) == 0 {
		return theme.StyleDimmed.Render("  no violations recorded")
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
		lines = append(lines, renderEntry(e, width))
	}
	return strings.Join(lines, "\n")
}

func renderEntry(e Entry, width int) string {
	who := e.Candidate
	if who == "" {
		who = "?"
	}
	msg := e.Message
	// 8 timestamp + 14 kind + 16 name + 3 separators
	if budget := width - 41; budget > 3 && len([]rune(msg)) > budget {
		msg = string([]rune(msg)[:budget-1]) + "…"
	}
	ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
	kind := lipgloss.NewStyle().Bold(true).Foreground(theme.KindColor(e.Kind)).
		Render(fmt.Sprintf("%-14s", e.Kind))
	return fmt.Sprintf("%s %s %-16s %s", ts, kind, who, msg)
}
