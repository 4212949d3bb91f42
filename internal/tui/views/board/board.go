// Package board renders the session board: every active, waiting, and
// finished interview session as one line, grouped by zone, with a movable
// selection.
package board

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Model holds the zoned session list and the cursor.
type Model struct {
	width    int
	sessions []*client.Session // grouped by zone, seat order inside each
	zones    []Zone            // zone of sessions[i]
	selected int

	now func() time.Time
}

func New() Model {
	return Model{now: time.Now}
}

func (m *Model) SetWidth(w int) { m.width = w }

// SetSessions replaces the board contents, regrouping by zone. The cursor
// keeps its index, clamped to the new length.
func (m *Model) SetSessions(list []*client.Session) {
	now := m.now()
	type entry struct {
		s *client.Session
		z Zone
	}
	entries := make([]entry, 0, len(list))
	for _, s := range list {
		entries = append(entries, entry{s: s, z: Classify(s, now)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].z != entries[j].z {
			return entries[i].z < entries[j].z
		}
		if entries[i].s.Seat != entries[j].s.Seat {
			return entries[i].s.Seat < entries[j].s.Seat
		}
		return entries[i].s.ID < entries[j].s.ID
	})
	m.sessions = m.sessions[:0]
	m.zones = m.zones[:0]
	for _, e := range entries {
		m.sessions = append(m.sessions, e.s)
		m.zones = append(m.zones, e.z)
	}
	m.clampSelection()
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.sessions) {
		m.selected = len(m.sessions) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) MoveUp() {
	if m.selected > 0 {
		m.selected--
	}
}

func (m *Model) MoveDown() {
	if m.selected < len(m.sessions)-1 {
		m.selected++
	}
}

// CycleZone jumps the cursor to the first session of the next non-empty
// zone, wrapping around.
func (m *Model) CycleZone() {
	if len(m.sessions) == 0 {
		return
	}
	cur := m.zones[m.selected]
	for step := 1; step <= int(zoneCount); step++ {
		want := Zone((int(cur) + step) % int(zoneCount))
		for i, z := range m.zones {
			if z == want {
				m.selected = i
				return
			}
		}
	}
}

// JumpToZone moves the cursor to the first session of the given zone, if
// any exist.
func (m *Model) JumpToZone(want Zone) {
	for i, z := range m.zones {
		if z == want {
			m.selected = i
			return
		}
	}
}

// SelectedSession returns the session under the cursor, or nil.
func (m *Model) SelectedSession() *client.Session {
	if m.selected < 0 || m.selected >= len(m.sessions) {
		return nil
	}
	return m.sessions[m.selected]
}

func (m *Model) Len() int { return len(m.sessions) }

// View renders the grouped board. Zone headers appear only for non-empty
// zones.
func (m *Model) View() string {
	if len(m.sessions) == 0 {
		return theme.StyleDimmed.Render("  no sessions yet, waiting for candidates")
	}
	now := m.now()
	var b strings.Builder
	var last Zone = -1
	for i, s := range m.sessions {
		z := m.zones[i]
		if z != last {
			if last != -1 {
				b.WriteString("\n")
			}
			b.WriteString(m.zoneHeader(z))
			b.WriteString("\n")
			last = z
		}
		b.WriteString(m.renderLine(s, z, i == m.selected, now))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) zoneHeader(z Zone) string {
	count := 0
	for _, zz := range m.zones {
		if zz == z {
			count++
		}
	}
	label := lipgloss.NewStyle().Bold(true).Foreground(z.color()).
		Render(z.String())
	head := label + theme.StyleDimmed.Render(" ("+strconv.Itoa(count)+") ")
	rule := m.width - lipgloss.Width(head) - 2
	if rule < 0 {
		rule = 0
	}
	return head + theme.StyleDimmed.Render(strings.Repeat("─", rule))
}
