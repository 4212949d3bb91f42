// Package statsview shows the aggregate practice stats overlay: totals,
// clean streak, best scores, and the violation breakdown.
package statsview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	panelWidth = 58
	barWidth   = 24
)

// LoadedMsg carries the fetched stats, or the fetch error.
type LoadedMsg struct {
	Stats *client.Stats
	Err   error
}

// FetchCmd loads the stats off the UI loop.
func FetchCmd(c *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		s, err := c.GetStats()
		return LoadedMsg{Stats: s, Err: err}
	}
}

// Model is the stats overlay.
type Model struct {
	Open bool

	loading bool
	err     error
	stats   *client.Stats
}

// OpenAndLoad marks the overlay open and loading; pair with FetchCmd.
func (m *Model) OpenAndLoad() {
	m.Open = true
	m.loading = true
	m.err = nil
}

func (m *Model) Loaded(msg LoadedMsg) {
	m.loading = false
	m.err = msg.Err
	m.stats = msg.Stats
}

// ViewOverlay renders the centered stats panel.
func (m *Model) ViewOverlay(width, height int) string {
	panel := theme.StyleBorder.Width(panelWidth).Padding(0, 1).Render(m.content())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}

func (m *Model) content() string {
	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render("PRACTICE STATS") + "\n")
	b.WriteString(theme.StyleDimmed.Render(strings.Repeat("─", panelWidth-4)) + "\n")

	switch {
	case m.loading:
		b.WriteString(theme.StyleDimmed.Render("loading…"))
		return b.String()
	case m.err != nil:
		b.WriteString(theme.StyleError.Render(m.err.Error()))
		return b.String()
	case m.stats == nil:
		b.WriteString(theme.StyleDimmed.Render("no stats yet"))
		return b.String()
	}

	s := m.stats
	row(&b, "sessions", fmt.Sprintf("%d total · %d completed · %d abandoned",
		s.TotalSessions, s.CompletedSessions, s.AbandonedSessions))
	streak := fmt.Sprintf("%d clean in a row", s.CleanStreak)
	if s.CleanStreak > 0 {
		streak = lipgloss.NewStyle().Foreground(theme.ColorGood).Render(streak)
	} else {
		streak = theme.StyleDimmed.Render(streak)
	}
	row(&b, "streak", streak)

	b.WriteString("\n" + theme.StyleDimmed.Render("best scores") + "\n")
	scoreRow(&b, "ats", s.BestScores.ATS)
	scoreRow(&b, "interview", s.BestScores.Interview)
	scoreRow(&b, "aptitude", s.BestScores.Aptitude)
	scoreRow(&b, "readiness", s.BestScores.Readiness)

	if len(s.ViolationsByKind) > 0 {
		b.WriteString("\n" + theme.StyleDimmed.Render(
			fmt.Sprintf("violations (%d)", s.TotalViolations)) + "\n")
		for _, kv := range sortedKinds(s.ViolationsByKind) {
			kind := lipgloss.NewStyle().Foreground(theme.KindColor(kv.kind)).
				Render(fmt.Sprintf("%-15s", kv.kind))
			b.WriteString(fmt.Sprintf("  %s %s %d\n", kind, countBar(kv.n, s.TotalViolations), kv.n))
		}
	}

	b.WriteString("\n")
	row(&b, "practice", fmt.Sprintf("%d distinct days", len(s.PracticeDays)))
	row(&b, "busiest", fmt.Sprintf("%d concurrent sessions", s.MaxConcurrentActive))
	if s.MaxSessionDurationSec > 0 {
		row(&b, "longest", formatSeconds(s.MaxSessionDurationSec))
	}
	b.WriteString(theme.StyleDimmed.Render(
		"updated " + s.LastUpdated.Format("2006-01-02 15:04")))

	return strings.TrimRight(b.String(), "\n")
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("%-10s", label)))
	b.WriteString(value)
	b.WriteString("\n")
}

func scoreRow(b *strings.Builder, label string, score float64) {
	frac := score / 100
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(barWidth) + 0.5)
	bar := lipgloss.NewStyle().Foreground(theme.ScoreBarColor(score)).
		Render(strings.Repeat("█", filled))
	bar += theme.StyleDimmed.Render(strings.Repeat("░", barWidth-filled))
	b.WriteString(fmt.Sprintf("  %s %s %3.0f\n",
		theme.StyleDimmed.Render(fmt.Sprintf("%-10s", label)), bar, score))
}

func countBar(n, total int) string {
	if total <= 0 {
		total = 1
	}
	w := n * 12 / total
	if w < 1 {
		w = 1
	}
	return theme.StyleDimmed.Render(strings.Repeat("▪", w))
}

type kindCount struct {
	kind string
	n    int
}

func sortedKinds(byKind map[string]int) []kindCount {
	out := make([]kindCount, 0, len(byKind))
	for k, n := range byKind {
		out = append(out, kindCount{kind: k, n: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].kind < out[j].kind
	})
	return out
}

func formatSeconds(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
