package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const nameWidth = 16

var orderedStages = []client.Stage{
	client.StageCreated,
	client.StageResume,
	client.StageInterview,
	client.StageAptitude,
	client.StageReport,
}

func (m *Model) renderLine(s *client.Session, z Zone, selected bool, now time.Time) string {
	prefix := "  "
	if selected {
		prefix = theme.StyleSelected.Render("▸ ")
	}
	var line string
	switch z {
	case ZoneLive:
		line = m.renderLiveLine(s, now)
	case ZoneWaiting:
		line = m.renderWaitingLine(s, now)
	default:
		line = m.renderFinishedLine(s)
	}
	return prefix + line
}

func (m *Model) renderLiveLine(s *client.Session, now time.Time) string {
	left := statusDot(s) + " " +
		padName(s.Candidate) + " " +
		theme.StageBadge(string(s.Stage)) + " " +
		stageTrack(s.Stage)

	var parts []string
	if s.WarningCount > 0 {
		warn := lipgloss.NewStyle().Foreground(theme.ColorWarning).
			Render(fmt.Sprintf("W:%d", s.WarningCount))
		parts = append(parts, warn)
	}
	if s.CurrentWarning != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("⚠"))
	}
	if s.Readiness > 0 {
		parts = append(parts, fmt.Sprintf("%3.0f%%", s.Readiness))
	}
	parts = append(parts, theme.StyleDimmed.Render(formatDur(now.Sub(s.StartedAt))))

	return m.padBetween(left, strings.Join(parts, " · "))
}

func (m *Model) renderWaitingLine(s *client.Session, now time.Time) string {
	note := "idle " + formatDur(now.Sub(s.LastActivityAt))
	if s.Stage == client.StageCreated {
		note = "in lobby"
	}
	if !s.CameraReady && s.CameraError != "" {
		note = "camera: " + s.CameraError
	}
	left := theme.StyleDimmed.Render("◌") + " " +
		padName(s.Candidate) + " " +
		theme.StageBadge(string(s.Stage))
	return m.padBetween(left, theme.StyleDimmed.Render(note))
}

func (m *Model) renderFinishedLine(s *client.Session) string {
	dot := lipgloss.NewStyle().Foreground(theme.ColorGood).Render("✓")
	if s.Stage == client.StageAbandoned {
		dot = lipgloss.NewStyle().Foreground(theme.ColorCritical).Render("✗")
	}
	left := dot + " " +
		theme.StyleDimmed.Render(padName(s.Candidate)) + " " +
		theme.StageBadge(string(s.Stage))

	var parts []string
	if s.Readiness > 0 {
		sty := lipgloss.NewStyle().Foreground(theme.ScoreBarColor(s.Readiness))
		parts = append(parts, sty.Render(fmt.Sprintf("%3.0f%%", s.Readiness)))
	}
	if s.CompletedAt != nil {
		parts = append(parts, theme.StyleDimmed.Render(formatDur(s.CompletedAt.Sub(s.StartedAt))))
	}
	return m.padBetween(left, strings.Join(parts, " · "))
}

// padBetween right-aligns the second column inside the board width.
func (m *Model) padBetween(left, right string) string {
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// statusDot colors a dot by proctoring status level; a camera fault always
// shows as an error regardless of warnings.
func statusDot(s *client.Session) string {
	level := s.StatusLevel
	if s.CameraError != "" {
		level = "error"
	}
	if level == "" {
		level = "good"
	}
	return lipgloss.NewStyle().Foreground(theme.LevelColor(level)).Render("●")
}

// stageTrack draws the session's progress through the interview stages as a
// row of dots, the current stage highlighted.
func stageTrack(stage client.Stage) string {
	cur := stageIndex(stage)
	glyphs := make([]string, len(orderedStages))
	for i := range orderedStages {
		switch {
		case stage == client.StageComplete || i < cur:
			glyphs[i] = lipgloss.NewStyle().Foreground(theme.ColorGood).Render("●")
		case i == cur:
			glyphs[i] = lipgloss.NewStyle().Bold(true).
				Foreground(theme.StageColor(string(stage))).Render("◉")
		default:
			glyphs[i] = theme.StyleDimmed.Render("○")
		}
	}
	return strings.Join(glyphs, theme.StyleDimmed.Render("─"))
}

func stageIndex(stage client.Stage) int {
	for i, s := range orderedStages {
		if s == stage {
			return i
		}
	}
	return len(orderedStages)
}

func padName(name string) string {
	if name == "" {
		name = "(unnamed)"
	}
	r := []rune(name)
	if len(r) > nameWidth {
		return string(r[:nameWidth-1]) + "…"
	}
	return name + strings.Repeat(" ", nameWidth-len(r))
}

func formatDur(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
