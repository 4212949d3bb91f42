// Package detail renders the flyout panel for the selected session: camera
// and face state, the animated warning meter, frame metrics, and scores.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const (
	panelWidth = 64
	barWidth   = 28
)

// Model holds the panel state. The app keeps it pointed at the board
// selection and feeds it proctor snapshots as they arrive.
type Model struct {
	Open bool

	session *client.Session
	snap    *client.ProctorSnapshot
	meter   Meter

	now func() time.Time
}

func New() Model {
	return Model{meter: NewMeter(), now: time.Now}
}

// SetSession points the panel at a session and retargets the meter.
func (m *Model) SetSession(s *client.Session, snap *client.ProctorSnapshot) {
	m.session = s
	m.snap = snap
	m.retarget()
}

// SetSnapshot updates the live proctor state without changing the session.
func (m *Model) SetSnapshot(snap *client.ProctorSnapshot) {
	m.snap = snap
	m.retarget()
}

// The meter fills as warnings approach the critical threshold of five.
func (m *Model) retarget() {
	warnings := 0
	if m.session != nil {
		warnings = m.session.WarningCount
	}
	if m.snap != nil {
		warnings = m.snap.Warnings
	}
	m.meter.SetTarget(float64(warnings) / 5)
}

// StepMeter advances the animation one frame; returns true while more
// frames are needed.
func (m *Model) StepMeter() bool {
	m.meter.Step()
	return !m.meter.Settled()
}

// Animating reports whether the meter still needs frames.
func (m *Model) Animating() bool { return m.Open && !m.meter.Settled() }

// SessionID returns the shown session's ID, or "".
func (m *Model) SessionID() string {
	if m.session == nil {
		return ""
	}
	return m.session.ID
}

// ViewOverlay centers the panel in the given screen box.
func (m *Model) ViewOverlay(width, height int) string {
	if m.session == nil {
		return ""
	}
	panel := theme.StyleBorder.Width(panelWidth).Padding(0, 1).Render(m.content())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}

func (m *Model) content() string {
	s := m.session
	var b strings.Builder

	name := s.Candidate
	if name == "" {
		name = "(unnamed)"
	}
	title := theme.StyleHeader.Render(name)
	if s.Role != "" {
		title += theme.StyleDimmed.Render(" · " + s.Role)
	}
	b.WriteString(title + "\n")
	b.WriteString(theme.StyleDimmed.Render(strings.Repeat("─", panelWidth-4)) + "\n")

	writeRow(&b, "stage", theme.StageBadge(string(s.Stage))+"  "+theme.StyleDimmed.Render(fmt.Sprintf("seat %d", s.Seat)))
	writeRow(&b, "camera", m.cameraValue())
	if m.snap != nil {
		writeRow(&b, "face", faceValue(m.snap.Face))
	}

	b.WriteString("\n")
	writeRow(&b, "warnings", m.meterValue())
	writeRow(&b, "counts", theme.StyleDimmed.Render(fmt.Sprintf(
		"tab %d · away %d · frame %s", s.TabSwitchCount, s.LookAwayCount, outOfFrameValue(s, m.snap))))
	if s.CurrentWarning != "" {
		writeRow(&b, "active", lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(s.CurrentWarning))
	}

	if m.snap != nil && m.snap.Phase == "monitoring" {
		b.WriteString("\n")
		writeRow(&b, "brightness", renderBar(m.snap.Brightness/255, theme.ColorCaution))
		writeRow(&b, "skin", renderBar(m.snap.SkinRatio, theme.ColorAccent))
	}

	b.WriteString("\n")
	writeRow(&b, "ats", scoreValue(s.ATSScore))
	writeRow(&b, "interview", scoreValue(s.InterviewScore))
	writeRow(&b, "aptitude", scoreValue(s.AptitudeScore))
	writeRow(&b, "readiness", scoreValue(s.Readiness))
	if len(s.Answers) > 0 {
		writeRow(&b, "answers", answersValue(s.Answers))
	}

	b.WriteString("\n")
	now := m.now()
	writeRow(&b, "started", theme.StyleDimmed.Render(formatAge(now.Sub(s.StartedAt))))
	writeRow(&b, "activity", theme.StyleDimmed.Render(formatAge(now.Sub(s.LastActivityAt))))

	return strings.TrimRight(b.String(), "\n")
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("%-11s", label)))
	b.WriteString(value)
	b.WriteString("\n")
}

func (m *Model) cameraValue() string {
	s := m.session
	if s.CameraError != "" {
		return theme.StyleError.Render("✕ " + s.CameraError)
	}
	if !s.CameraReady {
		return theme.StyleDimmed.Render("off")
	}
	if s.Monitoring {
		return lipgloss.NewStyle().Foreground(theme.ColorGood).Render("● monitoring")
	}
	return lipgloss.NewStyle().Foreground(theme.ColorGood).Render("ready")
}

func faceValue(face string) string {
	switch face {
	case "present":
		return lipgloss.NewStyle().Foreground(theme.ColorGood).Render("present")
	case "absent":
		return theme.StyleError.Render("absent")
	case "out_of_frame":
		return lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("out of frame")
	}
	return theme.StyleDimmed.Render(face)
}

func outOfFrameValue(s *client.Session, snap *client.ProctorSnapshot) string {
	if snap != nil && snap.OutOfFrame {
		return fmt.Sprintf("out %ds", snap.OutOfFrameSeconds)
	}
	if s.OutOfFrame {
		return "out"
	}
	return "in"
}

// meterValue renders the animated warning bar with the live count and
// status label.
func (m *Model) meterValue() string {
	level := "good"
	label := ""
	warnings := m.session.WarningCount
	if m.snap != nil {
		level = m.snap.Level
		label = m.snap.Label
		warnings = m.snap.Warnings
	} else if m.session.StatusLevel != "" {
		level = m.session.StatusLevel
	}
	bar := renderBar(m.meter.Value(), theme.LevelColor(level))
	out := fmt.Sprintf("%s %d", bar, warnings)
	if label != "" {
		out += " " + theme.StyleDimmed.Render(label)
	}
	return out
}

func renderBar(frac float64, color lipgloss.Color) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(barWidth) + 0.5)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	bar += theme.StyleDimmed.Render(strings.Repeat("░", barWidth-filled))
	return bar
}

func scoreValue(score float64) string {
	if score <= 0 {
		return theme.StyleDimmed.Render("not scored")
	}
	sty := lipgloss.NewStyle().Foreground(theme.ScoreBarColor(score))
	return sty.Render(fmt.Sprintf("%.0f", score))
}

func answersValue(answers []client.Answer) string {
	valid := 0
	sum := 0
	for _, a := range answers {
		if a.Valid {
			valid++
		}
		sum += a.Score
	}
	avg := sum / len(answers)
	return fmt.Sprintf("%d answered · %d valid · avg %d", len(answers), valid, avg)
}

func formatAge(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm ago", int(d.Hours()), int(d.Minutes())%60)
	}
}
