// Package theme holds the shared palette and styles for the dashboard.
// Colors can be overridden from a YAML file so operators can match their
// terminal scheme without rebuilding.
package theme

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	ColorFg     = lipgloss.Color("#E5E7EB")
	ColorDim    = lipgloss.Color("#6B7280")
	ColorBorder = lipgloss.Color("#3F3F46")
	ColorAccent = lipgloss.Color("#34D399")

	ColorGood     = lipgloss.Color("#22C55E")
	ColorCaution  = lipgloss.Color("#FACC15")
	ColorWarning  = lipgloss.Color("#FB923C")
	ColorCritical = lipgloss.Color("#EF4444")
	ColorError    = lipgloss.Color("#EC4899")

	ColorLive     = lipgloss.Color("#34D399")
	ColorWaiting  = lipgloss.Color("#818CF8")
	ColorFinished = lipgloss.Color("#6B7280")
)

var (
	StyleHeader   lipgloss.Style
	StyleBorder   lipgloss.Style
	StyleDimmed   lipgloss.Style
	StyleSelected lipgloss.Style
	StyleHelp     lipgloss.Style
	StyleError    lipgloss.Style
)

func init() { rebuild() }

func rebuild() {
	StyleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	StyleBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)
	StyleDimmed = lipgloss.NewStyle().Foreground(ColorDim)
	StyleSelected = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	StyleHelp = lipgloss.NewStyle().Foreground(ColorDim)
	StyleError = lipgloss.NewStyle().Bold(true).Foreground(ColorCritical)
}

// LevelColor maps a proctoring status level to its display color.
func LevelColor(level string) lipgloss.Color {
	switch level {
	case "good":
		return ColorGood
	case "caution":
		return ColorCaution
	case "warning":
		return ColorWarning
	case "critical":
		return ColorCritical
	case "error":
		return ColorError
	}
	return ColorDim
}

// StageColor maps an interview stage to its display color.
func StageColor(stage string) lipgloss.Color {
	switch stage {
	case "created":
		return ColorDim
	case "resume_review":
		return lipgloss.Color("#60A5FA")
	case "interview":
		return lipgloss.Color("#A78BFA")
	case "aptitude":
		return lipgloss.Color("#F59E0B")
	case "report":
		return lipgloss.Color("#2DD4BF")
	case "complete":
		return ColorGood
	case "abandoned":
		return ColorCritical
	}
	return ColorFg
}

// StageBadge renders a short colored tag for the stage column.
func StageBadge(stage string) string {
	label := map[string]string{
		"created":       "NEW",
		"resume_review": "RES",
		"interview":     "INT",
		"aptitude":      "APT",
		"report":        "RPT",
		"complete":      "DONE",
		"abandoned":     "ABND",
	}[stage]
	if label == "" {
		label = "?"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(StageColor(stage)).Render(label)
}

// KindColor maps a violation kind to a severity color.
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "tab-switch", "window-blur":
		return ColorCaution
	case "looking-away", "out-of-frame":
		return ColorWarning
	case "no-face", "multiple-faces", "camera-blocked":
		return ColorCritical
	}
	return ColorDim
}

// ScoreBarColor maps a 0-100 score to a bar color.
func ScoreBarColor(score float64) lipgloss.Color {
	switch {
	case score >= 80:
		return ColorGood
	case score >= 50:
		return ColorCaution
	default:
		return ColorCritical
	}
}

// Overrides is the YAML shape accepted by Load. Empty fields keep the
// built-in color.
type Overrides struct {
	Accent   string `yaml:"accent"`
	Fg       string `yaml:"fg"`
	Dim      string `yaml:"dim"`
	Border   string `yaml:"border"`
	Good     string `yaml:"good"`
	Caution  string `yaml:"caution"`
	Warning  string `yaml:"warning"`
	Critical string `yaml:"critical"`
	Error    string `yaml:"error"`
	Live     string `yaml:"live"`
	Waiting  string `yaml:"waiting"`
	Finished string `yaml:"finished"`
}

// Load applies palette overrides from a YAML file and rebuilds the derived
// styles.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read theme: %w", err)
	}
	var ov Overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parse theme: %w", err)
	}
	Apply(ov)
	return nil
}

// Apply sets every non-empty override and rebuilds the derived styles.
func Apply(ov Overrides) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&ColorAccent, ov.Accent)
	set(&ColorFg, ov.Fg)
	set(&ColorDim, ov.Dim)
	set(&ColorBorder, ov.Border)
	set(&ColorGood, ov.Good)
	set(&ColorCaution, ov.Caution)
	set(&ColorWarning, ov.Warning)
	set(&ColorCritical, ov.Critical)
	set(&ColorError, ov.Error)
	set(&ColorLive, ov.Live)
	set(&ColorWaiting, ov.Waiting)
	set(&ColorFinished, ov.Finished)
	rebuild()
}
