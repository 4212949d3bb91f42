package detail

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const meterFPS = 30

// TickMsg drives one animation frame of the warning meter.
type TickMsg time.Time

// Tick schedules the next meter frame.
func Tick() tea.Cmd {
	return tea.Tick(time.Second/meterFPS, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Meter animates a 0..1 fill level toward its target with a spring, so the
// warning bar eases instead of jumping when violations land.
type Meter struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
}

func NewMeter() Meter {
	return Meter{spring: harmonica.NewSpring(harmonica.FPS(meterFPS), 6.0, 0.8)}
}

// SetTarget clamps and sets the fill level the spring pulls toward.
func (m *Meter) SetTarget(t float64) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	m.target = t
}

// Step advances the spring by one frame.
func (m *Meter) Step() {
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
}

// Settled reports whether the animation has converged; once true the app
// stops scheduling ticks until the target moves again.
func (m *Meter) Settled() bool {
	return math.Abs(m.pos-m.target) < 0.005 && math.Abs(m.vel) < 0.005
}

// Value is the current animated fill level.
func (m *Meter) Value() float64 { return m.pos }
