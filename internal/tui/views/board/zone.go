package board

import (
	"time"

	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Zone groups sessions on the board by what deserves attention: live
// monitored candidates first, idle ones next, finished attempts last.
type Zone int

const (
	ZoneLive Zone = iota
	ZoneWaiting
	ZoneFinished
	zoneCount
)

// ActivityFreshness is how recent a session's last activity must be to
// count as live when the proctor is not running.
const ActivityFreshness = 30 * time.Second

func (z Zone) String() string {
	switch z {
	case ZoneLive:
		return "LIVE"
	case ZoneWaiting:
		return "WAITING"
	case ZoneFinished:
		return "FINISHED"
	}
	return "?"
}

func (z Zone) color() lipgloss.Color {
	switch z {
	case ZoneLive:
		return theme.ColorLive
	case ZoneWaiting:
		return theme.ColorWaiting
	default:
		return theme.ColorFinished
	}
}

// Classify places a session into its board zone.
func Classify(s *client.Session, now time.Time) Zone {
	if s.Stage.Terminal() {
		return ZoneFinished
	}
	if s.Monitoring {
		return ZoneLive
	}
	if !s.LastActivityAt.IsZero() && now.Sub(s.LastActivityAt) < ActivityFreshness {
		return ZoneLive
	}
	return ZoneWaiting
}
