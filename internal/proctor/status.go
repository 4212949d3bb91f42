package proctor

import "encoding/json"

// StatusLevel is the ordinal severity shown next to a monitored session.
type StatusLevel int

const (
	StatusGood StatusLevel = iota
	StatusCaution
	StatusWarning
	StatusCritical
	StatusError
)

var statusNames = map[StatusLevel]string{
	StatusGood:     "good",
	StatusCaution:  "caution",
	StatusWarning:  "warning",
	StatusCritical: "critical",
	StatusError:    "error",
}

func (l StatusLevel) String() string {
	if s, ok := statusNames[l]; ok {
		return s
	}
	return "unknown"
}

func (l StatusLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// LevelFor derives the status level from camera state and the warning
// counter. It is a pure function recomputed on every read, so there is no
// stored level to fall out of sync. A camera error always wins; before the
// camera is ready there is nothing to grade.
func LevelFor(cameraError bool, cameraReady bool, warnings int) StatusLevel {
	if cameraError {
		return StatusError
	}
	if !cameraReady {
		return StatusGood
	}
	switch {
	case warnings >= 5:
		return StatusCritical
	case warnings >= 3:
		return StatusWarning
	case warnings >= 1:
		return StatusCaution
	default:
		return StatusGood
	}
}

// Label is the text shown on the monitoring badge for the camera state.
func Label(cameraError bool, cameraReady bool) string {
	switch {
	case cameraError:
		return "ERROR"
	case !cameraReady:
		return "INITIALIZING"
	default:
		return "MONITORING"
	}
}
