package session

// EventType classifies session lifecycle events.
type EventType int

const (
	EventNew      EventType = iota // attempt first created
	EventUpdate                    // state changed (stage, scores, proctoring counters)
	EventTerminal                  // attempt completed or abandoned
)

// Event carries a session state snapshot to observers.
type Event struct {
	Type        EventType
	State       *State // snapshot (safe to retain)
	ActiveCount int    // non-terminal sessions at event time
}
