package proctor

import (
	"context"
	"time"
)

// FrameSource provides frames from a candidate's camera. The controller
// acquires the source once at startup, then pulls one frame per sample
// tick for the lifetime of the session.
//
// Implementations do not need to be safe for concurrent use: the
// controller calls Acquire, Frame, and Release from a single goroutine.
type FrameSource interface {
	// Acquire opens the underlying device or stream. It blocks until the
	// source is ready to produce frames, the context is cancelled, or the
	// source determines it can never become ready (e.g. the candidate
	// denied camera permission). A non-nil error puts the controller in
	// the error phase; there is no automatic retry.
	Acquire(ctx context.Context) error

	// Frame returns the most recent frame. A nil frame with a non-nil
	// error means this sample produced nothing usable; the controller
	// skips the tick and tries again on the next one. Frame is only
	// called between a successful Acquire and Release.
	Frame() (*Frame, error)

	// Release closes the underlying device or stream. It must be safe to
	// call even if Acquire failed, and must be idempotent.
	Release()
}

// FocusKind classifies a focus event reported by the candidate's browser.
type FocusKind int

const (
	// FocusHidden means the proctored tab became hidden (the candidate
	// switched to another tab or minimized the window).
	FocusHidden FocusKind = iota

	// FocusBlur means the window lost input focus while the tab stayed
	// visible (the candidate clicked another application).
	FocusBlur
)

// FocusEvent is a visibility or focus change observed on the candidate's
// side and forwarded to the controller.
type FocusEvent struct {
	Kind FocusKind
	At   time.Time
}

// EventSource delivers focus events to the controller. Subscribe returns
// a channel the controller drains for as long as the session is being
// monitored, and an unsubscribe function the controller calls during
// teardown. After unsubscribe returns, the source must not send on the
// channel again.
type EventSource interface {
	Subscribe() (<-chan FocusEvent, func())
}
