package demo

import (
	"context"
	"errors"
	"sync"

	"github.com/greenroomhq/greenroom/internal/proctor"
)

var errReleased = errors.New("synthetic source released")

// SyntheticSource feeds the monitoring controller scripted frames and
// focus events instead of a live camera stream. The generator swaps the
// current frame between ticks; the controller samples whatever is set.
type SyntheticSource struct {
	mu     sync.Mutex
	frame  *proctor.Frame
	closed bool

	subMu      sync.Mutex
	subscribed bool
	events     chan proctor.FocusEvent
}

func NewSyntheticSource(initial *proctor.Frame) *SyntheticSource {
	return &SyntheticSource{
		frame:  initial,
		events: make(chan proctor.FocusEvent, 8),
	}
}

// Acquire is immediate: a synthetic camera is always ready.
func (s *SyntheticSource) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errReleased
	}
	return nil
}

func (s *SyntheticSource) Frame() (*proctor.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errReleased
	}
	if s.frame == nil {
		return nil, errors.New("no frame scripted")
	}
	return s.frame, nil
}

func (s *SyntheticSource) Release() {
	s.mu.Lock()
	s.closed = true
	s.frame = nil
	s.mu.Unlock()
}

func (s *SyntheticSource) Subscribe() (<-chan proctor.FocusEvent, func()) {
	s.subMu.Lock()
	s.subscribed = true
	s.subMu.Unlock()

	return s.events, func() {
		s.subMu.Lock()
		s.subscribed = false
		s.subMu.Unlock()
	}
}

// SetFrame replaces the frame the controller will sample next.
func (s *SyntheticSource) SetFrame(f *proctor.Frame) {
	s.mu.Lock()
	if !s.closed {
		s.frame = f
	}
	s.mu.Unlock()
}

// SendFocus emits a scripted visibility change. Non-blocking; a full
// channel drops the event just like the live bridge does.
func (s *SyntheticSource) SendFocus(ev proctor.FocusEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if !s.subscribed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}

// Frame fixtures. Colors are chosen against the default thresholds so
// each classifies deterministically.

func solidFrame(w, h int, r, g, b uint8) *proctor.Frame {
	f := &proctor.Frame{Width: w, Height: h, Pix: make([]uint8, w*h*4)}
	for i := 0; i < w*h; i++ {
		f.Pix[i*4] = r
		f.Pix[i*4+1] = g
		f.Pix[i*4+2] = b
		f.Pix[i*4+3] = 255
	}
	return f
}

// faceFrame classifies face-present: skin tone across the region.
func faceFrame() *proctor.Frame { return solidFrame(320, 240, 200, 120, 90) }

// emptyFrame classifies no-face: bright but no skin pixels.
func emptyFrame() *proctor.Frame { return solidFrame(320, 240, 120, 120, 120) }

// coveredFrame classifies camera-blocked: near black.
func coveredFrame() *proctor.Frame { return solidFrame(320, 240, 5, 5, 5) }
