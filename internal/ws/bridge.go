package ws

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/proctor"
)

// frameStaleAfter is how old the latest frame may be before the bridge
// reports it as unusable. A candidate page streams several frames per
// second; anything older means the stream stalled.
const frameStaleAfter = 10 * time.Second

// frameLogEvery spaces out per-frame debug logging.
const frameLogEvery = 30

var (
	errNoFrame    = errors.New("no frame received yet")
	errFrameStale = errors.New("frame stream stalled")
	errSourceDone = errors.New("stream source released")
)

// StreamSource adapts one candidate websocket connection into the frame
// and focus-event sources the monitoring controller consumes. The
// connection read loop feeds it through the Handle methods; the
// controller pulls from the other side.
//
// Camera state is a transition, not a latch: a denial fails Acquire, but
// a later ready report (the candidate granting permission before hitting
// retry) clears it so the next Acquire succeeds.
type StreamSource struct {
	log *zap.SugaredLogger

	mu      sync.Mutex
	frame   *proctor.Frame
	frameAt time.Time
	frames  int
	ready   bool
	denyErr error
	closed  bool
	stateCh chan struct{}

	subMu      sync.Mutex
	subscribed bool
	events     chan proctor.FocusEvent

	now func() time.Time
}

func NewStreamSource(log *zap.SugaredLogger) *StreamSource {
	return &StreamSource{
		log:     log,
		stateCh: make(chan struct{}),
		events:  make(chan proctor.FocusEvent, 8),
		now:     time.Now,
	}
}

// Acquire blocks until the candidate page reports the camera ready or
// delivers the first frame, whichever comes first. A camera denial fails
// the acquisition; a retry after the page re-reports ready succeeds.
func (s *StreamSource) Acquire(ctx context.Context) error {
	for {
		s.mu.Lock()
		switch {
		case s.closed:
			s.mu.Unlock()
			return errSourceDone
		case s.ready:
			s.mu.Unlock()
			return nil
		case s.denyErr != nil:
			err := s.denyErr
			s.mu.Unlock()
			return err
		}
		ch := s.stateCh
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Frame returns the most recent decoded frame. It fails when no frame has
// arrived yet or the stream has gone quiet.
func (s *StreamSource) Frame() (*proctor.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errSourceDone
	}
	if s.frame == nil {
		return nil, errNoFrame
	}
	if s.now().Sub(s.frameAt) > frameStaleAfter {
		return nil, errFrameStale
	}
	return s.frame, nil
}

// Release drops the buffered frame and stops accepting input. Idempotent,
// and safe after a failed Acquire.
func (s *StreamSource) Release() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.frame = nil
		s.bumpLocked()
	}
	s.mu.Unlock()
}

// Subscribe hands out the focus-event channel. The returned function
// stops further sends; the channel itself stays open so a resubscribe
// after a camera retry reuses it.
func (s *StreamSource) Subscribe() (<-chan proctor.FocusEvent, func()) {
	s.subMu.Lock()
	s.subscribed = true
	s.subMu.Unlock()

	return s.events, func() {
		s.subMu.Lock()
		s.subscribed = false
		s.subMu.Unlock()
	}
}

// HandleFrame ingests one JPEG frame from the candidate stream. The first
// frame doubles as a camera-ready signal.
func (s *StreamSource) HandleFrame(data []byte) error {
	// Valid JPEG starts with FF D8.
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return fmt.Errorf("not a JPEG frame (%d bytes)", len(data))
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	frame := proctor.FromImage(img)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSourceDone
	}
	s.frame = frame
	s.frameAt = s.now()
	s.frames++
	n := s.frames
	s.markReadyLocked()
	s.mu.Unlock()

	if n%frameLogEvery == 0 {
		s.log.Debugw("frames received", "count", n, "bytes", len(data),
			"width", frame.Width, "height", frame.Height)
	}
	return nil
}

// HandleFrameBase64 ingests a frame sent as base64 text, for clients that
// cannot send binary websocket messages.
func (s *StreamSource) HandleFrameBase64(b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("decode base64 frame: %w", err)
	}
	return s.HandleFrame(data)
}

// HandleFocus forwards a visibility or focus change to the controller.
// Unknown event names are dropped. The send never blocks the read loop;
// if the controller has fallen this far behind, losing a focus event is
// preferable to stalling frame ingestion.
func (s *StreamSource) HandleFocus(event string) {
	var kind proctor.FocusKind
	switch event {
	case FocusEventHidden:
		kind = proctor.FocusHidden
	case FocusEventBlur:
		kind = proctor.FocusBlur
	default:
		s.log.Debugw("ignoring unknown focus event", "event", event)
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if !s.subscribed {
		return
	}
	select {
	case s.events <- proctor.FocusEvent{Kind: kind, At: s.now()}:
	default:
		s.log.Debugw("focus event dropped, controller busy", "event", event)
	}
}

// HandleCamera records the candidate page's camera acquisition outcome.
// "ready" unblocks Acquire; anything else fails it with the reported
// message until a later ready clears the denial.
func (s *StreamSource) HandleCamera(status, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if status == CameraStatusReady {
		s.markReadyLocked()
		return
	}

	if message == "" {
		message = "camera access denied"
	}
	s.ready = false
	s.denyErr = errors.New(message)
	s.bumpLocked()
}

func (s *StreamSource) markReadyLocked() {
	if s.ready {
		return
	}
	s.ready = true
	s.denyErr = nil
	s.bumpLocked()
}

// bumpLocked wakes every Acquire waiter so it re-reads the state.
func (s *StreamSource) bumpLocked() {
	close(s.stateCh)
	s.stateCh = make(chan struct{})
}
