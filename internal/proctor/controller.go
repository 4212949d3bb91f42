package proctor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/logging"
)

// Phase is the lifecycle phase of a monitoring controller.
type Phase int

const (
	// PhaseUninitialized means Start has not been called (or Active was
	// false and the camera was never requested).
	PhaseUninitialized Phase = iota

	// PhaseAcquiring means camera acquisition is in flight.
	PhaseAcquiring

	// PhaseError means acquisition failed. Retry can attempt it again.
	PhaseError

	// PhaseMonitoring means the sampling loop is running.
	PhaseMonitoring

	// PhaseStopped means the controller has been torn down. Terminal.
	PhaseStopped
)

var phaseNames = map[Phase]string{
	PhaseUninitialized: "uninitialized",
	PhaseAcquiring:     "acquiring",
	PhaseError:         "error",
	PhaseMonitoring:    "monitoring",
	PhaseStopped:       "stopped",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return "unknown"
}

// MarshalJSON encodes the phase as its lowercase name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// FacePhase is the face-presence sub-state while monitoring. Absent is a
// one-sample transient: a second consecutive no-face sample escalates to
// OutOfFrame, and a single face-present sample returns to Present from
// either state.
type FacePhase int

const (
	FacePresent FacePhase = iota
	FaceAbsent
	FaceOutOfFrame
)

var facePhaseNames = map[FacePhase]string{
	FacePresent:    "present",
	FaceAbsent:     "absent",
	FaceOutOfFrame: "out_of_frame",
}

func (f FacePhase) String() string {
	if n, ok := facePhaseNames[f]; ok {
		return n
	}
	return "unknown"
}

// MarshalJSON encodes the face phase as its lowercase name.
func (f FacePhase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// Camera acquisition outcomes reported through the status callback.
const (
	CameraActive = "active"
	CameraFailed = "error"
)

// StatusEvent reports the outcome of camera acquisition to the status
// callback: "active" on success, "error" with a message on failure.
type StatusEvent struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Options configure a Controller. Build them with DefaultOptions and
// adjust fields rather than constructing the struct literally: the zero
// value disables monitoring entirely (Active false).
type Options struct {
	// Active controls whether Start acquires the camera at all. When
	// false, Start is a no-op and the controller stays uninitialized.
	Active bool

	// ShowWarnings controls whether violations and face absence set the
	// transient warning banner text. Violations are recorded and counted
	// either way.
	ShowWarnings bool

	// SampleInterval is the period of the frame-sampling loop.
	SampleInterval time.Duration

	// WarningClear is how long a violation banner stays up before it
	// clears itself. A new violation restarts the countdown.
	WarningClear time.Duration

	// WarningFade is the delay before the banner clears once the face
	// returns. Shorter than WarningClear so a brief absence does not
	// leave a stale banner, long enough to avoid flicker.
	WarningFade time.Duration

	// LongAbsence is the out-of-frame duration above which returning to
	// frame records a second violation summarizing the absence.
	LongAbsence time.Duration

	// AcquireTimeout bounds camera acquisition. Zero or negative means
	// wait as long as the Start context allows.
	AcquireTimeout time.Duration

	// Thresholds tune the frame classifier.
	Thresholds Thresholds

	// Clock drives all timers. Tests substitute a mock.
	Clock clock.Clock

	Log *zap.SugaredLogger

	// OnStatus is invoked once per acquisition attempt with the outcome.
	// OnViolation is invoked once per recorded violation. OnChange is
	// invoked whenever observable state may have changed; consumers
	// should re-read Snapshot. All three are called synchronously from
	// controller goroutines and must not call back into the controller.
	OnStatus    func(StatusEvent)
	OnViolation func(Violation)
	OnChange    func()
}

// DefaultOptions returns the standard production configuration.
func DefaultOptions() Options {
	return Options{
		Active:         true,
		ShowWarnings:   true,
		SampleInterval: 2 * time.Second,
		WarningClear:   3 * time.Second,
		WarningFade:    1500 * time.Millisecond,
		LongAbsence:    3 * time.Second,
		AcquireTimeout: 30 * time.Second,
		Thresholds:     DefaultThresholds(),
		Clock:          clock.New(),
		Log:            logging.Nop(),
	}
}

// outOfFrameTick is the cadence of the elapsed-seconds counter while the
// candidate is out of frame.
const outOfFrameTick = time.Second

// Controller owns one proctored session: camera lifecycle, the periodic
// sampling loop, focus-event handling, and violation accounting. Each
// interview attempt gets its own controller with exclusive ownership of
// its frame source.
//
// All exported methods are safe for concurrent use.
type Controller struct {
	opts   Options
	source FrameSource
	events EventSource

	clk clock.Clock
	log *zap.SugaredLogger

	mu                sync.Mutex
	phase             Phase
	face              FacePhase
	blocked           bool
	consecutiveNoFace int
	warnings          int
	tabSwitches       int
	lookAways         int
	oofSeconds        int
	currentWarning    string
	cameraErr         error
	last              Classification
	violations        []Violation

	// warnTimer is the pending banner clear, either the auto-clear after
	// a violation or the fade after the face returns. At most one is
	// outstanding.
	warnTimer *clock.Timer

	// durTicker drives the out-of-frame elapsed counter. Armed when the
	// state is entered, stopped when it is exited, in the same critical
	// section as the state change itself.
	durTicker *clock.Ticker
	durCh     <-chan time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a controller for one session. The source provides camera
// frames and events delivers focus changes; neither is touched until
// Start.
func New(source FrameSource, events EventSource, opts Options) *Controller {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultOptions().SampleInterval
	}
	if opts.WarningClear <= 0 {
		opts.WarningClear = DefaultOptions().WarningClear
	}
	if opts.WarningFade <= 0 {
		opts.WarningFade = DefaultOptions().WarningFade
	}
	if opts.LongAbsence <= 0 {
		opts.LongAbsence = DefaultOptions().LongAbsence
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	return &Controller{
		opts:   opts,
		source: source,
		events: events,
		clk:    opts.Clock,
		log:    opts.Log,
		face:   FacePresent,
	}
}

// Start acquires the camera and, on success, begins the sampling loop in
// a background goroutine bound to ctx. On acquisition failure the
// controller enters the error phase, the status callback receives the
// error, and the returned error describes it; Retry can attempt
// acquisition again. Start does nothing when Active is false or when the
// controller has already started or stopped.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.opts.Active || c.phase != PhaseUninitialized {
		c.mu.Unlock()
		return nil
	}
	c.phase = PhaseAcquiring
	c.mu.Unlock()
	c.notifyChange()

	acquireCtx := ctx
	cancelAcquire := func() {}
	if c.opts.AcquireTimeout > 0 {
		acquireCtx, cancelAcquire = context.WithTimeout(ctx, c.opts.AcquireTimeout)
	}
	err := c.source.Acquire(acquireCtx)
	cancelAcquire()
	if err != nil {
		c.mu.Lock()
		if c.phase != PhaseAcquiring {
			// Torn down while acquiring; stay stopped.
			c.mu.Unlock()
			return err
		}
		c.phase = PhaseError
		c.cameraErr = err
		c.mu.Unlock()
		c.log.Warnw("camera acquisition failed", "error", err)
		c.notifyStatus(StatusEvent{Status: CameraFailed, Message: err.Error()})
		c.notifyChange()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	evCh, unsub := c.subscribe()
	ticker := c.clk.Ticker(c.opts.SampleInterval)

	c.mu.Lock()
	if c.phase != PhaseAcquiring {
		// Torn down while acquiring; undo and release the camera again in
		// case acquisition completed after teardown's release.
		c.mu.Unlock()
		ticker.Stop()
		cancel()
		unsub()
		c.source.Release()
		return nil
	}
	c.phase = PhaseMonitoring
	c.face = FacePresent
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.log.Infow("monitoring started", "interval", c.opts.SampleInterval)
	c.notifyStatus(StatusEvent{Status: CameraActive})
	c.notifyChange()

	go c.run(runCtx, done, ticker, evCh, unsub)
	return nil
}

// Retry re-attempts camera acquisition after a failure. It is a no-op
// unless the controller is in the error phase.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseError {
		c.mu.Unlock()
		return nil
	}
	c.phase = PhaseUninitialized
	c.cameraErr = nil
	c.mu.Unlock()
	return c.Start(ctx)
}

// Stop tears the controller down: the sampling loop exits, all pending
// timers are cleared, and the camera is released. Safe to call more than
// once and safe to call on a controller that never started.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	c.teardown()
}

func (c *Controller) subscribe() (<-chan FocusEvent, func()) {
	if c.events == nil {
		return nil, func() {}
	}
	return c.events.Subscribe()
}

// run is the controller's event loop. Three timer-driven activities share
// it: the fixed-period sampler, the 1s out-of-frame duration counter
// (live only while out of frame), and focus events from the candidate's
// browser. All state mutation funnels through here or through the
// warn-timer callback, each taking the controller mutex.
func (c *Controller) run(ctx context.Context, done chan struct{}, ticker *clock.Ticker, evCh <-chan FocusEvent, unsub func()) {
	defer close(done)
	defer unsub()
	defer ticker.Stop()

	for {
		// The duration channel comes and goes with the out-of-frame
		// state; re-read it each turn. Nil when not out of frame.
		c.mu.Lock()
		durCh := c.durCh
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			c.teardown()
			return
		case <-ticker.C:
			c.sample()
		case <-durCh:
			c.tickOutOfFrame()
		case ev, ok := <-evCh:
			if !ok {
				evCh = nil
				continue
			}
			c.handleFocus(ev)
		}
	}
}

// sample grabs one frame, classifies it, and applies the result to the
// face-presence state machine. It reports whether this sample entered or
// exited the out-of-frame state. Extraction failures skip the sample; the
// loop keeps ticking.
func (c *Controller) sample() (entered, exited bool) {
	frame, err := c.source.Frame()
	if err != nil {
		c.log.Debugw("frame extraction failed, sample skipped", "error", err)
		return false, false
	}
	cl := Classify(frame, c.opts.Thresholds)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseMonitoring {
		return false, false
	}
	c.last = cl

	switch cl.Verdict {
	case VerdictCameraBlocked:
		// Edge-triggered: one violation per transition into blocked.
		// Blocked samples leave the no-face streak untouched.
		if !c.blocked {
			c.blocked = true
			c.recordViolationLocked(KindCameraBlocked, KindCameraBlocked.Message())
		}

	case VerdictNoFace:
		c.blocked = false
		c.consecutiveNoFace++
		c.lookAways++
		switch c.consecutiveNoFace {
		case 1:
			// Transient: warn locally, no violation yet.
			c.face = FaceAbsent
			c.setWarningLocked(KindNoFace.Message(), 0)
		case 2:
			c.face = FaceOutOfFrame
			c.oofSeconds = 0
			c.recordViolationLocked(KindOutOfFrame, KindOutOfFrame.Message())
			c.armDurationLocked()
			entered = true
		}

	default: // VerdictFacePresent
		c.blocked = false
		c.consecutiveNoFace = 0
		if c.face != FacePresent {
			exited = c.face == FaceOutOfFrame
			if exited && c.oofSeconds > int(c.opts.LongAbsence/time.Second) {
				msg := fmt.Sprintf("Out of frame for %d seconds", c.oofSeconds)
				c.recordViolationLocked(KindOutOfFrame, msg)
			}
			c.face = FacePresent
			c.oofSeconds = 0
			c.stopDurationLocked()
			c.scheduleWarningClearLocked(c.opts.WarningFade)
		}
	}

	c.notifyChange()
	return entered, exited
}

// armDurationLocked starts the elapsed-seconds ticker in the same
// critical section as the out-of-frame entry, so the loop picks it up on
// its next turn.
func (c *Controller) armDurationLocked() {
	if c.durTicker != nil {
		c.durTicker.Stop()
	}
	c.durTicker = c.clk.Ticker(outOfFrameTick)
	c.durCh = c.durTicker.C
}

func (c *Controller) stopDurationLocked() {
	if c.durTicker != nil {
		c.durTicker.Stop()
		c.durTicker = nil
		c.durCh = nil
	}
}

// tickOutOfFrame advances the elapsed-seconds counter. Guarded so a tick
// delivered after the session moved on leaves state alone.
func (c *Controller) tickOutOfFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseMonitoring || c.face != FaceOutOfFrame {
		return
	}
	c.oofSeconds++
	c.notifyChange()
}

// handleFocus records a violation for a focus change. Events arriving
// outside the monitoring phase are dropped.
func (c *Controller) handleFocus(ev FocusEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseMonitoring {
		return
	}
	switch ev.Kind {
	case FocusHidden:
		c.recordViolationLocked(KindTabSwitch, KindTabSwitch.Message())
	case FocusBlur:
		c.recordViolationLocked(KindWindowBlur, KindWindowBlur.Message())
	}
	c.notifyChange()
}

// recordViolationLocked appends to the violation log, bumps counters,
// surfaces the banner, and notifies the violation callback. The log is
// append-only; entries are never mutated or removed.
func (c *Controller) recordViolationLocked(kind ViolationKind, msg string) {
	v := Violation{Kind: kind, Timestamp: c.clk.Now(), Message: msg}
	c.violations = append(c.violations, v)
	c.warnings++
	if kind == KindTabSwitch {
		c.tabSwitches++
	}
	c.setWarningLocked(msg, c.opts.WarningClear)
	c.log.Infow("violation recorded",
		"kind", kind.String(),
		"message", msg,
		"warnings", c.warnings,
	)
	if c.opts.OnViolation != nil {
		c.opts.OnViolation(v)
	}
}

// setWarningLocked replaces the banner text and restarts its clear timer.
// clearAfter zero leaves the banner up until something else clears it.
func (c *Controller) setWarningLocked(msg string, clearAfter time.Duration) {
	if c.warnTimer != nil {
		c.warnTimer.Stop()
		c.warnTimer = nil
	}
	if !c.opts.ShowWarnings {
		return
	}
	c.currentWarning = msg
	if clearAfter > 0 {
		c.warnTimer = c.clk.AfterFunc(clearAfter, c.clearWarning)
	}
}

// scheduleWarningClearLocked arms the banner to clear after d without
// changing its text.
func (c *Controller) scheduleWarningClearLocked(d time.Duration) {
	if !c.opts.ShowWarnings {
		return
	}
	if c.warnTimer != nil {
		c.warnTimer.Stop()
	}
	c.warnTimer = c.clk.AfterFunc(d, c.clearWarning)
}

// clearWarning runs on the warn timer goroutine. It reads current state
// at fire time and bails if the session has moved on.
func (c *Controller) clearWarning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseMonitoring {
		return
	}
	c.currentWarning = ""
	c.warnTimer = nil
	c.notifyChange()
}

// teardown moves the controller to the stopped phase, clears the pending
// banner timer, and releases the camera. Idempotent; runs at most one
// release no matter how many callers race here.
func (c *Controller) teardown() {
	c.mu.Lock()
	if c.phase == PhaseStopped {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseStopped
	if c.warnTimer != nil {
		c.warnTimer.Stop()
		c.warnTimer = nil
	}
	c.stopDurationLocked()
	c.currentWarning = ""
	c.cancel = nil
	c.mu.Unlock()

	c.source.Release()
	c.log.Infow("monitoring stopped")
	c.notifyChange()
}

func (c *Controller) notifyStatus(ev StatusEvent) {
	if c.opts.OnStatus != nil {
		c.opts.OnStatus(ev)
	}
}

func (c *Controller) notifyChange() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

// Snapshot is a point-in-time copy of a controller's observable state.
type Snapshot struct {
	Phase             Phase       `json:"phase"`
	Face              FacePhase   `json:"face"`
	Level             StatusLevel `json:"level"`
	Label             string      `json:"label"`
	CameraReady       bool        `json:"cameraReady"`
	CameraError       string      `json:"cameraError,omitempty"`
	Warnings          int         `json:"warnings"`
	TabSwitches       int         `json:"tabSwitches"`
	LookAways         int         `json:"lookAways"`
	OutOfFrame        bool        `json:"outOfFrame"`
	OutOfFrameSeconds int         `json:"outOfFrameSeconds"`
	CurrentWarning    string      `json:"currentWarning,omitempty"`
	ViolationCount    int         `json:"violationCount"`
	Brightness        float64     `json:"brightness"`
	SkinRatio         float64     `json:"skinRatio"`
}

// Snapshot returns the controller's current observable state. The status
// level and label are derived on read, never stored.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	ready := c.phase == PhaseMonitoring
	cameraError := c.cameraErr != nil
	var errMsg string
	if cameraError {
		errMsg = c.cameraErr.Error()
	}
	return Snapshot{
		Phase:             c.phase,
		Face:              c.face,
		Level:             LevelFor(cameraError, ready, c.warnings),
		Label:             Label(cameraError, ready),
		CameraReady:       ready,
		CameraError:       errMsg,
		Warnings:          c.warnings,
		TabSwitches:       c.tabSwitches,
		LookAways:         c.lookAways,
		OutOfFrame:        c.face == FaceOutOfFrame,
		OutOfFrameSeconds: c.oofSeconds,
		CurrentWarning:    c.currentWarning,
		ViolationCount:    len(c.violations),
		Brightness:        c.last.Brightness,
		SkinRatio:         c.last.SkinRatio,
	}
}

// Violations returns a copy of the violation log in chronological order.
func (c *Controller) Violations() []Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Violation, len(c.violations))
	copy(out, c.violations)
	return out
}
