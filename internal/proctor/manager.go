package proctor

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/logging"
)

// Hooks are the per-session callbacks a caller attaches alongside a
// controller. They carry the same contract as the matching Options
// fields: synchronous, and they must not call back into the controller.
type Hooks struct {
	OnStatus    func(StatusEvent)
	OnViolation func(Violation)
	OnChange    func()
}

// OptionsFromConfig maps the proctor section of the configuration onto
// controller options, leaving Active and ShowWarnings at their defaults.
func OptionsFromConfig(cfg config.ProctorConfig) Options {
	opts := DefaultOptions()
	if cfg.SampleInterval > 0 {
		opts.SampleInterval = cfg.SampleInterval
	}
	if cfg.WarningClear > 0 {
		opts.WarningClear = cfg.WarningClear
	}
	if cfg.WarningFade > 0 {
		opts.WarningFade = cfg.WarningFade
	}
	if cfg.LongAbsence > 0 {
		opts.LongAbsence = cfg.LongAbsence
	}
	if cfg.AcquireTimeout > 0 {
		opts.AcquireTimeout = cfg.AcquireTimeout
	}
	opts.Thresholds = Thresholds{
		MinBrightness: cfg.MinBrightness,
		MinSkinRatio:  cfg.MinSkinRatio,
		Region: Region{
			Left:   cfg.Region.Left,
			Right:  cfg.Region.Right,
			Top:    cfg.Region.Top,
			Bottom: cfg.Region.Bottom,
		},
		MinRed:        cfg.Skin.MinRed,
		MinGreen:      cfg.Skin.MinGreen,
		MinBlue:       cfg.Skin.MinBlue,
		RedGreenDelta: cfg.Skin.RedGreenDelta,
		RedBlueDelta:  cfg.Skin.RedBlueDelta,
	}
	return opts
}

// Manager owns the monitoring controllers for all live sessions, one per
// session ID. Attaching a controller for a session that already has one
// stops the old controller first: each session holds exactly one camera.
type Manager struct {
	cfg config.ProctorConfig
	log *zap.SugaredLogger
	clk clock.Clock

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewManager creates an empty manager using cfg for every controller it
// attaches.
func NewManager(cfg config.ProctorConfig, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		cfg:         cfg,
		log:         log,
		clk:         clock.New(),
		controllers: make(map[string]*Controller),
	}
}

// SetClock substitutes the clock used by subsequently attached
// controllers. Tests only.
func (m *Manager) SetClock(clk clock.Clock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clk = clk
}

// Attach builds a controller for the session, starts it, and tracks it.
// Acquisition happens synchronously, so callers serving a network read
// loop should run Attach off that loop. A returned error means the camera
// could not be acquired; the controller is still tracked in its error
// phase so the session can retry.
func (m *Manager) Attach(ctx context.Context, sessionID string, source FrameSource, events EventSource, hooks Hooks) (*Controller, error) {
	opts := OptionsFromConfig(m.cfg)
	opts.Log = m.log.With("session", sessionID)
	opts.OnStatus = hooks.OnStatus
	opts.OnViolation = hooks.OnViolation
	opts.OnChange = hooks.OnChange

	m.mu.Lock()
	opts.Clock = m.clk
	prev := m.controllers[sessionID]
	ctrl := New(source, events, opts)
	m.controllers[sessionID] = ctrl
	m.mu.Unlock()

	if prev != nil {
		m.log.Infow("replacing monitoring controller", "session", sessionID)
		prev.Stop()
	}
	return ctrl, ctrl.Start(ctx)
}

// Get returns the controller attached for the session, if any.
func (m *Manager) Get(sessionID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.controllers[sessionID]
	return ctrl, ok
}

// Detach stops and forgets the session's controller. No-op when the
// session has none.
func (m *Manager) Detach(sessionID string) {
	m.mu.Lock()
	ctrl := m.controllers[sessionID]
	delete(m.controllers, sessionID)
	m.mu.Unlock()
	if ctrl != nil {
		ctrl.Stop()
	}
}

// DetachIf detaches only when ctrl is still the controller tracked for
// the session. A connection whose controller has been replaced by a newer
// attach uses this so its cleanup cannot tear down the replacement.
// Reports whether the detach happened.
func (m *Manager) DetachIf(sessionID string, ctrl *Controller) bool {
	m.mu.Lock()
	cur, ok := m.controllers[sessionID]
	if !ok || cur != ctrl {
		m.mu.Unlock()
		return false
	}
	delete(m.controllers, sessionID)
	m.mu.Unlock()
	ctrl.Stop()
	return true
}

// StopAll tears down every tracked controller. Used during shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ctrls := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		ctrls = append(ctrls, c)
	}
	m.controllers = make(map[string]*Controller)
	m.mu.Unlock()

	for _, c := range ctrls {
		c.Stop()
	}
}

// Count returns the number of tracked controllers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controllers)
}
