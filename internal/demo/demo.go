// Package demo drives the whole pipeline without a browser, camera,
// database, or broker: scripted candidates advance through the interview
// stages while synthetic camera sources exercise the monitoring
// controllers for real.
package demo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/interview"
	"github.com/greenroomhq/greenroom/internal/logging"
	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/ws"
)

// Sinks are optional fan-outs the server attaches so demo traffic reaches
// the same places real traffic does.
type Sinks struct {
	Violation func(sessionID string, v proctor.Violation)
	Event     func(ev session.Event)
}

type stageScores struct {
	ats       float64
	interview float64
	aptitude  float64
}

type scriptedAnswer struct {
	score int
	valid bool
}

type demoSession struct {
	state   *session.State
	src     *SyntheticSource
	ctrl    *proctor.Controller
	pattern string
	pace    int

	scores    stageScores
	answers   []scriptedAnswer
	answered  int
	completed bool
}

type Generator struct {
	store       *session.Store
	broadcaster *ws.Broadcaster
	manager     *proctor.Manager
	log         *zap.SugaredLogger
	sinks       Sinks
	sessions    []*demoSession
}

func NewGenerator(store *session.Store, broadcaster *ws.Broadcaster, manager *proctor.Manager, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = logging.Nop()
	}
	return &Generator{
		store:       store,
		broadcaster: broadcaster,
		manager:     manager,
		log:         log,
	}
}

// SetSinks attaches the fan-outs. Call before Start.
func (g *Generator) SetSinks(s Sinks) {
	g.sinks = s
}

// Start seeds the scripted candidates, attaches their monitoring
// controllers, and begins advancing them once per second.
func (g *Generator) Start(ctx context.Context) {
	g.seed(time.Now())

	for _, ds := range g.sessions {
		g.attach(ctx, ds)
	}

	g.log.Infow("demo candidates seeded", "count", len(g.sessions))
	go g.run(ctx)
}

func (g *Generator) seed(now time.Time) {
	g.sessions = []*demoSession{
		{
			state: &session.State{
				ID: "demo-priya", Candidate: "Priya Sharma", Email: "priya@example.com",
				Role: "Backend Engineer", StartedAt: now, LastActivityAt: now,
			},
			src: NewSyntheticSource(faceFrame()), pattern: "clean", pace: 4,
			scores:  stageScores{ats: 78.5, interview: 83.3, aptitude: 85},
			answers: []scriptedAnswer{{8, true}, {9, true}, {8, true}},
		},
		{
			state: &session.State{
				ID: "demo-marcus", Candidate: "Marcus Webb", Email: "marcus@example.com",
				Role: "Frontend Engineer", StartedAt: now, LastActivityAt: now,
			},
			src: NewSyntheticSource(faceFrame()), pattern: "distracted", pace: 5,
			scores:  stageScores{ats: 64, interview: 70, aptitude: 75},
			answers: []scriptedAnswer{{7, true}, {6, true}, {8, true}},
		},
		{
			state: &session.State{
				ID: "demo-elena", Candidate: "Elena Rodriguez", Email: "elena@example.com",
				Role: "Data Analyst", StartedAt: now, LastActivityAt: now,
			},
			src: NewSyntheticSource(faceFrame()), pattern: "wanderer", pace: 6,
			scores:  stageScores{ats: 71.5, interview: 63.3, aptitude: 66.7},
			answers: []scriptedAnswer{{6, true}, {7, true}, {6, true}},
		},
		{
			state: &session.State{
				ID: "demo-jun", Candidate: "Jun Park", Email: "jun@example.com",
				Role: "Site Reliability Engineer", StartedAt: now, LastActivityAt: now,
			},
			src: NewSyntheticSource(faceFrame()), pattern: "covered", pace: 5,
			scores:  stageScores{ats: 82, interview: 76.7, aptitude: 80},
			answers: []scriptedAnswer{{8, true}, {7, true}, {8, true}},
		},
		{
			state: &session.State{
				ID: "demo-avery", Candidate: "Avery Quinn", Email: "avery@example.com",
				Role: "Mobile Developer", StartedAt: now, LastActivityAt: now,
			},
			src: NewSyntheticSource(faceFrame()), pattern: "walks-out", pace: 4,
			scores:  stageScores{ats: 58.5},
			answers: []scriptedAnswer{{5, true}, {2, false}},
		},
	}

	for _, ds := range g.sessions {
		g.store.Update(ds.state)
		if g.sinks.Event != nil {
			g.sinks.Event(session.Event{
				Type:        session.EventNew,
				State:       ds.state.Clone(),
				ActiveCount: g.store.ActiveCount(),
			})
		}
	}
}

func (g *Generator) attach(ctx context.Context, ds *demoSession) {
	id := ds.state.ID
	hooks := proctor.Hooks{
		OnViolation: func(v proctor.Violation) {
			g.broadcaster.PublishViolation(id, v)
			if g.sinks.Violation != nil {
				g.sinks.Violation(id, v)
			}
		},
	}
	ctrl, err := g.manager.Attach(ctx, id, ds.src, ds.src, hooks)
	if err != nil {
		g.log.Warnw("demo attach failed", "session", id, "error", err)
	}
	ds.ctrl = ctrl
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			for _, ds := range g.sessions {
				g.manager.Detach(ds.state.ID)
			}
			return
		case <-ticker.C:
			tick++
			g.step(tick)
		}
	}
}

// step advances every live scripted session by one tick and broadcasts
// the batch, the same shape the candidate bridge produces.
func (g *Generator) step(tick int) {
	var updates []*session.State
	for _, ds := range g.sessions {
		if ds.completed {
			continue
		}
		prevStage := ds.state.Stage

		g.advance(ds, tick)
		g.syncMonitoring(ds)
		g.store.Update(ds.state)
		updates = append(updates, ds.state.Clone())

		if ds.state.Stage != prevStage && g.sinks.Event != nil {
			typ := session.EventUpdate
			if ds.state.IsTerminal() {
				typ = session.EventTerminal
			}
			g.sinks.Event(session.Event{
				Type:        typ,
				State:       ds.state.Clone(),
				ActiveCount: g.store.ActiveCount(),
			})
		}
		if ds.state.IsTerminal() {
			ds.completed = true
			g.manager.Detach(ds.state.ID)
			g.log.Infow("demo candidate finished",
				"session", ds.state.ID, "stage", ds.state.Stage.String())
		}
	}
	if len(updates) > 0 {
		g.broadcaster.QueueUpdate(updates)
	}
}

func (g *Generator) advance(ds *demoSession, tick int) {
	switch ds.pattern {
	case "clean":
		g.advanceClean(ds, tick)
	case "distracted":
		g.advanceDistracted(ds, tick)
	case "wanderer":
		g.advanceWanderer(ds, tick)
	case "covered":
		g.advanceCovered(ds, tick)
	case "walks-out":
		g.advanceWalksOut(ds, tick)
	}
}

// advanceClean keeps a steady face in frame and moves briskly through
// every stage.
func (g *Generator) advanceClean(ds *demoSession, tick int) {
	ds.src.SetFrame(faceFrame())
	g.progress(ds, tick, session.StageComplete)
}

// advanceDistracted keeps the camera honest but keeps leaving the tab.
func (g *Generator) advanceDistracted(ds *demoSession, tick int) {
	ds.src.SetFrame(faceFrame())
	switch {
	case tick%7 == 0:
		ds.src.SendFocus(proctor.FocusEvent{Kind: proctor.FocusHidden, At: time.Now()})
	case tick%11 == 0:
		ds.src.SendFocus(proctor.FocusEvent{Kind: proctor.FocusBlur, At: time.Now()})
	}
	g.progress(ds, tick, session.StageComplete)
}

// advanceWanderer drifts out of frame: brief glances away plus one long
// absence per cycle.
func (g *Generator) advanceWanderer(ds *demoSession, tick int) {
	phase := tick % 20
	switch {
	case phase >= 16:
		ds.src.SetFrame(emptyFrame())
	case phase >= 8 && phase < 10:
		ds.src.SetFrame(emptyFrame())
	default:
		ds.src.SetFrame(faceFrame())
	}
	g.progress(ds, tick, session.StageComplete)
}

// advanceCovered blocks the lens for a stretch out of every cycle.
func (g *Generator) advanceCovered(ds *demoSession, tick int) {
	if tick%25 >= 18 {
		ds.src.SetFrame(coveredFrame())
	} else {
		ds.src.SetFrame(faceFrame())
	}
	g.progress(ds, tick, session.StageComplete)
}

// advanceWalksOut gets partway through the interview, leaves the frame,
// and never comes back.
func (g *Generator) advanceWalksOut(ds *demoSession, tick int) {
	leaveAt := 6 * ds.pace
	switch {
	case tick >= leaveAt+8:
		now := time.Now()
		ds.state.Stage = session.StageAbandoned
		ds.state.CompletedAt = &now
	case tick >= leaveAt:
		ds.src.SetFrame(emptyFrame())
	default:
		ds.src.SetFrame(faceFrame())
		g.progress(ds, tick, session.StageInterview)
	}
}

// progress advances the scripted stage timeline up to the given stage.
// Milestones are spaced by the session's pace so the room does not move
// in lockstep. One transition per tick at most.
func (g *Generator) progress(ds *demoSession, tick int, last session.Stage) {
	p := ds.pace
	st := ds.state

	resumeAt := 3
	interviewAt := resumeAt + 2*p
	answersDone := interviewAt + p*len(ds.answers)
	aptitudeAt := answersDone + p
	reportAt := aptitudeAt + 2*p
	completeAt := reportAt + p

	if st.Stage == session.StageInterview && ds.answered < len(ds.answers) {
		if tick >= interviewAt+p*(ds.answered+1) {
			bank := interview.DefaultBank()
			text := ""
			if ds.answered < len(bank) {
				text = bank[ds.answered].Text
			}
			sa := ds.answers[ds.answered]
			st.Answers = append(st.Answers, session.AnswerState{
				Index:      ds.answered,
				Question:   text,
				Score:      sa.score,
				Valid:      sa.valid,
				AnsweredAt: time.Now(),
			})
			ds.answered++
		}
	}

	switch {
	case st.Stage == session.StageCreated && tick >= resumeAt && last >= session.StageResume:
		st.Stage = session.StageResume
	case st.Stage == session.StageResume && tick >= interviewAt && last >= session.StageInterview:
		st.ATSScore = ds.scores.ats
		st.Stage = session.StageInterview
	case st.Stage == session.StageInterview && ds.answered == len(ds.answers) &&
		tick >= aptitudeAt && last >= session.StageAptitude:
		st.InterviewScore = ds.scores.interview
		st.Stage = session.StageAptitude
	case st.Stage == session.StageAptitude && tick >= reportAt && last >= session.StageReport:
		st.AptitudeScore = ds.scores.aptitude
		st.Stage = session.StageReport
	case st.Stage == session.StageReport && tick >= completeAt && last >= session.StageComplete:
		now := time.Now()
		st.Stage = session.StageComplete
		st.CompletedAt = &now
	}
}

// syncMonitoring folds the controller's current snapshot into the session
// state, mirroring what the live candidate bridge does.
func (g *Generator) syncMonitoring(ds *demoSession) {
	st := ds.state
	if ds.ctrl != nil {
		snap := ds.ctrl.Snapshot()
		st.CameraReady = snap.CameraReady
		st.CameraError = snap.CameraError
		st.Monitoring = snap.CameraReady
		st.StatusLevel = snap.Level.String()
		st.WarningCount = snap.Warnings
		st.TabSwitchCount = snap.TabSwitches
		st.LookAwayCount = snap.LookAways
		st.OutOfFrame = snap.OutOfFrame
		st.CurrentWarning = snap.CurrentWarning
	}
	st.LastActivityAt = time.Now()
	st.UpdateReadiness()
}
