package demo

import (
	"context"
	"testing"
	"time"

	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/logging"
	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/ws"
)

func TestSyntheticSourceLifecycle(t *testing.T) {
	src := NewSyntheticSource(faceFrame())

	if err := src.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	f, err := src.Frame()
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if f.Width != 320 || f.Height != 240 {
		t.Errorf("frame size = %dx%d, want 320x240", f.Width, f.Height)
	}

	src.SetFrame(coveredFrame())
	f, err = src.Frame()
	if err != nil {
		t.Fatalf("Frame after SetFrame: %v", err)
	}
	if f.Pix[0] != 5 {
		t.Errorf("frame not swapped, red = %d", f.Pix[0])
	}

	src.Release()
	src.Release() // idempotent
	if err := src.Acquire(context.Background()); err == nil {
		t.Error("Acquire succeeded after Release")
	}
	if _, err := src.Frame(); err == nil {
		t.Error("Frame succeeded after Release")
	}
	src.SetFrame(faceFrame()) // must not panic or resurrect
	if _, err := src.Frame(); err == nil {
		t.Error("SetFrame resurrected a released source")
	}
}

func TestSyntheticSourceFocus(t *testing.T) {
	src := NewSyntheticSource(nil)

	// Before subscribing, sends are dropped.
	src.SendFocus(proctor.FocusEvent{Kind: proctor.FocusHidden, At: time.Now()})

	ch, unsub := src.Subscribe()
	select {
	case <-ch:
		t.Fatal("received event sent before subscribe")
	default:
	}

	src.SendFocus(proctor.FocusEvent{Kind: proctor.FocusBlur, At: time.Now()})
	select {
	case ev := <-ch:
		if ev.Kind != proctor.FocusBlur {
			t.Errorf("Kind = %v, want FocusBlur", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("scripted focus event not delivered")
	}

	unsub()
	src.SendFocus(proctor.FocusEvent{Kind: proctor.FocusHidden, At: time.Now()})
	select {
	case <-ch:
		t.Fatal("received event after unsubscribe")
	default:
	}
}

// The fixtures only work if they land on the right side of the default
// thresholds.
func TestFrameFixturesClassify(t *testing.T) {
	th := proctor.DefaultThresholds()
	tests := []struct {
		name  string
		frame *proctor.Frame
		want  proctor.Verdict
	}{
		{"face", faceFrame(), proctor.VerdictFacePresent},
		{"empty room", emptyFrame(), proctor.VerdictNoFace},
		{"covered lens", coveredFrame(), proctor.VerdictCameraBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := proctor.Classify(tt.frame, th).Verdict; got != tt.want {
				t.Errorf("Classify(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

// Drives the tick loop by hand, without controllers, and follows the
// fastest candidate through every stage.
func TestGeneratorProgression(t *testing.T) {
	store := session.NewStore()
	b := ws.NewBroadcaster(logging.Nop(), store, 10*time.Millisecond, time.Hour, 0)
	defer b.Stop()
	mgr := proctor.NewManager(config.Default().Proctor, nil)

	g := NewGenerator(store, b, mgr, nil)

	var news, updates, terminals int
	g.SetSinks(Sinks{
		Event: func(ev session.Event) {
			switch ev.Type {
			case session.EventNew:
				news++
			case session.EventUpdate:
				updates++
			case session.EventTerminal:
				terminals++
			}
		},
	})

	g.seed(time.Now())
	if news != 5 {
		t.Fatalf("EventNew count = %d, want 5", news)
	}
	if store.ActiveCount() != 5 {
		t.Fatalf("ActiveCount = %d, want 5", store.ActiveCount())
	}

	stageAt := func(tick int, id string) session.Stage {
		t.Helper()
		st, ok := store.Get(id)
		if !ok {
			t.Fatalf("session %s missing at tick %d", id, tick)
		}
		return st.Stage
	}

	// demo-priya runs the clean pattern at pace 4: resume at 3, interview
	// at 11, answers at 15/19/23, aptitude at 27, report at 35, done at 39.
	for tick := 1; tick <= 40; tick++ {
		g.step(tick)

		switch tick {
		case 2:
			if got := stageAt(tick, "demo-priya"); got != session.StageCreated {
				t.Errorf("tick 2: stage = %v, want created", got)
			}
		case 3:
			if got := stageAt(tick, "demo-priya"); got != session.StageResume {
				t.Errorf("tick 3: stage = %v, want resume_review", got)
			}
		case 11:
			st, _ := store.Get("demo-priya")
			if st.Stage != session.StageInterview {
				t.Errorf("tick 11: stage = %v, want interview", st.Stage)
			}
			if st.ATSScore != 78.5 {
				t.Errorf("tick 11: ATSScore = %v, want 78.5", st.ATSScore)
			}
		case 23:
			st, _ := store.Get("demo-priya")
			if len(st.Answers) != 3 {
				t.Errorf("tick 23: answers = %d, want 3", len(st.Answers))
			}
			if st.Answers[0].Question == "" {
				t.Error("tick 23: answer question text empty")
			}
		case 27:
			st, _ := store.Get("demo-priya")
			if st.Stage != session.StageAptitude {
				t.Errorf("tick 27: stage = %v, want aptitude", st.Stage)
			}
			if st.InterviewScore != 83.3 {
				t.Errorf("tick 27: InterviewScore = %v", st.InterviewScore)
			}
		case 35:
			st, _ := store.Get("demo-priya")
			if st.Stage != session.StageReport {
				t.Errorf("tick 35: stage = %v, want report", st.Stage)
			}
			if st.AptitudeScore != 85 {
				t.Errorf("tick 35: AptitudeScore = %v", st.AptitudeScore)
			}
		case 39:
			st, _ := store.Get("demo-priya")
			if st.Stage != session.StageComplete {
				t.Errorf("tick 39: stage = %v, want complete", st.Stage)
			}
			if st.CompletedAt == nil {
				t.Error("tick 39: CompletedAt not set")
			}
			if st.Readiness <= 0 {
				t.Errorf("tick 39: Readiness = %v, want > 0", st.Readiness)
			}
		}
	}

	// demo-avery walks out at tick 24 and is abandoned at 32.
	st, _ := store.Get("demo-avery")
	if st.Stage != session.StageAbandoned {
		t.Errorf("avery stage = %v, want abandoned", st.Stage)
	}
	if len(st.Answers) != 2 {
		t.Errorf("avery answers = %d, want 2", len(st.Answers))
	}

	if terminals != 2 {
		t.Errorf("EventTerminal count = %d, want 2 (priya complete, avery abandoned)", terminals)
	}
	if updates == 0 {
		t.Error("no EventUpdate emitted across stage transitions")
	}

	// Finished sessions stop advancing.
	before, _ := store.Get("demo-priya")
	g.step(41)
	after, _ := store.Get("demo-priya")
	if !after.LastActivityAt.Equal(before.LastActivityAt) {
		t.Error("completed session advanced after finishing")
	}
}
