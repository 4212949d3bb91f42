// Package app is the root bubbletea model: it owns the observer socket,
// the REST client, the session state, and the views composed into the
// dashboard.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/theme"
	"github.com/greenroomhq/greenroom/internal/tui/views/board"
	"github.com/greenroomhq/greenroom/internal/tui/views/debug"
	"github.com/greenroomhq/greenroom/internal/tui/views/detail"
	"github.com/greenroomhq/greenroom/internal/tui/views/feed"
	"github.com/greenroomhq/greenroom/internal/tui/views/reportview"
	"github.com/greenroomhq/greenroom/internal/tui/views/status"
	"github.com/greenroomhq/greenroom/internal/tui/views/statsview"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// feedHeight is the fixed height of the bottom pane (violations or log).
const feedHeight = 8

type violationsLoadedMsg struct {
	sessionID string
	candidate string
	recs      []client.ViolationRecord
	err       error
}

func fetchViolationsCmd(c *client.HTTPClient, sessionID, candidate string) tea.Cmd {
	return func() tea.Msg {
		recs, err := c.GetViolations(sessionID)
		return violationsLoadedMsg{sessionID: sessionID, candidate: candidate, recs: recs, err: err}
	}
}

// Model is the dashboard state machine.
type Model struct {
	ws     *client.WSClient
	http   *client.HTTPClient
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	sessions map[string]*client.Session
	proctor  map[string]*client.ProctorSnapshot

	board  board.Model
	status status.Model
	detail detail.Model
	report reportview.Model
	stats  statsview.Model
	feed   feed.Model
	log    debug.Model

	histOpen   bool
	histLoaded bool
	histID     string
	histFor    string
	histErr    error
	hist       feed.Model

	showLog      bool
	connected    bool
	meterTicking bool
}

// New builds the dashboard. ws and http may be nil in tests; wsURL is only
// used for display.
func New(ws *client.WSClient, httpc *client.HTTPClient, wsURL string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:       ws,
		http:     httpc,
		ctx:      ctx,
		cancel:   cancel,
		keys:     DefaultKeyMap(),
		sessions: make(map[string]*client.Session),
		proctor:  make(map[string]*client.ProctorSnapshot),
		board:    board.New(),
		status:   status.New(wsURL),
		detail:   detail.New(),
		report:   reportview.New(),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.status.StartSpinner()}
	if m.ws != nil {
		cmds = append(cmds, m.ws.Listen(m.ctx))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.board.SetWidth(msg.Width)
		m.report.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.status, cmd = m.status.Update(msg)
		return m, cmd

	case detail.TickMsg:
		m.meterTicking = false
		if m.detail.Open && m.detail.StepMeter() {
			m.meterTicking = true
			return m, detail.Tick()
		}
		return m, nil

	case client.ConnectedMsg:
		m.connected = true
		m.status.Connected = true
		m.status.Err = ""
		m.log.Add(debug.KindWS, "connected")
		return m, m.readCmd()

	case client.DisconnectedMsg:
		m.connected = false
		m.status.Connected = false
		if msg.Err != nil {
			m.log.Add(debug.KindWS, "disconnected: "+msg.Err.Error())
		} else {
			m.log.Add(debug.KindWS, "disconnected")
		}
		cmds := []tea.Cmd{m.status.StartSpinner()}
		if m.ws != nil {
			cmds = append(cmds, m.ws.Listen(m.ctx))
		}
		return m, tea.Batch(cmds...)

	case client.SeqGapMsg:
		m.log.Add(debug.KindWS, fmt.Sprintf("seq gap: expected %d, got %d", msg.Expected, msg.Got))
		return m.Update(msg.Inner)

	case client.SnapshotMsg:
		m.sessions = make(map[string]*client.Session, len(msg.Sessions))
		for _, s := range msg.Sessions {
			m.sessions[s.ID] = s
		}
		for id := range m.proctor {
			if _, ok := m.sessions[id]; !ok {
				delete(m.proctor, id)
			}
		}
		return m.afterStateChange()

	case client.DeltaMsg:
		for _, s := range msg.Updates {
			m.sessions[s.ID] = s
		}
		for _, id := range msg.Removed {
			delete(m.sessions, id)
			delete(m.proctor, id)
		}
		return m.afterStateChange()

	case client.ViolationMsg:
		m.feed.Add(feed.Entry{
			Time:      msg.Violation.Timestamp,
			Candidate: m.candidateOf(msg.SessionID),
			Kind:      msg.Violation.Kind,
			Message:   msg.Violation.Message,
		})
		m.log.Add(debug.KindVio, msg.Violation.Kind+" "+shortID(msg.SessionID))
		return m, m.readCmd()

	case client.ProctorStatusMsg:
		snap := msg.Snapshot
		m.proctor[msg.SessionID] = &snap
		var cmds []tea.Cmd
		if m.detail.Open && m.detail.SessionID() == msg.SessionID {
			m.detail.SetSnapshot(&snap)
			m.ensureMeter(&cmds)
		}
		cmds = append(cmds, m.readCmd())
		return m, tea.Batch(cmds...)

	case client.CameraStatusMsg:
		line := shortID(msg.SessionID) + " " + msg.Status
		if msg.Message != "" {
			line += ": " + msg.Message
		}
		m.log.Add(debug.KindCam, line)
		return m, m.readCmd()

	case client.ServerErrorMsg:
		m.status.Err = msg.Message
		m.log.Add(debug.KindErr, msg.Message)
		return m, m.readCmd()

	case reportview.LoadedMsg:
		m.report.Loaded(msg)
		if msg.Err != nil && !errors.Is(msg.Err, client.ErrNoReport) {
			m.log.Add(debug.KindErr, "report: "+msg.Err.Error())
		}
		return m, nil

	case statsview.LoadedMsg:
		m.stats.Loaded(msg)
		if msg.Err != nil {
			m.log.Add(debug.KindErr, "stats: "+msg.Err.Error())
		}
		return m, nil

	case violationsLoadedMsg:
		if msg.sessionID != m.histID {
			return m, nil
		}
		m.histLoaded = true
		m.histErr = msg.err
		m.hist = feed.Model{}
		for _, r := range msg.recs {
			m.hist.Add(feed.Entry{
				Time:      r.At,
				Candidate: msg.candidate,
				Kind:      r.Kind,
				Message:   r.Message,
			})
		}
		if msg.err != nil {
			m.log.Add(debug.KindErr, "violations: "+msg.err.Error())
		}
		return m, nil
	}
	return m, nil
}

// afterStateChange rebuilds the board and re-issues the read loop.
func (m Model) afterStateChange() (tea.Model, tea.Cmd) {
	m.refreshBoard()
	var cmds []tea.Cmd
	m.ensureMeter(&cmds)
	cmds = append(cmds, m.readCmd())
	return m, tea.Batch(cmds...)
}

// readCmd re-issues the socket read; nil when running without one (tests).
func (m Model) readCmd() tea.Cmd {
	if m.ws == nil {
		return nil
	}
	return m.ws.ReadLoop()
}

func (m *Model) refreshBoard() {
	now := time.Now()
	list := make([]*client.Session, 0, len(m.sessions))
	var live, waiting, done int
	for _, s := range m.sessions {
		list = append(list, s)
		switch board.Classify(s, now) {
		case board.ZoneLive:
			live++
		case board.ZoneWaiting:
			waiting++
		default:
			done++
		}
	}
	m.board.SetSessions(list)
	m.status.Live, m.status.Waiting, m.status.Done = live, waiting, done

	if m.detail.Open {
		id := m.detail.SessionID()
		if s, ok := m.sessions[id]; ok {
			m.detail.SetSession(s, m.proctor[id])
		} else {
			m.detail.Open = false
		}
	}
}

// ensureMeter starts a single animation tick chain when the warning meter
// has frames to run.
func (m *Model) ensureMeter(cmds *[]tea.Cmd) {
	if m.detail.Animating() && !m.meterTicking {
		m.meterTicking = true
		*cmds = append(*cmds, detail.Tick())
	}
}

func (m *Model) pointDetail(cmds *[]tea.Cmd) {
	if s := m.board.SelectedSession(); s != nil {
		m.detail.SetSession(s, m.proctor[s.ID])
		m.ensureMeter(cmds)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys

	// Open overlays take the keyboard first.
	switch {
	case m.report.Open:
		switch {
		case key.Matches(msg, k.Close), key.Matches(msg, k.Report):
			m.report.Open = false
		case key.Matches(msg, k.Up):
			m.report.ScrollUp()
		case key.Matches(msg, k.Down):
			m.report.ScrollDown()
		case msg.String() == "pgup":
			m.report.PageUp()
		case msg.String() == "pgdown":
			m.report.PageDown()
		case key.Matches(msg, k.Quit):
			return m.quit()
		}
		return m, nil

	case m.stats.Open:
		switch {
		case key.Matches(msg, k.Close), key.Matches(msg, k.Stats):
			m.stats.Open = false
		case key.Matches(msg, k.Quit):
			return m.quit()
		}
		return m, nil

	case m.histOpen:
		switch {
		case key.Matches(msg, k.Close), key.Matches(msg, k.Violations):
			m.histOpen = false
		case key.Matches(msg, k.Up):
			m.hist.ScrollUp()
		case key.Matches(msg, k.Down):
			m.hist.ScrollDown()
		case key.Matches(msg, k.Quit):
			return m.quit()
		}
		return m, nil

	case m.detail.Open:
		var cmds []tea.Cmd
		switch {
		case key.Matches(msg, k.Close), key.Matches(msg, k.Detail):
			m.detail.Open = false
		case key.Matches(msg, k.Up):
			m.board.MoveUp()
			m.pointDetail(&cmds)
		case key.Matches(msg, k.Down):
			m.board.MoveDown()
			m.pointDetail(&cmds)
		case key.Matches(msg, k.Report):
			if s := m.board.SelectedSession(); s != nil && m.http != nil {
				m.detail.Open = false
				m.report.OpenFor(s.ID, s.Candidate)
				m.report.SetSize(m.width, m.height)
				cmds = append(cmds, reportview.FetchCmd(m.http, s.ID))
			}
		case key.Matches(msg, k.Quit):
			return m.quit()
		}
		return m, tea.Batch(cmds...)
	}

	switch {
	case key.Matches(msg, k.Quit):
		return m.quit()
	case key.Matches(msg, k.Up):
		m.board.MoveUp()
	case key.Matches(msg, k.Down):
		m.board.MoveDown()
	case key.Matches(msg, k.FeedUp):
		if m.showLog {
			m.log.ScrollUp()
		} else {
			m.feed.ScrollUp()
		}
	case key.Matches(msg, k.FeedDown):
		if m.showLog {
			m.log.ScrollDown()
		} else {
			m.feed.ScrollDown()
		}
	case key.Matches(msg, k.CycleZone):
		m.board.CycleZone()
	case key.Matches(msg, k.ZoneLive):
		m.board.JumpToZone(board.ZoneLive)
	case key.Matches(msg, k.ZoneWait):
		m.board.JumpToZone(board.ZoneWaiting)
	case key.Matches(msg, k.ZoneDone):
		m.board.JumpToZone(board.ZoneFinished)
	case key.Matches(msg, k.Detail):
		if s := m.board.SelectedSession(); s != nil {
			m.detail.Open = true
			m.detail.SetSession(s, m.proctor[s.ID])
			var cmds []tea.Cmd
			m.ensureMeter(&cmds)
			return m, tea.Batch(cmds...)
		}
	case key.Matches(msg, k.Report):
		if s := m.board.SelectedSession(); s != nil && m.http != nil {
			m.report.OpenFor(s.ID, s.Candidate)
			m.report.SetSize(m.width, m.height)
			return m, reportview.FetchCmd(m.http, s.ID)
		}
	case key.Matches(msg, k.Violations):
		if s := m.board.SelectedSession(); s != nil && m.http != nil {
			m.histOpen = true
			m.histLoaded = false
			m.histErr = nil
			m.histID = s.ID
			m.histFor = displayName(s)
			m.hist = feed.Model{}
			return m, fetchViolationsCmd(m.http, s.ID, m.histFor)
		}
	case key.Matches(msg, k.Stats):
		if m.http != nil {
			m.stats.OpenAndLoad()
			return m, statsview.FetchCmd(m.http)
		}
	case key.Matches(msg, k.Log):
		m.showLog = !m.showLog
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	if m.ws != nil {
		m.ws.Close()
	}
	return m, tea.Quit
}

func (m Model) View() string {
	if m.width == 0 {
		return "starting…"
	}
	if !m.connected {
		return m.disconnectOverlay()
	}
	switch {
	case m.report.Open:
		return m.report.ViewOverlay()
	case m.stats.Open:
		return m.stats.ViewOverlay(m.width, m.height)
	case m.histOpen:
		return m.histOverlay()
	case m.detail.Open:
		return m.detail.ViewOverlay(m.width, m.height)
	}
	return m.dashboardView()
}

func (m Model) dashboardView() string {
	statusBar := m.status.View(m.width)

	paneTitle, pane := "VIOLATIONS", m.feed.View(m.width-2, feedHeight)
	if m.showLog {
		paneTitle, pane = "CLIENT LOG", m.log.View(m.width-2, feedHeight)
	}
	head := theme.StyleDimmed.Render(paneTitle + " ")
	rule := m.width - lipgloss.Width(head) - 2
	if rule < 0 {
		rule = 0
	}
	paneHeader := head + theme.StyleDimmed.Render(strings.Repeat("─", rule))

	boardH := m.height - lipgloss.Height(statusBar) - 1 - feedHeight - 1
	boardView := fitLines(m.board.View(), boardH)
	pane = fitLines(pane, feedHeight)

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar, boardView, paneHeader, pane, m.helpLine())
}

func (m Model) disconnectOverlay() string {
	body := theme.StyleError.Render("DISCONNECTED") + "\n\n" +
		m.status.SpinnerView() + " Reconnecting…\n" +
		theme.StyleDimmed.Render(m.status.URL)
	panel := theme.StyleBorder.Padding(1, 3).Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m Model) histOverlay() string {
	pw := m.width - 8
	if pw > 76 {
		pw = 76
	}
	if pw < 24 {
		pw = 24
	}
	ph := m.height - 6
	if ph > 20 {
		ph = 20
	}
	if ph < 6 {
		ph = 6
	}

	title := theme.StyleHeader.Render("VIOLATIONS") +
		theme.StyleDimmed.Render(" · "+m.histFor)
	var body string
	switch {
	case !m.histLoaded:
		body = theme.StyleDimmed.Render("loading…")
	case m.histErr != nil:
		body = theme.StyleError.Render(m.histErr.Error())
	default:
		body = m.hist.View(pw-4, ph-3)
	}
	inner := title + "\n" +
		theme.StyleDimmed.Render(strings.Repeat("─", pw-4)) + "\n" + body
	panel := theme.StyleBorder.Width(pw).Padding(0, 1).Render(inner)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m Model) helpLine() string {
	bindings := []key.Binding{
		m.keys.Up, m.keys.CycleZone, m.keys.Detail, m.keys.Report,
		m.keys.Violations, m.keys.Stats, m.keys.Log, m.keys.FeedUp, m.keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return theme.StyleHelp.Render(" " + strings.Join(parts, " · "))
}

// fitLines pads or crops a block to exactly h lines so the layout below it
// stays put.
func fitLines(s string, h int) string {
	if h < 1 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		over := len(lines) - h + 1
		lines = lines[:h-1]
		lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf("  … %d more", over)))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) candidateOf(id string) string {
	if s, ok := m.sessions[id]; ok {
		return displayName(s)
	}
	return shortID(id)
}

func displayName(s *client.Session) string {
	if s.Candidate == "" {
		return shortID(s.ID)
	}
	return s.Candidate
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
