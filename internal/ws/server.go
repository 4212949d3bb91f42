package ws

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/session"
)

// maxFrameBytes caps inbound websocket messages on the candidate stream.
// Webcam JPEGs at the resolutions pages send stay well under this.
const maxFrameBytes = 2 << 20

// Server owns the websocket endpoints: the observer fan-out at
// /ws/observe and the per-candidate monitoring stream at /ws/session/{id}.
type Server struct {
	cfg         *config.Config
	store       *session.Store
	broadcaster *Broadcaster
	manager     *proctor.Manager
	log         *zap.SugaredLogger

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	authToken      string

	// violationSink, when set, receives every recorded violation. It is
	// called synchronously from controller goroutines and must hand the
	// work off rather than block.
	violationSink func(sessionID string, v proctor.Violation)
}

func NewServer(cfg *config.Config, store *session.Store, broadcaster *Broadcaster, manager *proctor.Manager, log *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:            cfg,
		store:          store,
		broadcaster:    broadcaster,
		manager:        manager,
		log:            log,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		authToken:      cfg.Server.Token,
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetViolationSink configures the callback invoked for every recorded
// violation, typically to persist it. Must be called before any stream
// connects.
func (s *Server) SetViolationSink(sink func(sessionID string, v proctor.Violation)) {
	s.violationSink = sink
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/observe", s.handleObserve)
	mux.HandleFunc("/ws/session/", s.handleSessionRoutes)
}

// SecurityHeaders sets the standard hardening headers on every response.
// Wrap the root handler with it.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// handleObserve upgrades a dashboard connection and registers it with the
// broadcaster. Observers only receive; inbound messages are drained and
// dropped.
func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("observer upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		s.log.Warnw("observer rejected", "remote", r.RemoteAddr, "error", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		conn.Close()
		return
	}
	s.log.Infow("observer connected", "remote", r.RemoteAddr)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			s.log.Infow("observer disconnected", "remote", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handleSessionRoutes parses /ws/session/{id} and dispatches to the
// candidate stream handler.
func (s *Server) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/ws/session/")
	if path == "" || strings.Contains(path, "/") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	sessionID, err := url.PathUnescape(path)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	s.handleSessionStream(w, r, sessionID)
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Greenroom-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}
