// Package server hosts interactive graph views in the browser.
//
// Every websocket connection gets its own session: a view.View fed by a
// subscription to a shared source.Fanout. The browser forwards wheel,
// pointer and resize input; the session answers with full SVG renders
// after each layout and with view-box updates after each pan or zoom.
package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/layout"
	"github.com/matzehuels/graphview/pkg/source"
	"github.com/matzehuels/graphview/pkg/surface/svg"
	"github.com/matzehuels/graphview/pkg/view"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
	shutdownWait   = 10 * time.Second
)

// Server serves the browser client, one-shot SVG renders and the
// websocket interaction channel.
type Server struct {
	engine   layout.Engine
	tpl      svg.Templates[graph.Attrs, graph.Attrs]
	fanout   *source.Fanout[graph.Attrs, graph.Attrs]
	opts     view.Options
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a server. The fanout should be loaded and running before
// the first connection arrives.
func New(engine layout.Engine, fanout *source.Fanout[graph.Attrs, graph.Attrs], opts view.Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		engine: engine,
		tpl:    svg.DefaultTemplates(),
		fanout: fanout,
		opts:   opts,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*session),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/graph.svg", s.handleSVG)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down and closes
// all sessions.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeSessions()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// SessionCount returns the number of open websocket sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

// handleSVG renders the latest graph version once. Optional width and
// height query parameters set the container size.
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	opts := s.opts
	if v, ok := queryFloat(r, "width"); ok {
		opts.Width = v
	}
	if v, ok := queryFloat(r, "height"); ok {
		opts.Height = v
	}

	v, err := view.New(s.engine, s.tpl, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer v.Close()

	snap, err := s.fanout.Load(r.Context())
	if err != nil {
		s.logger.Error("load graph", "err", err)
		http.Error(w, "load graph", http.StatusInternalServerError)
		return
	}
	if err := v.Mount(r.Context(), snap.Nodes, snap.Edges); err != nil {
		s.logger.Error("layout", "err", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := v.WriteSVG(w); err != nil {
		s.logger.Debug("write svg", "err", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	sess, err := s.newSession(conn)
	if err != nil {
		s.logger.Error("create session", "err", err)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session failed"))
		_ = conn.Close()
		return
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.logger.Debug("session opened", "session", sess.id)

	// The request context ends when the handler returns, so the session
	// runs on its own.
	go func() {
		sess.run(context.Background())
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		s.fanout.Unsubscribe(sess.src)
		s.logger.Debug("session closed", "session", sess.id)
	}()
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

func queryFloat(r *http.Request, key string) (float64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func newSessionID() string { return uuid.NewString() }
