// Package adminserver is the Admin Server (§4.I): a loopback-bound HTTP
// server exposing health, metrics, a read-only state dump, and a
// server-push event feed, entirely separate from the capture/catalog
// data path.
package adminserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lcalzada-xor/wifitify/internal/domain"
	"github.com/lcalzada-xor/wifitify/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server binds the admin HTTP surface described in §4.I.
type Server struct {
	addr   string
	store  *storage.Store
	state  *domain.AppState
	log    *slog.Logger
	events *eventHub
	srv    *http.Server
}

// New builds a Server listening on addr (default loopback, per §6).
func New(addr string, store *storage.Store, state *domain.AppState, log *slog.Logger) *Server {
	s := &Server{addr: addr, store: store, state: state, log: log, events: newEventHub()}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/debug/state", s.handleDebugState).Methods(http.MethodGet)
	r.HandleFunc("/debug/events", s.handleDebugEvents)

	s.srv = &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(r, "adminserver"),
	}
	return s
}

// Publish pushes a line to every connected /debug/events subscriber.
// Non-blocking: a subscriber whose buffer is full misses this event rather
// than stalling the caller, same drop-on-backpressure policy as the
// capture worker.
func (s *Server) Publish(event string) {
	s.events.broadcast(event)
}

// Run blocks serving until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("adminserver: health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// stateDump is the read-only JSON shape returned by /debug/state.
type stateDump struct {
	WatchedChannels []int `json:"watched_channels"`
}

func (s *Server) handleDebugState(w http.ResponseWriter, r *http.Request) {
	dump := stateDump{WatchedChannels: s.state.WatchedChannels()}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dump)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleDebugEvents upgrades to a websocket and streams the events handed
// to Publish, server-push only; the client never sends anything
// meaningful back (§4.I).
func (s *Server) handleDebugEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("adminserver: websocket upgrade failed", "error", err)
		return
	}
	sub := s.events.subscribe()
	defer s.events.unsubscribe(sub)
	defer conn.Close()

	for event := range sub {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
			return
		}
	}
}
