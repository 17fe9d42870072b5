// Package gateway is the HTTP+WebSocket control plane out-of-process clients
// (the `kerneld status` command, CI) use to drive the Coordinator and
// Lifecycle Manager over the network; the desktop app drives them
// in-process and only polls /health here. Adapted from
// internal/gateway/server.go's Server (gorilla/websocket upgrader, stdlib
// http.ServeMux, /health+/ready liveness endpoints) and router.go's
// MessageType-keyed Router, generalized from Pilot's task/webhook control
// plane to this kernel's coordinated-command control plane: the WS message
// payload IS an EnqueueRequest, and REST endpoints expose queue status and
// worktree listing directly instead of Linear/GitHub/Jira webhook ingestion.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hatch-sh/workspace-kernel/internal/coordinator"
	"github.com/hatch-sh/workspace-kernel/internal/logging"
	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

// Config holds the gateway's network binding.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// localhostPrefixes mirrors server.go's isLocalhost allowlist: the control
// plane is meant for same-machine clients, not arbitrary browser origins.
var localhostPrefixes = []string{
	"http://localhost",
	"http://127.0.0.1",
	"https://localhost",
	"https://127.0.0.1",
}

func isLocalhost(origin string) bool {
	for _, prefix := range localhostPrefixes {
		if origin == prefix || strings.HasPrefix(origin, prefix+":") {
			return true
		}
	}
	return false
}

// Server is the control-plane HTTP+WS server fronting a Coordinator and
// Lifecycle Manager.
type Server struct {
	config   *Config
	coord    *coordinator.Coordinator
	worktree *worktree.Manager

	sessions *SessionManager
	router   *Router
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	running bool
	server  *http.Server
}

// NewServer returns a Server. Nothing is listening until Start is called.
func NewServer(config *Config, coord *coordinator.Coordinator, wtManager *worktree.Manager) *Server {
	s := &Server{
		config:   config,
		coord:    coord,
		worktree: wtManager,
		sessions: NewSessionManager(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || isLocalhost(origin)
			},
		},
	}
	s.router = NewRouter(s)
	return s
}

// Start blocks, serving until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("gateway already running")
	}
	s.running = true
	s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/worktrees", s.handleWorktrees)
	mux.HandleFunc("/api/v1/commands", s.handleCommand)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logging.WithComponent("gateway").Info("gateway starting", slog.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server, waiting up to 30 seconds for active
// connections to complete.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.running = false
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WithComponent("gateway").Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	session := s.sessions.Create(conn)
	defer s.sessions.Remove(session.ID)

	logging.WithComponent("gateway").Info("new websocket session", slog.String("session_id", session.ID))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.WithComponent("gateway").Warn("websocket error", slog.Any("error", err))
			}
			break
		}
		s.router.HandleMessage(r.Context(), session, message)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	repoRoot := r.URL.Query().Get("repoRoot")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.coord.Status(repoRoot))
}

func (s *Server) handleWorktrees(w http.ResponseWriter, r *http.Request) {
	repoRoot := r.URL.Query().Get("repoRoot")
	if repoRoot == "" {
		http.Error(w, "repoRoot query parameter required", http.StatusBadRequest)
		return
	}

	infos, err := s.worktree.List(r.Context(), repoRoot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(infos)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req coordinator.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.coord.Enqueue(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(result)
}
