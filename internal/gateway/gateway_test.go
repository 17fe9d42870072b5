package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hatch-sh/workspace-kernel/internal/coordinator"
	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

func testServer() *Server {
	coord := coordinator.New(map[string]coordinator.HandlerFunc{})
	return NewServer(&Config{Host: "127.0.0.1", Port: 9090}, coord, worktree.NewManager())
}

func TestNewServer(t *testing.T) {
	server := testServer()
	if server.sessions == nil {
		t.Error("sessions manager not initialized")
	}
	if server.router == nil {
		t.Error("router not initialized")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("expected healthy, got %q", response["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status?repoRoot=/tmp/repo", nil)
	w := httptest.NewRecorder()
	server.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snap coordinator.QueueSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snap.RepoRoot != "/tmp/repo" {
		t.Errorf("expected repo root /tmp/repo, got %q", snap.RepoRoot)
	}
}

func TestWorktreesEndpointRequiresRepoRoot(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/worktrees", nil)
	w := httptest.NewRecorder()
	server.handleWorktrees(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing repoRoot, got %d", w.Code)
	}
}

func TestCommandEndpointRejectsNonPost(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil)
	w := httptest.NewRecorder()
	server.handleCommand(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestCommandEndpointRejectsInvalidBody(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	server.handleCommand(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid body, got %d", w.Code)
	}
}

func TestIsLocalhost(t *testing.T) {
	cases := map[string]bool{
		"http://localhost":        true,
		"http://localhost:3000":   true,
		"http://127.0.0.1:9090":   true,
		"http://localhost.evil.com": false,
		"https://example.com":     false,
	}
	for origin, want := range cases {
		if got := isLocalhost(origin); got != want {
			t.Errorf("isLocalhost(%q) = %v, want %v", origin, got, want)
		}
	}
}
