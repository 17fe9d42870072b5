package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/hatch-sh/workspace-kernel/internal/audit"
	"github.com/hatch-sh/workspace-kernel/internal/config"
	"github.com/hatch-sh/workspace-kernel/internal/coordinator"
	"github.com/hatch-sh/workspace-kernel/internal/credstore"
	"github.com/hatch-sh/workspace-kernel/internal/forge"
	"github.com/hatch-sh/workspace-kernel/internal/logging"
	"github.com/hatch-sh/workspace-kernel/internal/reposvc"
	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

// App holds the Wails-bound backend state: an in-process Coordinator and
// Lifecycle Manager, the same ones cmd/kerneld wires for the standalone
// daemon, bound directly into the desktop webview instead of fronted by the
// gateway. OnStartup/OnShutdown/Bind follow the teacher's
// desktop/app.go/main.go bootstrap.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	coord  *coordinator.Coordinator
	wt     *worktree.Manager
	audit  *audit.Log
	client *http.Client
}

// NewApp creates a new App instance. Nothing is wired until startup runs.
func NewApp() *App {
	return &App{
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

// startup is called by Wails once the webview is ready. Loads config, opens
// the audit log, and constructs the Coordinator over the full handler
// table, mirroring cmd/kerneld serve's wiring.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		cfg = config.DefaultConfig()
	}
	a.cfg = cfg

	_ = os.MkdirAll(cfg.Workspaces.Root, 0o755)

	auditLog, err := audit.Open(cfg.Workspaces.Root)
	if err == nil {
		a.audit = auditLog
	}

	a.wt = worktree.NewManager()

	creds := credstore.NewStaticCredentialStore("HATCH_GITHUB_TOKEN")
	token, _ := creds.Token(ctx)
	forgeClient := forge.NewClient(token)
	repos := reposvc.New(creds, forgeClient)

	handlers := coordinator.NewHandlerTable(coordinator.HandlerDeps{
		Worktree: a.wt,
		Repos:    repos,
		Forge:    forgeClient,
	})
	a.coord = coordinator.New(handlers)

	if a.audit != nil {
		a.coord.SetObserver(func(op coordinator.Operation, opErr error) {
			completedAt := op.EnqueuedAt
			if op.CompletedAt != nil {
				completedAt = *op.CompletedAt
			}
			if err := a.audit.Append(a.ctx, op.ID, op.RepoRoot, op.Command, string(op.Priority), op.Params, opErr, op.EnqueuedAt, completedAt); err != nil {
				logging.WithComponent("desktop").Warn("audit append failed", "error", err)
			}
		})
	}
}

// shutdown is called when the app exits.
func (a *App) shutdown(_ context.Context) {
	if a.audit != nil {
		_ = a.audit.Close()
	}
}

// WorktreeCreate creates an isolated worktree and workspace branch for
// workspaceID in repoRoot. Named per the §6 command catalog.
func (a *App) WorktreeCreate(repoRoot, workspaceID string) (*WorktreeCreateResult, error) {
	result, err := a.wt.Create(a.ctx, repoRoot, workspaceID)
	if err != nil {
		return nil, err
	}
	return &WorktreeCreateResult{
		BranchName:   result.BranchName,
		WorktreePath: result.WorktreePath,
		IsLocked:     result.IsLocked,
		LockReason:   result.LockReason,
		HealthStatus: string(result.HealthStatus),
	}, nil
}

// WorktreeRemove removes worktreePath and its workspace branch.
func (a *App) WorktreeRemove(repoRoot, worktreePath, branch string) error {
	return a.wt.Remove(a.ctx, repoRoot, worktreePath, branch)
}

// WorktreeRepair sweeps stale index locks and repairs worktree metadata for
// repoRoot.
func (a *App) WorktreeRepair(repoRoot string) error {
	return a.wt.Repair(a.ctx, repoRoot)
}

// WorktreeList returns every known worktree for repoRoot with its health
// classification.
func (a *App) WorktreeList(repoRoot string) ([]*WorktreeEntry, error) {
	infos, err := a.wt.List(a.ctx, repoRoot)
	if err != nil {
		return nil, err
	}

	entries := make([]*WorktreeEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, &WorktreeEntry{
			Path:         info.Path,
			Branch:       info.Branch,
			Head:         info.Head,
			IsLocked:     info.IsLocked,
			LockReason:   info.LockReason,
			IsPrunable:   info.IsPrunable,
			HealthStatus: string(info.HealthStatus),
		})
	}
	return entries, nil
}

// GitCoordinatorEnqueue submits a command for repoRoot and blocks until the
// coordinator resolves it, returning the handler's raw JSON result.
func (a *App) GitCoordinatorEnqueue(repoRoot, command string, params json.RawMessage, priority string) (json.RawMessage, error) {
	return a.coord.Enqueue(a.ctx, coordinator.EnqueueRequest{
		RepoRoot: repoRoot,
		Command:  command,
		Params:   params,
		Priority: coordinator.Priority(priority),
	})
}

// GitCoordinatorStatus returns a read-only snapshot of repoRoot's queue.
func (a *App) GitCoordinatorStatus(repoRoot string) coordinator.QueueSnapshot {
	return a.coord.Status(repoRoot)
}

// GitCoordinatorCancel cancels a pending or running operation by id.
func (a *App) GitCoordinatorCancel(operationID string) bool {
	return a.coord.Cancel(operationID)
}

// GetVersion returns the app version string (injected via LDFLAGS).
func (a *App) GetVersion() string {
	return version
}

// GetConfig returns a non-sensitive summary of the current config.
func (a *App) GetConfig() *ConfigSummary {
	if a.cfg == nil {
		return &ConfigSummary{GatewayPort: 9090}
	}

	summary := &ConfigSummary{GatewayPort: 9090}
	if a.cfg.Gateway != nil {
		summary.GatewayPort = a.cfg.Gateway.Port
	}
	if a.cfg.Workspaces != nil {
		summary.WorkspacesRoot = a.cfg.Workspaces.Root
	}
	if a.cfg.Maintenance != nil {
		summary.MaintenanceEnabled = a.cfg.Maintenance.Enabled
	}
	return summary
}

// OpenInBrowser opens the given URL in the system default browser.
func (a *App) OpenInBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start() //nolint:gosec
	default:
		return exec.Command("xdg-open", url).Start() //nolint:gosec
	}
}

// GetServerStatus checks whether a standalone kerneld gateway is also
// reachable on localhost, for the UI's connection indicator — the desktop
// app's own in-process Coordinator always answers regardless.
func (a *App) GetServerStatus() (*ServerStatus, error) {
	port := 9090
	if a.cfg != nil && a.cfg.Gateway != nil {
		port = a.cfg.Gateway.Port
	}

	url := fmt.Sprintf("http://localhost:%d/health", port)
	resp, err := a.client.Get(url) //nolint:noctx
	if err != nil {
		return &ServerStatus{Running: false}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	return &ServerStatus{Running: resp.StatusCode == http.StatusOK, Version: version}, nil
}
