package worktree

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hatch-sh/workspace-kernel/internal/gitshim"
	"github.com/hatch-sh/workspace-kernel/internal/gitutil"
)

// Manager creates, locks, lists, repairs, and removes worktrees. All public
// operations acquire a single process-wide mutex for the duration of the
// call, because `git worktree` subcommands mutate the shared object store
// and index metadata on the primary repo — a deliberate choice, not an
// incidental one. Adapted from executor/worktree.go's CreateWorktreeWithBranch
// / cleanupWorktreeAndBranch / cleanupStaleWorktreeForBranch /
// CleanupOrphanedWorktrees, generalized from Pilot's pooled-temp-dir scheme
// to the fixed <repo>/worktrees/<workspace-id> layout this kernel uses.
type Manager struct {
	mu sync.Mutex
}

// NewManager returns a Manager with no internal state beyond its mutex.
func NewManager() *Manager {
	return &Manager{}
}

// Create provisions an isolated worktree for workspaceID under repoRoot.
func (m *Manager) Create(ctx context.Context, repoRoot, workspaceID string) (*CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	branch := "workspace/" + workspaceID

	entries, err := m.listLocked(ctx, repoRoot)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Branch == branch {
			return nil, fmt.Errorf("branch %s is already checked out in another worktree", branch)
		}
	}

	if _, err := gitshim.RunIn(ctx, repoRoot, "fetch", "origin"); err != nil {
		slog.Warn("best-effort fetch origin failed before worktree create",
			slog.String("repo_root", repoRoot), slog.Any("error", err))
	}

	defaultBranch := gitutil.DefaultBranch(ctx, repoRoot)
	baseRef := "origin/" + defaultBranch

	if _, err := gitshim.RunIn(ctx, repoRoot, "branch", branch, baseRef); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return nil, fmt.Errorf("create local branch %s: %w", branch, err)
		}
	}

	worktreePath := filepath.Join(repoRoot, "worktrees", workspaceID)
	if _, err := gitshim.RunIn(ctx, repoRoot, "worktree", "add", worktreePath, branch); err != nil {
		return nil, fmt.Errorf("create worktree: %w", err)
	}

	if _, err := gitshim.RunIn(ctx, repoRoot, "worktree", "lock", "--reason", LockReasonActiveAgent, worktreePath); err != nil {
		return nil, fmt.Errorf("lock worktree: %w", err)
	}

	return &CreateResult{
		BranchName:   branch,
		WorktreePath: worktreePath,
		IsLocked:     true,
		LockReason:   LockReasonActiveAgent,
		HealthStatus: HealthLocked,
	}, nil
}

// Remove tears down a worktree and, if branch is non-empty, its workspace
// branch. Structural mandatory steps propagate failures; unlock/prune/branch
// deletion are best-effort and never fail the outer call.
func (m *Manager) Remove(ctx context.Context, repoRoot, worktreePath, branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sweepStaleLocks(worktreePath)

	if _, err := gitshim.RunIn(ctx, repoRoot, "worktree", "unlock", worktreePath); err != nil {
		if !strings.Contains(err.Error(), "is not locked") {
			slog.Warn("worktree unlock failed before remove",
				slog.String("path", worktreePath), slog.Any("error", err))
		}
	}

	if _, err := gitshim.RunIn(ctx, repoRoot, "worktree", "remove", "--force", worktreePath); err != nil {
		return fmt.Errorf("remove worktree: %w", err)
	}

	if branch != "" {
		if _, err := gitshim.RunIn(ctx, repoRoot, "branch", "-D", branch); err != nil {
			slog.Warn("best-effort branch delete failed",
				slog.String("branch", branch), slog.Any("error", err))
		}
	}

	if _, err := gitshim.RunIn(ctx, repoRoot, "worktree", "prune"); err != nil {
		slog.Warn("best-effort worktree prune failed", slog.Any("error", err))
	}

	return nil
}

// Repair runs `git worktree repair` then `git worktree prune`, and sweeps
// stale index.lock files from every currently listed worktree.
func (m *Manager) Repair(ctx context.Context, repoRoot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := gitshim.RunIn(ctx, repoRoot, "worktree", "repair"); err != nil {
		return fmt.Errorf("repair worktrees: %w", err)
	}
	if _, err := gitshim.RunIn(ctx, repoRoot, "worktree", "prune"); err != nil {
		slog.Warn("best-effort prune failed during repair", slog.Any("error", err))
	}

	entries, err := m.listLocked(ctx, repoRoot)
	if err != nil {
		return err
	}
	for _, e := range entries {
		sweepStaleLocks(e.Path)
	}

	return nil
}

// List runs `git worktree list --porcelain`, parses it, and attaches a
// health classification to each entry.
func (m *Manager) List(ctx context.Context, repoRoot string) ([]LifecycleInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.listLocked(ctx, repoRoot)
	if err != nil {
		return nil, err
	}

	infos := make([]LifecycleInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, LifecycleInfo{Entry: e, HealthStatus: Classify(e)})
	}
	return infos, nil
}

// listLocked runs and parses `git worktree list --porcelain`. Callers must
// already hold m.mu.
func (m *Manager) listLocked(ctx context.Context, repoRoot string) ([]Entry, error) {
	out, err := gitshim.RunIn(ctx, repoRoot, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}
	return Parse(out), nil
}

// Prune runs `git worktree prune`, discarding administrative data for
// worktrees that have been manually deleted from disk. Exposed as its own
// method (rather than folded into Repair) because the Command Handler
// Table's git_prune_worktrees row dispatches it independently of a full
// repair.
func (m *Manager) Prune(ctx context.Context, repoRoot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := gitshim.RunIn(ctx, repoRoot, "worktree", "prune"); err != nil {
		return fmt.Errorf("prune worktrees: %w", err)
	}
	return nil
}

// RepairAllKnownRepos enumerates immediate subdirectories of workspacesRoot
// that contain a .git directory and repairs each. Intended to be called once
// at startup (spec.md §4.4) and, additively, on a periodic schedule by
// internal/maintenance.
func (m *Manager) RepairAllKnownRepos(ctx context.Context, workspacesRoot string) error {
	entries, err := os.ReadDir(workspacesRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read workspaces root: %w", err)
	}

	var firstErr error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		repoRoot := filepath.Join(workspacesRoot, entry.Name())
		if _, statErr := os.Stat(filepath.Join(repoRoot, ".git")); statErr != nil {
			continue
		}
		if err := m.Repair(ctx, repoRoot); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SweepStaleLocks removes any index.lock file under worktreePath's private
// git dir, handling both a primary worktree (.git directory) and a
// secondary worktree (.git file pointing at a gitdir).
func SweepStaleLocks(worktreePath string) error {
	return sweepStaleLocks(worktreePath)
}

func sweepStaleLocks(worktreePath string) error {
	gitPath := filepath.Join(worktreePath, ".git")

	info, err := os.Stat(gitPath)
	if err != nil {
		return nil // nothing to sweep
	}

	privateGitDir := gitPath
	if !info.IsDir() {
		raw, err := os.ReadFile(gitPath)
		if err != nil {
			return nil
		}
		content := strings.TrimSpace(string(raw))
		gitdir := strings.TrimSpace(strings.TrimPrefix(content, "gitdir:"))
		if gitdir == "" {
			return nil
		}
		if !filepath.IsAbs(gitdir) {
			gitdir = filepath.Join(worktreePath, gitdir)
		}
		privateGitDir = gitdir
	}

	lockPath := filepath.Join(privateGitDir, "index.lock")
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale index.lock: %w", err)
	}
	return nil
}
