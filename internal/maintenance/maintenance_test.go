package maintenance

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

func setupWorkspacesRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	run := func(dir string, args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v in %s: %v: %s", args, dir, err, out)
		}
	}

	repoDir := filepath.Join(root, "repo")
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	run(repoDir, "init", "-b", "main")
	run(repoDir, "config", "user.email", "t@example.com")
	run(repoDir, "config", "user.name", "T")
	if err := os.WriteFile(filepath.Join(repoDir, "README.md"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run(repoDir, "add", "README.md")
	run(repoDir, "commit", "-m", "seed")

	return root
}

func TestRunNowRepairsKnownRepos(t *testing.T) {
	root := setupWorkspacesRoot(t)
	sweeper := NewSweeper(worktree.NewManager(), root, "@every 1h", nil)

	if err := sweeper.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
}

func TestStartAndStop(t *testing.T) {
	root := setupWorkspacesRoot(t)
	sweeper := NewSweeper(worktree.NewManager(), root, "@every 1h", nil)

	if err := sweeper.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sweeper.IsRunning() {
		t.Error("expected sweeper to be running after Start")
	}

	if err := sweeper.Start(context.Background()); err != nil {
		t.Fatalf("second Start should be a no-op, got: %v", err)
	}

	sweeper.Stop()
	if sweeper.IsRunning() {
		t.Error("expected sweeper to be stopped after Stop")
	}
}

func TestInvalidScheduleFailsStart(t *testing.T) {
	root := setupWorkspacesRoot(t)
	sweeper := NewSweeper(worktree.NewManager(), root, "not-a-cron-expr", nil)

	if err := sweeper.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron schedule")
	}
}
