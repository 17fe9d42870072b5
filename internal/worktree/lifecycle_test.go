package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// setupRemoteAndClone mirrors executor/worktree_test.go's setupTestRepo
// helper: a bare remote seeded with a README on main, cloned locally.
func setupRemoteAndClone(t *testing.T) (repoDir string) {
	t.Helper()
	base := t.TempDir()

	run := func(dir string, args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v in %s: %v: %s", args, dir, err, out)
		}
		return string(out)
	}

	bareDir := filepath.Join(base, "bare.git")
	run(base, "init", "--bare", bareDir)

	seedDir := filepath.Join(base, "seed")
	run(base, "clone", bareDir, seedDir)
	run(seedDir, "config", "user.email", "t@example.com")
	run(seedDir, "config", "user.name", "T")
	if err := os.WriteFile(filepath.Join(seedDir, "README.md"), []byte("hello\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run(seedDir, "add", "README.md")
	run(seedDir, "commit", "-m", "seed")
	run(seedDir, "push", "origin", "HEAD:main")

	cloneDir := filepath.Join(base, "clone")
	run(base, "clone", bareDir, cloneDir)
	run(cloneDir, "config", "user.email", "t@example.com")
	run(cloneDir, "config", "user.name", "T")

	return cloneDir
}

func TestCreateProvisionsLockedWorktree(t *testing.T) {
	repo := setupRemoteAndClone(t)
	mgr := NewManager()
	ctx := context.Background()

	result, err := mgr.Create(ctx, repo, "alpha")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if result.BranchName != "workspace/alpha" {
		t.Errorf("expected branch workspace/alpha, got %s", result.BranchName)
	}
	wantPath := filepath.Join(repo, "worktrees", "alpha")
	if result.WorktreePath != wantPath {
		t.Errorf("expected path %s, got %s", wantPath, result.WorktreePath)
	}
	if !result.IsLocked || result.LockReason != "active-agent" {
		t.Errorf("expected locked with active-agent reason, got %+v", result)
	}
	if result.HealthStatus != HealthLocked {
		t.Errorf("expected locked health, got %s", result.HealthStatus)
	}
	if info, err := os.Stat(wantPath); err != nil || !info.IsDir() {
		t.Errorf("expected worktree directory on disk: %v", err)
	}

	infos, err := mgr.List(ctx, repo)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, i := range infos {
		if i.Branch == "workspace/alpha" {
			found = true
		}
	}
	if !found {
		t.Error("expected worktree_list to contain workspace/alpha")
	}
}

func TestCreateRejectsDuplicateBranch(t *testing.T) {
	repo := setupRemoteAndClone(t)
	mgr := NewManager()
	ctx := context.Background()

	if _, err := mgr.Create(ctx, repo, "dup"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := mgr.Create(ctx, repo, "dup"); err == nil {
		t.Fatal("expected duplicate branch create to fail")
	}
}

func TestRemoveDeletesWorktreeAndBranch(t *testing.T) {
	repo := setupRemoteAndClone(t)
	mgr := NewManager()
	ctx := context.Background()

	result, err := mgr.Create(ctx, repo, "beta")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := mgr.Remove(ctx, repo, result.WorktreePath, result.BranchName); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := os.Stat(result.WorktreePath); !os.IsNotExist(err) {
		t.Errorf("expected worktree directory to be gone, got err=%v", err)
	}

	cmd := exec.Command("git", "-C", repo, "branch", "--list", "workspace/beta")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git branch --list: %v: %s", err, out)
	}
	if strings.TrimSpace(string(out)) != "" {
		t.Errorf("expected branch to be deleted, got %q", string(out))
	}
}

func TestRepairAllKnownReposSkipsNonRepoDirs(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "not-a-repo"), 0755); err != nil {
		t.Fatal(err)
	}

	mgr := NewManager()
	if err := mgr.RepairAllKnownRepos(context.Background(), root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRepairAllKnownReposMissingRootIsNotAnError(t *testing.T) {
	mgr := NewManager()
	err := mgr.RepairAllKnownRepos(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("expected nil error for missing root, got %v", err)
	}
}

func TestSweepStaleLocksRemovesIndexLockInPrimaryWorktree(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	if err := os.MkdirAll(gitDir, 0755); err != nil {
		t.Fatal(err)
	}
	lockPath := filepath.Join(gitDir, "index.lock")
	if err := os.WriteFile(lockPath, []byte{}, 0644); err != nil {
		t.Fatal(err)
	}

	if err := SweepStaleLocks(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("expected index.lock to be removed")
	}
}

func TestSweepStaleLocksRemovesIndexLockViaGitdirPointer(t *testing.T) {
	dir := t.TempDir()
	privateDir := filepath.Join(dir, "..", "private-git-dir")
	privateDir = filepath.Clean(privateDir)
	if err := os.MkdirAll(privateDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: "+privateDir+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	lockPath := filepath.Join(privateDir, "index.lock")
	if err := os.WriteFile(lockPath, []byte{}, 0644); err != nil {
		t.Fatal(err)
	}

	if err := SweepStaleLocks(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("expected index.lock to be removed via gitdir pointer")
	}
}
