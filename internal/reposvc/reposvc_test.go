package reposvc

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// setupBareRemote mirrors internal/worktree's setupRemoteAndClone helper: a
// bare remote seeded with a README on main.
func setupBareRemote(t *testing.T) (bareDir string) {
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

	bareDir = filepath.Join(base, "widgets.git")
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

	return bareDir
}

func TestCloneRepo(t *testing.T) {
	bareDir := setupBareRemote(t)
	workspacesRoot := t.TempDir()

	svc := New(nil, nil)
	repo, err := svc.CloneRepo(context.Background(), workspacesRoot, bareDir, "widgets")
	if err != nil {
		t.Fatalf("CloneRepo: %v", err)
	}

	if repo.Name != "widgets" {
		t.Errorf("expected name widgets, got %s", repo.Name)
	}
	if repo.DefaultBranch != "main" {
		t.Errorf("expected default branch main, got %s", repo.DefaultBranch)
	}
	if _, err := os.Stat(filepath.Join(workspacesRoot, "widgets", "README.md")); err != nil {
		t.Errorf("expected README.md to exist in clone: %v", err)
	}
}

func TestCloneRepoRejectsExisting(t *testing.T) {
	bareDir := setupBareRemote(t)
	workspacesRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(workspacesRoot, "widgets"), 0o755); err != nil {
		t.Fatal(err)
	}

	svc := New(nil, nil)
	if _, err := svc.CloneRepo(context.Background(), workspacesRoot, bareDir, "widgets"); err == nil {
		t.Fatal("expected error for already-existing destination")
	}
}

func TestOpenLocalRepo(t *testing.T) {
	bareDir := setupBareRemote(t)
	workspacesRoot := t.TempDir()

	svc := New(nil, nil)
	cloned, err := svc.CloneRepo(context.Background(), workspacesRoot, bareDir, "widgets")
	if err != nil {
		t.Fatalf("CloneRepo: %v", err)
	}

	opened, err := svc.OpenLocalRepo(context.Background(), cloned.LocalPath)
	if err != nil {
		t.Fatalf("OpenLocalRepo: %v", err)
	}
	if opened.Name != "widgets" {
		t.Errorf("expected name widgets, got %s", opened.Name)
	}
	if opened.DefaultBranch != "main" {
		t.Errorf("expected default branch main, got %s", opened.DefaultBranch)
	}
}

func TestOpenLocalRepoRejectsNonGitDir(t *testing.T) {
	svc := New(nil, nil)
	if _, err := svc.OpenLocalRepo(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error opening a non-git directory")
	}
}
