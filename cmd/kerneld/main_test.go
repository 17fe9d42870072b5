package main

import (
	"os/exec"
	"path/filepath"
	"testing"
)

func TestServeCommandFlags(t *testing.T) {
	cmd := newServeCmd()

	for _, name := range []string{"tui", "repo"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag on serve command", name)
		}
	}
}

func TestWorktreeCommandHasSubcommands(t *testing.T) {
	cmd := newWorktreeCmd()

	want := map[string]bool{
		"list":       false,
		"create":     false,
		"remove":     false,
		"repair":     false,
		"repair-all": false,
		"prune":      false,
	}
	for _, sub := range cmd.Commands() {
		name := sub.Name()
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected worktree subcommand %q", name)
		}
	}
}

func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")

	if err := exec.Command("sh", "-c", "echo seed > "+filepath.Join(dir, "seed.txt")).Run(); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	run("add", ".")
	run("commit", "-m", "seed")

	return dir
}

func TestWorktreeListCommandRunsAgainstRealRepo(t *testing.T) {
	repo := setupRepo(t)

	cmd := newWorktreeListCmd()
	cmd.SetArgs([]string{repo})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("worktree list: %v", err)
	}
}

func TestVersionCommandRuns(t *testing.T) {
	cmd := newVersionCmd()
	cmd.Run(cmd, nil)
}
