package worktree

import "testing"

func TestParseBasicRecord(t *testing.T) {
	porcelain := "worktree /repo\n" +
		"HEAD abcdef0123456789\n" +
		"branch refs/heads/main\n" +
		"\n" +
		"worktree /repo/worktrees/alpha\n" +
		"HEAD 1234567890abcdef\n" +
		"branch refs/heads/workspace/alpha\n" +
		"locked active-agent\n"

	entries := Parse(porcelain)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if entries[0].Path != "/repo" || entries[0].Branch != "main" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}

	second := entries[1]
	if second.Path != "/repo/worktrees/alpha" {
		t.Errorf("unexpected path: %s", second.Path)
	}
	if second.Branch != "workspace/alpha" {
		t.Errorf("expected stripped refs/heads/ prefix, got %s", second.Branch)
	}
	if !second.IsLocked || second.LockReason != "active-agent" {
		t.Errorf("expected locked with reason active-agent, got %+v", second)
	}
}

func TestParseLockedWithoutReason(t *testing.T) {
	porcelain := "worktree /repo\nlocked\n"
	entries := Parse(porcelain)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].IsLocked {
		t.Fatal("expected locked")
	}
	if entries[0].LockReason != "" {
		t.Errorf("expected empty lock reason, got %q", entries[0].LockReason)
	}
}

func TestParsePrunableAndDetached(t *testing.T) {
	porcelain := "worktree /repo/worktrees/stale\ndetached\nprunable gitdir file points to non-existent location\n"
	entries := Parse(porcelain)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].IsPrunable {
		t.Error("expected prunable")
	}
	if entries[0].Branch != "" {
		t.Errorf("detached worktree should have no branch, got %q", entries[0].Branch)
	}
}

func TestParseIgnoresUnknownLines(t *testing.T) {
	porcelain := "worktree /repo\nsome-future-key value\nbranch refs/heads/main\n"
	entries := Parse(porcelain)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Branch != "main" {
		t.Errorf("unexpected branch: %s", entries[0].Branch)
	}
}

func TestParseEmpty(t *testing.T) {
	if entries := Parse(""); len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestParseMultipleRecordsRoundTripsCount(t *testing.T) {
	porcelain := "worktree /a\nbranch refs/heads/x\n\nworktree /b\nbranch refs/heads/y\n\nworktree /c\ndetached\n"
	entries := Parse(porcelain)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}
