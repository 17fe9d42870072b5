package worktree

import (
	"os"
	"path/filepath"
	"strings"
)

// Classify assigns a health status to a parsed entry using filesystem
// probes, in precedence order: orphaned, corrupted, locked, healthy.
func Classify(entry Entry) HealthStatus {
	info, err := os.Stat(entry.Path)
	if err != nil || !info.IsDir() || entry.IsPrunable {
		return HealthOrphaned
	}

	if !validMetadata(entry.Path) {
		return HealthCorrupted
	}

	if entry.IsLocked {
		return HealthLocked
	}

	return HealthHealthy
}

// validMetadata checks the shape of the worktree's .git entry: a directory
// is always valid (primary worktree); a file must contain a `gitdir:`
// pointer to a path that exists.
func validMetadata(path string) bool {
	gitPath := filepath.Join(path, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return false
	}

	if info.IsDir() {
		return true
	}

	raw, err := os.ReadFile(gitPath)
	if err != nil {
		return false
	}

	content := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(content, "gitdir:") {
		return false
	}

	gitdir := strings.TrimSpace(strings.TrimPrefix(content, "gitdir:"))
	if gitdir == "" {
		return false
	}
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Join(path, gitdir)
	}

	if _, err := os.Stat(gitdir); err != nil {
		return false
	}

	return true
}
