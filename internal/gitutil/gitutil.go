// Package gitutil provides shared git helpers used by the worktree lifecycle
// manager and the command handler table: default-branch resolution,
// ahead/behind counting, porcelain status classification, and remote URL
// parsing. Translated from original_source/git.rs's get_default_branch,
// get_ahead_behind, git_status, and parse_repo_full_name.
package gitutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hatch-sh/workspace-kernel/internal/gitshim"
)

// FileStatus is one of the three porcelain status buckets.
type FileStatus string

const (
	StatusStaged    FileStatus = "staged"
	StatusModified  FileStatus = "modified"
	StatusUntracked FileStatus = "untracked"
)

// StatusEntry pairs a repo-relative path with its classification.
type StatusEntry struct {
	Path   string
	Status FileStatus
}

// DefaultBranch resolves the default branch of the origin remote. It tries
// `git symbolic-ref refs/remotes/origin/HEAD` first, then probes
// `origin/main` and `origin/master` via `rev-parse --verify`, and finally
// falls back to the literal "main". It never returns an error: resolution
// failures degrade to the fallback, matching git.rs's behavior.
func DefaultBranch(ctx context.Context, repoRoot string) string {
	if out, err := gitshim.RunIn(ctx, repoRoot, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		ref := strings.TrimSpace(out)
		if branch, ok := strings.CutPrefix(ref, "refs/remotes/origin/"); ok && branch != "" {
			return branch
		}
	}

	for _, candidate := range []string{"main", "master"} {
		if _, err := gitshim.RunIn(ctx, repoRoot, "rev-parse", "--verify", "origin/"+candidate); err == nil {
			return candidate
		}
	}

	return "main"
}

// AheadBehind returns how many commits branch is ahead of and behind
// origin/branch. Any failure (missing remote tracking branch, git error)
// yields (0, 0) rather than propagating an error.
func AheadBehind(ctx context.Context, repoRoot, branch string) (ahead, behind int) {
	out, err := gitshim.RunIn(ctx, repoRoot, "rev-list", "--left-right", "--count",
		fmt.Sprintf("%s...origin/%s", branch, branch))
	if err != nil {
		return 0, 0
	}

	parts := strings.Split(strings.TrimSpace(out), "\t")
	if len(parts) != 2 {
		return 0, 0
	}

	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return 0, 0
	}

	return a, b
}

// ClassifyStatus interprets the verbatim output of `git status --porcelain`
// into staged/modified/untracked buckets. Records that don't match any
// known two-character prefix are silently skipped.
func ClassifyStatus(porcelain string) []StatusEntry {
	var entries []StatusEntry

	for _, line := range strings.Split(porcelain, "\n") {
		if len(line) < 3 {
			continue
		}
		index := line[0]
		worktreeState := line[1]
		path := line[3:]

		switch {
		case index == '?' && worktreeState == '?':
			entries = append(entries, StatusEntry{Path: path, Status: StatusUntracked})
		case index == ' ' && (worktreeState == 'M' || worktreeState == 'D'):
			entries = append(entries, StatusEntry{Path: path, Status: StatusModified})
		case index == 'M' || index == 'A' || index == 'D' || index == 'R':
			entries = append(entries, StatusEntry{Path: path, Status: StatusStaged})
		}
	}

	return entries
}

// ParseOwnerRepo extracts "owner/repo" from an https:// or git@ remote URL,
// stripping a trailing ".git" suffix. Unlike git.rs's parse_repo_full_name,
// this is not restricted to github.com — any host in either form is
// accepted, since spec.md's helper is host-agnostic.
func ParseOwnerRepo(url string) (string, error) {
	url = strings.TrimSpace(url)

	if rest, ok := cutHTTPSHost(url); ok {
		return strings.TrimSuffix(rest, ".git"), nil
	}

	if rest, ok := cutSSHHost(url); ok {
		return strings.TrimSuffix(rest, ".git"), nil
	}

	return "", fmt.Errorf("could not parse repository URL: %s", url)
}

// cutHTTPSHost strips "https://<host>/" from a URL, returning the
// "owner/repo[.git]" remainder.
func cutHTTPSHost(url string) (string, bool) {
	const scheme = "https://"
	if !strings.HasPrefix(url, scheme) {
		return "", false
	}
	rest := strings.TrimPrefix(url, scheme)
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "", false
	}
	return rest[slash+1:], true
}

// cutSSHHost strips "git@<host>:" from a URL, returning the
// "owner/repo[.git]" remainder.
func cutSSHHost(url string) (string, bool) {
	const prefix = "git@"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(url, prefix)
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", false
	}
	return rest[colon+1:], true
}
