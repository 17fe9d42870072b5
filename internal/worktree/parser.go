package worktree

import "strings"

// Parse parses the verbatim output of `git worktree list --porcelain` into
// an ordered sequence of entries. Parse is pure: no I/O, no side effects.
//
// The porcelain output is a sequence of blank-line-separated records; each
// record begins with `worktree <path>` and then zero or more of `HEAD <sha>`,
// `branch <ref>`, `bare`, `detached`, `locked [<reason>]`, `prunable [<reason>]`.
func Parse(porcelain string) []Entry {
	var entries []Entry
	var current *Entry

	finalize := func() {
		if current != nil {
			entries = append(entries, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(porcelain, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			finalize()
			current = &Entry{Path: strings.TrimPrefix(line, "worktree ")}
		case current == nil:
			// Line outside any record; ignore.
			continue
		case strings.HasPrefix(line, "HEAD "):
			current.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		case line == "locked" || strings.HasPrefix(line, "locked "):
			current.IsLocked = true
			reason := strings.TrimSpace(strings.TrimPrefix(line, "locked"))
			current.LockReason = reason
		case line == "prunable" || strings.HasPrefix(line, "prunable "):
			current.IsPrunable = true
		case line == "bare", line == "detached":
			// Recognized but not modeled; ignore.
		default:
			// Unknown key: ignored per spec.
		}
	}

	finalize()
	return entries
}
