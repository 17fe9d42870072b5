// Package gitshim runs the external git binary as a child process and
// translates its exit status into a structured result.
package gitshim

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Shim invokes git against a fixed repository root.
type Shim struct {
	repoRoot string
}

// New returns a Shim bound to repoRoot. repoRoot is passed verbatim to every
// invocation via `git -C <repoRoot>`; it is never canonicalized.
func New(repoRoot string) *Shim {
	return &Shim{repoRoot: repoRoot}
}

// RepoRoot returns the bound repository root.
func (s *Shim) RepoRoot() string {
	return s.repoRoot
}

// Run executes `git -C <repoRoot> <args...>` and returns stdout, decoded as
// lossy UTF-8 and not trimmed, on success. On a non-zero exit it fails with the trimmed stderr; on a
// process-launch failure it fails with a message that incorporates the OS
// error. There are no retries and no timeout at this layer — timeouts are
// the Coordinator's responsibility.
func (s *Shim) Run(ctx context.Context, args ...string) (string, error) {
	return RunIn(ctx, s.repoRoot, args...)
}

// RunIn executes `git -C <dir> <args...>` without requiring a Shim value.
// Used by helpers that need to run git against a directory other than the
// bound repo root (e.g. a freshly cloned destination).
func RunIn(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)

	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			_ = exitErr
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return "", fmt.Errorf("%s", msg)
		}
		return "", fmt.Errorf("failed to launch git: %w", err)
	}

	return decodeUTF8(stdout.Bytes()), nil
}

// decodeUTF8 lossily decodes non-UTF-8 byte sequences, matching git's own
// porcelain output guarantees for the common case and degrading gracefully
// for the rare one.
func decodeUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
