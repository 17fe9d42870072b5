package main

import (
	"github.com/hatch-sh/workspace-kernel/internal/coordinator"
	"github.com/hatch-sh/workspace-kernel/internal/statusview"
	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

// runTUI blocks, rendering the live status dashboard until the user quits
// it (q or ctrl+c).
func runTUI(coord *coordinator.Coordinator, wtManager *worktree.Manager, repoRoot string) error {
	return statusview.Run(coord, wtManager, repoRoot)
}
