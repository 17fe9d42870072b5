// Package maintenance runs the periodic worktree-repair sweep spec.md §4.4
// calls for beyond the mandatory startup pass: a cron-scheduled call to the
// Lifecycle Manager's RepairAllKnownRepos. Adapted from
// internal/briefs/scheduler.go's Scheduler — same cron.Cron-plus-mutex
// shape, generalized from "generate and deliver a brief" to "repair every
// known repo's worktrees" and with the store-backed catch-up logic dropped
// (there is no missed-brief analogue: a skipped sweep just means the next
// tick repairs whatever accumulated, which Repair handles idempotently).
package maintenance

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

// Sweeper periodically repairs every known repo's worktrees.
type Sweeper struct {
	manager        *worktree.Manager
	workspacesRoot string
	schedule       string
	cron           *cron.Cron
	logger         *slog.Logger

	mu      sync.Mutex
	running bool
	entryID cron.EntryID
}

// NewSweeper returns a Sweeper. schedule is a robfig/cron expression (e.g.
// "@every 10m"). logger defaults to slog.Default() when nil.
func NewSweeper(manager *worktree.Manager, workspacesRoot, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		manager:        manager,
		workspacesRoot: workspacesRoot,
		schedule:       schedule,
		cron:           cron.New(),
		logger:         logger,
	}
}

// Start registers the sweep job and starts the cron scheduler. Calling Start
// twice is a no-op.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()
	s.running = true

	s.logger.Info("maintenance sweep started",
		slog.String("schedule", s.schedule),
		slog.Time("next_run", s.cron.Entry(entryID).Next))

	return nil
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false
	s.logger.Info("maintenance sweep stopped")
}

// RunNow triggers an immediate sweep, outside of the cron schedule.
func (s *Sweeper) RunNow(ctx context.Context) error {
	return s.manager.RepairAllKnownRepos(ctx, s.workspacesRoot)
}

func (s *Sweeper) runSweep(ctx context.Context) {
	s.logger.Info("running maintenance sweep", slog.String("workspaces_root", s.workspacesRoot))
	if err := s.manager.RepairAllKnownRepos(ctx, s.workspacesRoot); err != nil {
		s.logger.Error("maintenance sweep failed", slog.Any("error", err))
		return
	}
	s.logger.Info("maintenance sweep completed")
}

// IsRunning reports whether the sweep scheduler is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
