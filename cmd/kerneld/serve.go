package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hatch-sh/workspace-kernel/internal/audit"
	"github.com/hatch-sh/workspace-kernel/internal/config"
	"github.com/hatch-sh/workspace-kernel/internal/coordinator"
	"github.com/hatch-sh/workspace-kernel/internal/credstore"
	"github.com/hatch-sh/workspace-kernel/internal/forge"
	"github.com/hatch-sh/workspace-kernel/internal/gateway"
	"github.com/hatch-sh/workspace-kernel/internal/logging"
	"github.com/hatch-sh/workspace-kernel/internal/maintenance"
	"github.com/hatch-sh/workspace-kernel/internal/reposvc"
	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

func newServeCmd() *cobra.Command {
	var tuiMode bool
	var tuiRepo string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coordinator, lifecycle manager, and control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if tuiMode {
				logging.Suppress()
			} else if err := logging.Init(cfg.Logging); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			if err := os.MkdirAll(cfg.Workspaces.Root, 0o755); err != nil {
				return fmt.Errorf("create workspaces root: %w", err)
			}

			auditLog, err := audit.Open(cfg.Workspaces.Root)
			if err != nil {
				return fmt.Errorf("open audit log: %w", err)
			}
			defer auditLog.Close()

			wtManager := worktree.NewManager()

			creds := credstore.NewStaticCredentialStore("HATCH_GITHUB_TOKEN")
			token, _ := creds.Token(cmd.Context())
			forgeClient := forge.NewClient(token)
			repos := reposvc.New(creds, forgeClient)

			handlers := coordinator.NewHandlerTable(coordinator.HandlerDeps{
				Worktree: wtManager,
				Repos:    repos,
				Forge:    forgeClient,
			})
			coord := coordinator.New(handlers)
			coord.SetObserver(func(op coordinator.Operation, opErr error) {
				completedAt := op.EnqueuedAt
				if op.CompletedAt != nil {
					completedAt = *op.CompletedAt
				}
				if err := auditLog.Append(cmd.Context(), op.ID, op.RepoRoot, op.Command, string(op.Priority), op.Params, opErr, op.EnqueuedAt, completedAt); err != nil {
					logging.WithComponent("kerneld").Warn("audit append failed", "error", err)
				}
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				logging.WithComponent("kerneld").Info("shutdown signal received")
				cancel()
			}()

			if tuiMode && tuiRepo == "" {
				return fmt.Errorf("--repo is required with --tui")
			}

			return runDaemon(ctx, coord, wtManager, cfg, tuiMode, tuiRepo)
		},
	}

	cmd.Flags().BoolVar(&tuiMode, "tui", false, "show a live status dashboard alongside the gateway")
	cmd.Flags().StringVar(&tuiRepo, "repo", "", "repository to watch in --tui mode")
	return cmd
}

// runDaemon runs one repair pass over every known repo, starts the
// maintenance sweeper and gateway, then either blocks on ctx or, in --tui
// mode, runs the status dashboard in the foreground until the user quits it.
func runDaemon(ctx context.Context, coord *coordinator.Coordinator, wtManager *worktree.Manager, cfg *config.Config, tui bool, tuiRepo string) error {
	log := logging.WithComponent("kerneld")

	if err := wtManager.RepairAllKnownRepos(ctx, cfg.Workspaces.Root); err != nil {
		log.Warn("startup worktree repair failed", slog.Any("error", err))
	}

	var sweeper *maintenance.Sweeper
	if cfg.Maintenance.Enabled {
		sweeper = maintenance.NewSweeper(wtManager, cfg.Workspaces.Root, cfg.Maintenance.Schedule, logging.Logger())
		if err := sweeper.Start(ctx); err != nil {
			return fmt.Errorf("start maintenance sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	server := gateway.NewServer(&gateway.Config{Host: cfg.Gateway.Host, Port: cfg.Gateway.Port}, coord, wtManager)
	log.Info("kerneld serving", slog.String("addr", fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)))

	serverErrCh := make(chan error, 1)
	go func() { serverErrCh <- server.Start(ctx) }()

	if tui {
		if err := runTUI(coord, wtManager, tuiRepo); err != nil {
			return err
		}
		return server.Shutdown()
	}

	if err := <-serverErrCh; err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}
