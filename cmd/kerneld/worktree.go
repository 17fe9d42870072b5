package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

// newWorktreeCmd groups the Lifecycle Manager operations an operator can
// run directly against a repository, without a daemon in the loop.
func newWorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "Inspect and repair workspace worktrees",
	}

	cmd.AddCommand(
		newWorktreeListCmd(),
		newWorktreeCreateCmd(),
		newWorktreeRemoveCmd(),
		newWorktreeRepairCmd(),
		newWorktreeRepairAllCmd(),
		newWorktreePruneCmd(),
	)
	return cmd
}

func newWorktreeListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list <repo-root>",
		Short: "List worktrees for a repository and their health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := worktree.NewManager().List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if len(infos) == 0 {
				fmt.Println("no worktrees")
				return nil
			}
			for _, info := range infos {
				branch := info.Branch
				if branch == "" {
					branch = "(detached)"
				}
				fmt.Printf("%-40s %-10s %s\n", branch, info.HealthStatus, info.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print raw JSON")
	return cmd
}

func newWorktreeCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <repo-root> <workspace-id>",
		Short: "Create an isolated worktree and workspace branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := worktree.NewManager().Create(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("created %s on branch %s\n", result.WorktreePath, result.BranchName)
			return nil
		},
	}
}

func newWorktreeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <repo-root> <worktree-path> <branch>",
		Short: "Remove a worktree and its workspace branch",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return worktree.NewManager().Remove(cmd.Context(), args[0], args[1], args[2])
		},
	}
}

func newWorktreeRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair <repo-root>",
		Short: "Sweep stale locks and repair a single repository's worktrees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return worktree.NewManager().Repair(cmd.Context(), args[0])
		},
	}
}

func newWorktreeRepairAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair-all",
		Short: "Repair every repository under the configured workspaces root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			return worktree.NewManager().RepairAllKnownRepos(ctx, cfg.Workspaces.Root)
		},
	}
}

func newWorktreePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune <repo-root>",
		Short: "Remove worktree entries whose directories no longer exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return worktree.NewManager().Prune(cmd.Context(), args[0])
		},
	}
}
