// Command kerneld is the workspace isolation kernel's daemon and CLI:
// serve runs the Git Operation Coordinator, Worktree Lifecycle Manager, and
// the control plane that fronts them; the remaining subcommands give an
// operator a way to inspect and repair worktree state without a running
// daemon. Structured after the teacher's cmd/pilot/main.go rootCmd +
// AddCommand(newXxxCmd()...) scaffolding, trimmed from Pilot's ~25-command,
// multi-adapter surface down to the handful of operations this kernel
// actually exposes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kerneld",
		Short: "Workspace isolation kernel for concurrent AI-agent git worktrees",
		Long: `kerneld coordinates git operations across concurrently-running AI
agents and manages the lifecycle of their isolated worktrees: one priority
queue per repository, one worktree per workspace.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.hatch/config.yaml)")

	rootCmd.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newWorktreeCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show kerneld version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kerneld %s\n", version)
		},
	}
}
