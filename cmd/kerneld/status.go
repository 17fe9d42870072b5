package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hatch-sh/workspace-kernel/internal/coordinator"
)

func newStatusCmd() *cobra.Command {
	var repoRoot string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a repository's command queue, against a running kerneld",
		RunE: func(cmd *cobra.Command, args []string) error {
			if repoRoot == "" {
				return fmt.Errorf("--repo is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			url := fmt.Sprintf("http://%s:%d/api/v1/status?repoRoot=%s", cfg.Gateway.Host, cfg.Gateway.Port, repoRoot)
			resp, err := http.Get(url)
			if err != nil {
				return fmt.Errorf("query gateway at %s: %w", url, err)
			}
			defer resp.Body.Close()

			var snap coordinator.QueueSnapshot
			if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("repo:      %s\n", snap.RepoRoot)
			fmt.Printf("pending:   %d\n", snap.PendingCount)
			fmt.Printf("completed: %d\n", snap.CompletedCount)
			fmt.Printf("failed:    %d\n", snap.FailedCount)
			if snap.RunningOperation != nil {
				fmt.Printf("running:   %s (%s)\n", snap.RunningOperation.Command, snap.RunningOperation.ID)
			} else {
				fmt.Println("running:   none")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoRoot, "repo", "", "repository root to query")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print raw JSON")
	return cmd
}
