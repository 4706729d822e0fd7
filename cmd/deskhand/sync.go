package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/pkg/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Manage the vault's cross-zone git transport",
}

func newSyncer() (*sync.Syncer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return sync.New(cfg.VaultPath, cfg.SyncRemote), nil
}

var syncInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the vault repository",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSyncer()
		if err != nil {
			return err
		}
		return s.Init(cmd.Context())
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show uncommitted vault changes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSyncer()
		if err != nil {
			return err
		}
		out, err := s.Status(cmd.Context())
		if err != nil {
			return err
		}
		if out == "" {
			fmt.Println("clean")
			return nil
		}
		fmt.Println(out)
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Commit and push the vault snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSyncer()
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("deskhand snapshot %s", time.Now().UTC().Format(time.RFC3339))
		return s.Push(cmd.Context(), msg)
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Rebase onto the remote vault state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSyncer()
		if err != nil {
			return err
		}
		return s.Pull(cmd.Context())
	},
}

func init() {
	syncCmd.AddCommand(syncInitCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
}
