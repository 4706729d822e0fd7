package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/pkg/briefing"
	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/vault"
)

var briefingDays int

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Generate a period report under Briefings/",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v := vault.New(cfg.VaultPath)
		if err := v.EnsureLayout(); err != nil {
			return fmt.Errorf("prepare vault: %w", err)
		}
		g := briefing.New(v, journal.New(v.LogsDir()))
		since := time.Now().Add(-time.Duration(briefingDays) * 24 * time.Hour)
		h, err := g.Save(since)
		if err != nil {
			return err
		}
		fmt.Printf("briefing written to %s\n", v.Path(h.Folder, h.Name))
		return nil
	},
}

func init() {
	briefingCmd.Flags().IntVar(&briefingDays, "days", 7, "reporting period in days")
}
