package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/metrics"
	"github.com/deskhand/deskhand/pkg/vault"
	"github.com/deskhand/deskhand/pkg/web"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the HTTP dashboard without running the pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v := vault.New(cfg.VaultPath)
		if err := v.EnsureLayout(); err != nil {
			return fmt.Errorf("prepare vault: %w", err)
		}
		j := journal.New(v.LogsDir())

		collector := metrics.NewCollector(v)
		collector.Start()
		defer collector.Stop()

		srv := web.New(v, j, cfg.Zone(), cfg.WebPort)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			srv.Shutdown(cmd.Context())
		}()
		return srv.Start()
	},
}
