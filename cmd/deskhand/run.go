package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/pkg/assistant"
	"github.com/deskhand/deskhand/pkg/config"
	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/log"
	"github.com/deskhand/deskhand/pkg/mail"
	"github.com/deskhand/deskhand/pkg/metrics"
	"github.com/deskhand/deskhand/pkg/orchestrator"
	"github.com/deskhand/deskhand/pkg/planner"
	"github.com/deskhand/deskhand/pkg/scheduler"
	"github.com/deskhand/deskhand/pkg/social"
	"github.com/deskhand/deskhand/pkg/sync"
	"github.com/deskhand/deskhand/pkg/vault"
	"github.com/deskhand/deskhand/pkg/watcher"
	"github.com/deskhand/deskhand/pkg/web"
	"github.com/deskhand/deskhand/pkg/zone"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline (daemon by default, --once for cron)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rt, err := buildRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.WebEnabled {
			srv := web.New(rt.vault, rt.journal, cfg.Zone(), cfg.WebPort)
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("dashboard server failed", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
			collector := metrics.NewCollector(rt.vault)
			collector.Start()
			defer collector.Stop()
		}

		if runOnce {
			return rt.scheduler.RunCycle(ctx)
		}
		return rt.scheduler.Run(ctx)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run one cycle and exit")
}

// runtime holds the wired pipeline for one process.
type runtime struct {
	vault     *vault.Vault
	journal   *journal.Journal
	assistant assistant.Assistant
	orch      *orchestrator.Orchestrator
	scheduler *scheduler.Scheduler
	seen      *watcher.SeenCache
}

func (r *runtime) Close() {
	if r.seen != nil {
		r.seen.Close()
	}
}

// socialPosters builds the sinks whose credentials are complete.
// Partially configured platforms are skipped so an approved plan never
// hits a poster that cannot pass validation.
func socialPosters(cfg config.Config) []social.Poster {
	var posters []social.Poster
	if cfg.TwitterToken != "" {
		posters = append(posters, &social.Twitter{Token: cfg.TwitterToken})
	}
	if cfg.FacebookToken != "" && cfg.FacebookPageID != "" {
		posters = append(posters, &social.Facebook{Token: cfg.FacebookToken, PageID: cfg.FacebookPageID})
	}
	if cfg.LinkedInToken != "" && cfg.LinkedInAuthorID != "" {
		posters = append(posters, &social.LinkedIn{Token: cfg.LinkedInToken, AuthorID: cfg.LinkedInAuthorID})
	}
	return posters
}

func buildRuntime(cfg config.Config) (*runtime, error) {
	z := cfg.Zone()
	caps := zone.For(z)
	for _, warning := range zone.CheckCredentials(z, cfg) {
		log.Warn(warning)
	}

	v := vault.New(cfg.VaultPath)
	if err := v.EnsureLayout(); err != nil {
		return nil, fmt.Errorf("prepare vault: %w", err)
	}
	j := journal.New(v.LogsDir())
	a := assistant.NewCLI(cfg.AssistantCommand, cfg.AssistantModel)
	seen := watcher.OpenSeenCache(filepath.Join(v.LogsDir(), ".deskhand-seen.db"))

	var mailer mail.Provider
	if cfg.GmailAccessToken != "" {
		mailer = mail.NewGmail(cfg.GmailAccessToken)
	}

	posters := socialPosters(cfg)

	p := planner.New(v, j, a, 0)
	orch := orchestrator.New(v, j, p, a, caps, orchestrator.Options{
		Mailer:    mailer,
		Social:    social.NewRegistry(posters...),
		Threshold: cfg.AutoApproveThreshold,
		SendLimit: cfg.DailySendLimit,
	})

	var watchers []watcher.Watcher
	if mailer != nil {
		watchers = append(watchers, watcher.NewMailWatcher(mailer, v, j, seen, cfg.GmailFilter, cfg.VIPList()))
	}
	if cfg.FileWatchEnabled {
		watchers = append(watchers, watcher.NewFileWatcher(v, j, a, seen, cfg.FileWatchDryRun))
	}

	var syncer *sync.Syncer
	if cfg.SyncRemote != "" {
		syncer = sync.New(v.Root, cfg.SyncRemote)
	}

	s := scheduler.New(v, j, orch, watchers, syncer, caps, cfg.Interval())
	return &runtime{
		vault:     v,
		journal:   j,
		assistant: a,
		orch:      orch,
		scheduler: s,
		seen:      seen,
	}, nil
}
