// Package scheduler drives the periodic pipeline cycle: watchers, the
// orchestrator's three passes, the quarantine sweep, and the dashboard
// refresh. One cycle is single-threaded and runs to completion; the
// daemon loop sleeps between cycles and stops cleanly on signal.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/log"
	"github.com/deskhand/deskhand/pkg/metrics"
	"github.com/deskhand/deskhand/pkg/orchestrator"
	"github.com/deskhand/deskhand/pkg/retry"
	"github.com/deskhand/deskhand/pkg/sync"
	"github.com/deskhand/deskhand/pkg/vault"
	"github.com/deskhand/deskhand/pkg/watcher"
	"github.com/deskhand/deskhand/pkg/zone"
)

// Scheduler runs pipeline cycles on a cadence.
type Scheduler struct {
	vault    *vault.Vault
	journal  *journal.Journal
	orch     *orchestrator.Orchestrator
	watchers []watcher.Watcher
	syncer   *sync.Syncer // nil disables the transport
	caps     zone.Capabilities
	interval time.Duration
	stopCh   chan struct{}
	logger   zerolog.Logger
}

// New wires a scheduler.
func New(v *vault.Vault, j *journal.Journal, o *orchestrator.Orchestrator, watchers []watcher.Watcher, syncer *sync.Syncer, caps zone.Capabilities, interval time.Duration) *Scheduler {
	return &Scheduler{
		vault:    v,
		journal:  j,
		orch:     o,
		watchers: watchers,
		syncer:   syncer,
		caps:     caps,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   log.WithComponent("scheduler"),
	}
}

// RunCycle performs one full cycle. Per-artifact failures are counted
// and logged but never abort the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	start := time.Now()

	for _, w := range s.watchers {
		n, err := w.RunOnce(ctx)
		if err != nil {
			s.fault(fmt.Errorf("watcher %s: %w", w.Name(), err))
			continue
		}
		if n > 0 {
			s.logger.Info().Str("watcher", w.Name()).Int("created", n).Msg("new artifacts")
		}
	}

	pending, err := s.orch.GetPending()
	if err != nil {
		s.fault(fmt.Errorf("list pending: %w", err))
	}
	for _, h := range pending {
		if err := s.orch.ProcessPending(ctx, h); err != nil {
			s.fault(fmt.Errorf("process %s: %w", h, err))
			continue
		}
		metrics.ArtifactsProcessed.WithLabelValues("planned").Inc()
	}

	approved, err := s.orch.GetApproved()
	if err != nil {
		s.fault(fmt.Errorf("list approved: %w", err))
	}
	for _, h := range approved {
		if err := s.orch.ExecuteApproved(ctx, h); err != nil {
			s.fault(fmt.Errorf("execute %s: %w", h, err))
			continue
		}
		metrics.ArtifactsProcessed.WithLabelValues("executed").Inc()
	}

	rejected, err := s.orch.GetRejected()
	if err != nil {
		s.fault(fmt.Errorf("list rejected: %w", err))
	}
	for _, h := range rejected {
		if err := s.orch.ReviewRejected(ctx, h); err != nil {
			s.fault(fmt.Errorf("review %s: %w", h, err))
			continue
		}
		metrics.ArtifactsProcessed.WithLabelValues("reviewed").Inc()
	}

	if restored, err := retry.Sweep(s.vault, retry.DefaultMinAge); err != nil {
		s.fault(fmt.Errorf("quarantine sweep: %w", err))
	} else if len(restored) > 0 {
		s.logger.Info().Int("restored", len(restored)).Msg("quarantine sweep")
	}

	if s.caps.WriteDashboard {
		if n, err := s.vault.DrainUpdates(); err != nil {
			s.fault(fmt.Errorf("drain updates: %w", err))
		} else if n > 0 {
			s.logger.Info().Int("drained", n).Msg("updates drained into dashboard")
		}
		if err := RefreshDashboard(s.vault, s.journal); err != nil {
			s.fault(fmt.Errorf("refresh dashboard: %w", err))
		}
	}

	if s.syncer != nil {
		msg := fmt.Sprintf("deskhand cycle %s", time.Now().UTC().Format(time.RFC3339))
		if err := s.syncer.Sync(ctx, msg); err != nil {
			s.fault(fmt.Errorf("sync: %w", err))
		}
	}

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	s.logger.Info().Dur("took", time.Since(start)).Int("pending", len(pending)).Msg("cycle complete")
	return nil
}

// Run loops RunCycle every interval until the context is cancelled or
// Stop is called. The first cycle runs immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.RunCycle(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopping")
			return nil
		case <-s.stopCh:
			s.logger.Info().Msg("scheduler stopping")
			return nil
		}
	}
}

// Stop terminates the daemon loop between cycles.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) fault(err error) {
	metrics.CycleErrors.Inc()
	s.logger.Error().Err(err).Msg("cycle fault")
}
