// Package sync moves vault state between zones through a git
// repository. Commits are whole-store snapshots; conflicts propagate
// to the caller as errors rather than being resolved here.
package sync

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhand/deskhand/pkg/log"
)

// DefaultTimeout bounds each git invocation.
const DefaultTimeout = 60 * time.Second

// Runner executes one git command in a directory. Tests substitute a
// recording fake.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

type gitRunner struct{}

func (gitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		return text, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, text)
	}
	return text, nil
}

// Syncer drives the vault's git transport.
type Syncer struct {
	Root    string
	Remote  string
	Timeout time.Duration

	runner Runner
	logger zerolog.Logger
}

// New returns a Syncer for the vault root.
func New(root, remote string) *Syncer {
	return &Syncer{
		Root:    root,
		Remote:  remote,
		Timeout: DefaultTimeout,
		runner:  gitRunner{},
		logger:  log.WithComponent("sync"),
	}
}

func (s *Syncer) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	return s.runner.Run(ctx, s.Root, args...)
}

// IsRepo reports whether the vault is already under version control.
func (s *Syncer) IsRepo(ctx context.Context) bool {
	out, err := s.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init creates the repository and wires the remote when configured.
func (s *Syncer) Init(ctx context.Context) error {
	if s.IsRepo(ctx) {
		return nil
	}
	if _, err := s.run(ctx, "init"); err != nil {
		return err
	}
	if s.Remote != "" {
		if _, err := s.run(ctx, "remote", "add", "origin", s.Remote); err != nil {
			return err
		}
	}
	s.logger.Info().Str("root", s.Root).Msg("sync repository initialized")
	return nil
}

// Status returns the porcelain status output.
func (s *Syncer) Status(ctx context.Context) (string, error) {
	return s.run(ctx, "status", "--porcelain")
}

// Push stages everything, commits with msg, and pushes. A clean tree
// skips the commit and push, making repeated pushes idempotent.
func (s *Syncer) Push(ctx context.Context, msg string) error {
	status, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if status == "" {
		return nil
	}
	if _, err := s.run(ctx, "add", "-A"); err != nil {
		return err
	}
	if _, err := s.run(ctx, "commit", "-m", msg); err != nil {
		return err
	}
	if s.Remote == "" && !s.hasRemote(ctx) {
		return nil
	}
	if _, err := s.run(ctx, "push"); err != nil {
		return err
	}
	return nil
}

// Pull rebases onto the remote state.
func (s *Syncer) Pull(ctx context.Context) error {
	if s.Remote == "" && !s.hasRemote(ctx) {
		return nil
	}
	_, err := s.run(ctx, "pull", "--rebase")
	return err
}

// Sync is pull-then-push.
func (s *Syncer) Sync(ctx context.Context, msg string) error {
	if err := s.Pull(ctx); err != nil {
		return err
	}
	return s.Push(ctx, msg)
}

func (s *Syncer) hasRemote(ctx context.Context) bool {
	out, err := s.run(ctx, "remote")
	return err == nil && out != ""
}
