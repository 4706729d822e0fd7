// Package assistant abstracts the external reasoning assistant as a
// text-in/text-out call. The production implementation shells out to
// the assistant CLI; tests inject canned responses through Func.
package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/deskhand/deskhand/pkg/retry"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 120 * time.Second

// Assistant produces a text completion for a prompt.
type Assistant interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Assistant interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// CLI invokes the assistant as a subprocess: <command> --print
// --model <model> <prompt>.
type CLI struct {
	Command string
	Model   string
	Timeout time.Duration
}

// NewCLI returns a CLI runner with the default timeout.
func NewCLI(command, model string) *CLI {
	return &CLI{Command: command, Model: model, Timeout: DefaultTimeout}
}

// Complete runs the subprocess and returns its trimmed stdout. A
// missing executable is a permanent fault; timeouts and non-zero exits
// are transient so the caller's retry policy applies.
func (c *CLI) Complete(ctx context.Context, prompt string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--print"}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}
	args = append(args, prompt)

	cmd := exec.CommandContext(ctx, c.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", retry.Permanent(fmt.Errorf("assistant %s not found: %w", c.Command, err))
		}
		if ctx.Err() == context.DeadlineExceeded {
			return "", retry.Transient(fmt.Errorf("assistant timed out after %s", timeout))
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", retry.Transient(fmt.Errorf("assistant failed: %s", msg))
	}
	return strings.TrimSpace(stdout.String()), nil
}
