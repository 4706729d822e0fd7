// Package loop runs a multi-step assistant task to completion: it
// re-prompts with the previous output each iteration until the
// assistant emits the promise tag, a watched file reaches Done, or the
// iteration budget runs out.
package loop

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deskhand/deskhand/pkg/assistant"
	"github.com/deskhand/deskhand/pkg/log"
	"github.com/deskhand/deskhand/pkg/vault"
)

// PromiseTag is the literal the assistant emits to declare completion.
const PromiseTag = "<promise>TASK_COMPLETE</promise>"

// DefaultTimeout bounds each assistant call in iterative mode.
const DefaultTimeout = 300 * time.Second

// Strategy selects the completion detector.
type Strategy string

const (
	// StrategyPromiseTag completes when the output contains PromiseTag.
	StrategyPromiseTag Strategy = "promise_tag"

	// StrategyFileMovement completes when the task file shows up in
	// Done/.
	StrategyFileMovement Strategy = "file_movement"
)

// stateFile is the resumable snapshot under Logs/.
const stateFile = "loop-state.json"

// Driver loops one task until done.
type Driver struct {
	vault         *vault.Vault
	assistant     assistant.Assistant
	MaxIterations int
	Strategy      Strategy
	TaskFile      string // required for file_movement
	Timeout       time.Duration
	logger        zerolog.Logger
}

// New wires a driver with the promise-tag strategy and default limits.
func New(v *vault.Vault, a assistant.Assistant) *Driver {
	return &Driver{
		vault:         v,
		assistant:     a,
		MaxIterations: 5,
		Strategy:      StrategyPromiseTag,
		Timeout:       DefaultTimeout,
		logger:        log.WithComponent("loop"),
	}
}

// Result summarizes one loop run.
type Result struct {
	Completed  bool     `json:"completed"`
	Iterations int      `json:"iterations"`
	Strategy   Strategy `json:"strategy"`
	Output     string   `json:"output"`
}

type state struct {
	TaskPrompt     string `json:"task_prompt"`
	Iteration      int    `json:"iteration"`
	PreviousOutput string `json:"previous_output"`
	UpdatedAt      string `json:"updated_at"`
}

type iterationLog struct {
	I             int    `json:"i"`
	Timestamp     string `json:"timestamp"`
	PromptLength  int    `json:"prompt_length"`
	OutputLength  int    `json:"output_length"`
	OutputPreview string `json:"output_preview"`
}

// Run executes the loop for taskPrompt.
func (d *Driver) Run(ctx context.Context, taskPrompt string) (Result, error) {
	if d.Strategy == StrategyFileMovement && d.TaskFile == "" {
		return Result{}, fmt.Errorf("file_movement strategy requires a task file")
	}
	runID := uuid.New().String()[:8]
	result := Result{Strategy: d.Strategy}
	var entries []iterationLog
	previous := ""

	for i := 1; i <= d.MaxIterations; i++ {
		prompt := d.buildPrompt(taskPrompt, previous, i)
		ictx, cancel := context.WithTimeout(ctx, d.Timeout)
		output, err := d.assistant.Complete(ictx, prompt)
		cancel()
		if err != nil {
			d.writeRunLog(runID, entries)
			return result, fmt.Errorf("iteration %d: %w", i, err)
		}

		result.Iterations = i
		result.Output = output
		previous = output
		entries = append(entries, iterationLog{
			I:             i,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			PromptLength:  len(prompt),
			OutputLength:  len(output),
			OutputPreview: preview(output),
		})
		d.saveState(state{
			TaskPrompt:     taskPrompt,
			Iteration:      i,
			PreviousOutput: output,
			UpdatedAt:      time.Now().UTC().Format(time.RFC3339),
		})

		if d.done(output) {
			result.Completed = true
			break
		}
	}
	d.writeRunLog(runID, entries)
	d.logger.Info().Bool("completed", result.Completed).Int("iterations", result.Iterations).Msg("loop finished")
	return result, nil
}

func (d *Driver) buildPrompt(task, previous string, iteration int) string {
	if iteration == 1 {
		return fmt.Sprintf(
			"%s\n\nWork on this task. When the task is fully complete, emit the exact line %s. Iteration 1 of %d.",
			task, PromiseTag, d.MaxIterations)
	}
	return fmt.Sprintf(
		"Continue the task below. Here is your previous output:\n\n%s\n\nTask: %s\n\nIteration %d of %d; emit %s when done.",
		previous, task, iteration, d.MaxIterations, PromiseTag)
}

func (d *Driver) done(output string) bool {
	switch d.Strategy {
	case StrategyFileMovement:
		return d.vault.Exists(vault.FolderDone, d.TaskFile)
	default:
		return strings.Contains(output, PromiseTag)
	}
}

func (d *Driver) saveState(s state) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return
	}
	path := d.vault.Path(vault.FolderLogs, stateFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		d.logger.Warn().Err(err).Msg("loop state write failed")
	}
}

func (d *Driver) writeRunLog(runID string, entries []iterationLog) {
	if len(entries) == 0 {
		return
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return
	}
	name := fmt.Sprintf("loop-%s-%s.json", time.Now().UTC().Format("2006-01-02T15-04-05"), runID)
	path := d.vault.Path(vault.FolderLogs, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		d.logger.Warn().Err(err).Msg("loop run log write failed")
	}
}

func preview(output string) string {
	if len(output) > 200 {
		return output[:200]
	}
	return output
}
