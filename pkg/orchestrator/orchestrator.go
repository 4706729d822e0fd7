// Package orchestrator drives artifacts through the approval state
// machine: drafting plans for pending work, executing approved plans
// through the configured sinks, and recycling rejections into memory.
// Every operation catches failures at the per-artifact boundary so one
// bad item never halts a cycle.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhand/deskhand/pkg/assistant"
	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/log"
	"github.com/deskhand/deskhand/pkg/mail"
	"github.com/deskhand/deskhand/pkg/metrics"
	"github.com/deskhand/deskhand/pkg/planner"
	"github.com/deskhand/deskhand/pkg/retry"
	"github.com/deskhand/deskhand/pkg/social"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
	"github.com/deskhand/deskhand/pkg/zone"
)

// sendCounter names the daily outbound-send quota.
const sendCounter = "send"

// reviewTimeout bounds the rejection-review assistant call.
const reviewTimeout = 60 * time.Second

// Options carries the orchestrator's sinks and policy knobs.
type Options struct {
	Mailer    mail.Provider
	Social    social.Registry
	Threshold float64      // auto-approve threshold; 1.0 disables
	SendLimit int          // daily outbound send cap
	Retry     retry.Config // in-cycle backoff for transient send faults
}

// Orchestrator is the state-transition engine.
type Orchestrator struct {
	vault     *vault.Vault
	journal   *journal.Journal
	planner   *planner.Planner
	assistant assistant.Assistant
	caps      zone.Capabilities
	opts      Options
	logger    zerolog.Logger
}

// New wires an orchestrator for one zone.
func New(v *vault.Vault, j *journal.Journal, p *planner.Planner, a assistant.Assistant, caps zone.Capabilities, opts Options) *Orchestrator {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}
	return &Orchestrator{
		vault:     v,
		journal:   j,
		planner:   p,
		assistant: a,
		caps:      caps,
		opts:      opts,
		logger:    log.WithComponent("orchestrator"),
	}
}

// GetPending returns Needs_Action artifacts ordered by priority (high
// first), ties broken by name.
func (o *Orchestrator) GetPending() ([]vault.Handle, error) {
	handles, err := o.vault.List(vault.FolderNeedsAction)
	if err != nil {
		return nil, err
	}
	ranks := make(map[vault.Handle]int, len(handles))
	for _, h := range handles {
		header, _, err := o.vault.Read(h)
		if err != nil {
			ranks[h] = types.PriorityNormal.Rank()
			continue
		}
		ranks[h] = header.Priority.Rank()
	}
	sort.SliceStable(handles, func(i, j int) bool {
		if ranks[handles[i]] != ranks[handles[j]] {
			return ranks[handles[i]] < ranks[handles[j]]
		}
		return handles[i].Name < handles[j].Name
	})
	return handles, nil
}

// GetApproved returns Approved artifacts in name order.
func (o *Orchestrator) GetApproved() ([]vault.Handle, error) {
	return o.vault.List(vault.FolderApproved)
}

// GetRejected returns Rejected artifacts in name order.
func (o *Orchestrator) GetRejected() ([]vault.Handle, error) {
	return o.vault.List(vault.FolderRejected)
}

// ProcessPending plans one Needs_Action artifact and applies the
// auto-approve policy. Cloud zones only ever draft.
func (o *Orchestrator) ProcessPending(ctx context.Context, h vault.Handle) error {
	plan, resp, err := o.planner.Plan(ctx, h)
	if err != nil {
		return err
	}
	if !o.caps.AutoApprove || o.opts.Threshold >= 1.0 {
		return nil
	}
	if !resp.HasConfidence || resp.Confidence < o.opts.Threshold {
		return nil
	}
	header, _, err := o.vault.Read(plan)
	if err != nil {
		return err
	}
	if header.Action == "" {
		return nil
	}
	if header.Action == types.ActionReply && !o.journal.CheckLimit(sendCounter, o.opts.SendLimit) {
		o.logger.Info().Str("plan", plan.Name).Msg("auto-approve blocked by send quota")
		return nil
	}

	approved, err := o.vault.Move(plan, vault.FolderApproved)
	if err != nil {
		return err
	}
	out, execErr := o.execute(ctx, approved)
	switch out {
	case outcomeDone:
		if err := o.journal.Append("orchestrator", "auto_approved", plan.Name,
			fmt.Sprintf("confidence:%.2f", resp.Confidence)); err != nil {
			o.logger.Warn().Err(err).Msg("journal append failed")
		}
	case outcomeStay:
		// Hand back to a human rather than looping on a flaky sink.
		if _, err := o.vault.Move(approved, vault.FolderPendingApproval); err != nil {
			return fmt.Errorf("return auto-approved plan: %w", err)
		}
		o.logger.Warn().Err(execErr).Str("plan", plan.Name).Msg("auto-approve execution failed, returned to pending")
	}
	return nil
}

// ExecuteApproved performs the side effect of one approved plan. In a
// zone without execution capability this is a no-op.
func (o *Orchestrator) ExecuteApproved(ctx context.Context, h vault.Handle) error {
	if !o.caps.ExecuteSideEffect {
		return nil
	}
	_, err := o.execute(ctx, h)
	return err
}

type outcome int

const (
	outcomeStay outcome = iota // left in Approved for a later retry
	outcomeDone                // moved to Done
)

func (o *Orchestrator) execute(ctx context.Context, h vault.Handle) (outcome, error) {
	header, body, err := o.vault.Read(h)
	if err != nil {
		return outcomeStay, err
	}
	switch header.Action {
	case "":
		return o.finish(h, "completed", "no_action")
	case types.ActionReply:
		return o.executeReply(ctx, h, header, body)
	case types.ActionSocialPost:
		return o.executeSocialPost(ctx, h, header, body)
	default:
		return o.finish(h, "execution_failed", "unknown_action:"+header.Action)
	}
}

func (o *Orchestrator) executeReply(ctx context.Context, h vault.Handle, header types.Header, body string) (outcome, error) {
	if !o.journal.CheckLimit(sendCounter, o.opts.SendLimit) {
		o.journalEntry("quota_exhausted", h.Name, fmt.Sprintf("limit:%d", o.opts.SendLimit))
		return outcomeStay, nil
	}
	reply, ok := planner.ExtractReply(body)
	if !ok || reply == "" {
		return o.finish(h, "reply_failed", "missing_reply_block")
	}
	if o.opts.Mailer == nil {
		return o.finish(h, "reply_failed", "no_mail_provider")
	}
	// Transient provider faults get a short in-cycle backoff before the
	// plan is handed back to the Approved queue for the next cycle.
	err := retry.Do(ctx, o.opts.Retry, func() error {
		return mail.ClassifySendError(o.opts.Mailer.SendReply(ctx, header.MailID, header.To, header.Subject, reply))
	})
	if err != nil {
		if retry.IsPermanent(err) {
			return o.finish(h, "send_failed", "permanent:"+err.Error())
		}
		o.journalEntry("send_failed", h.Name, "transient:"+err.Error())
		return outcomeStay, err
	}
	if _, err := o.journal.Increment(sendCounter); err != nil {
		o.logger.Warn().Err(err).Msg("send counter increment failed")
	}
	metrics.EmailsSent.Inc()
	return o.finish(h, "email_sent", "reply_to:"+header.To)
}

func (o *Orchestrator) executeSocialPost(ctx context.Context, h vault.Handle, header types.Header, body string) (outcome, error) {
	poster, err := o.opts.Social.Lookup(header.Platform)
	if err != nil {
		return o.finish(h, "post_failed", err.Error())
	}
	if err := poster.Validate(); err != nil {
		return o.finish(h, "post_failed", err.Error())
	}
	content := strings.TrimSpace(body)
	if content == "" {
		return o.finish(h, "post_failed", "empty_content")
	}
	if _, err := poster.Post(ctx, content); err != nil {
		o.journalEntry("post_failed", h.Name, "transient:"+err.Error())
		return outcomeStay, err
	}
	return o.finish(h, "social_posted", header.Platform)
}

// finish moves the artifact to Done and journals the result.
func (o *Orchestrator) finish(h vault.Handle, action, result string) (outcome, error) {
	if _, err := o.vault.Move(h, vault.FolderDone); err != nil {
		return outcomeStay, err
	}
	o.journalEntry(action, h.Name, result)
	o.logger.Info().Str("artifact", h.Name).Str("action", action).Str("result", result).Msg("executed")
	return outcomeDone, nil
}

// ReviewRejected asks the assistant for one sentence of learning from
// a rejected plan, appends it to the agent memory, and retires the
// plan to Done. An empty assistant response still retires the plan.
func (o *Orchestrator) ReviewRejected(ctx context.Context, h vault.Handle) error {
	_, body, err := o.vault.Read(h)
	if err != nil {
		return err
	}
	prompt := fmt.Sprintf(
		"The following plan was rejected by a human reviewer. State in exactly one sentence what should be done differently next time. Respond with the sentence only.\n\n%s",
		strings.TrimSpace(body))

	rctx, cancel := context.WithTimeout(ctx, reviewTimeout)
	defer cancel()
	learning, err := o.assistant.Complete(rctx, prompt)
	if err != nil {
		o.logger.Warn().Err(err).Str("plan", h.Name).Msg("rejection review got no learning")
		learning = ""
	}
	learning = strings.TrimSpace(learning)
	if learning != "" {
		if err := o.vault.AppendMemory(learning); err != nil {
			return err
		}
	}
	if _, err := o.vault.Move(h, vault.FolderDone); err != nil {
		return err
	}
	result := "no_learning"
	if learning != "" {
		result = "learned:" + learning
	}
	o.journalEntry("rejection_reviewed", h.Name, result)
	return nil
}

func (o *Orchestrator) journalEntry(action, source, result string) {
	if err := o.journal.Append("orchestrator", action, source, result); err != nil {
		o.logger.Warn().Err(err).Msg("journal append failed")
	}
}
