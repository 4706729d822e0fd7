// Package planner converts a Needs_Action artifact into a plan: it
// assembles a prompt from the handbook, the agent memory, and the
// artifact, asks the assistant, and parses the structured response.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhand/deskhand/pkg/assistant"
	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/log"
	"github.com/deskhand/deskhand/pkg/mail"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
)

// manualReviewPlan is emitted when the assistant is unavailable. It
// carries no confidence, so it can never auto-approve.
const manualReviewPlan = `## Analysis
The assistant could not be reached for this item. Manual review required.

## Recommended Actions
- Review the source artifact by hand and decide on a response.

## Requires Approval
Yes. No automated action will be taken.
`

// Planner drives one artifact through plan drafting.
type Planner struct {
	vault     *vault.Vault
	journal   *journal.Journal
	assistant assistant.Assistant
	timeout   time.Duration
	logger    zerolog.Logger
}

// New wires a planner. A zero timeout falls back to the assistant
// package default.
func New(v *vault.Vault, j *journal.Journal, a assistant.Assistant, timeout time.Duration) *Planner {
	if timeout <= 0 {
		timeout = assistant.DefaultTimeout
	}
	return &Planner{
		vault:     v,
		journal:   j,
		assistant: a,
		timeout:   timeout,
		logger:    log.WithComponent("planner"),
	}
}

// Plan reads a Needs_Action artifact, drafts a plan into
// Pending_Approval, and deletes the original. The plan handle is
// returned together with the parsed response.
func (p *Planner) Plan(ctx context.Context, h vault.Handle) (vault.Handle, Response, error) {
	header, body, err := p.vault.Read(h)
	if err != nil {
		return vault.Handle{}, Response{}, err
	}

	prompt := BuildPrompt(p.vault.Handbook(), p.vault.Memory(), header, body)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	text, err := p.assistant.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		p.logger.Warn().Err(err).Str("artifact", h.Name).Msg("assistant unavailable, emitting manual review plan")
		text = manualReviewPlan
	}
	resp := ParseResponse(text)

	planHeader := types.Header{
		Type:    header.Type,
		Source:  h.Name,
		Created: time.Now().UTC().Format(time.RFC3339),
		Status:  types.StatusPendingApproval,
	}
	if resp.HasConfidence {
		planHeader.Confidence = resp.Confidence
		planHeader.HasConfidence = true
	}
	if resp.HasReply && header.Type == types.TypeEmail {
		planHeader.Action = types.ActionReply
		planHeader.MailID = header.MailID
		planHeader.To = mail.Address(header.From)
		planHeader.Subject = mail.ReplySubject(header.Subject)
	}

	name := PlanName(h.Name)
	plan, err := p.vault.Write(vault.FolderPendingApproval, name, planHeader, text+"\n")
	if err != nil {
		return vault.Handle{}, resp, err
	}
	if err := p.vault.Delete(h); err != nil {
		return plan, resp, fmt.Errorf("consume %s: %w", h, err)
	}
	if err := p.journal.Append("planner", "plan_created", h.Name,
		fmt.Sprintf("plan:%s confidence:%.2f", name, resp.Confidence)); err != nil {
		p.logger.Warn().Err(err).Msg("journal append failed")
	}
	p.logger.Info().Str("plan", name).Float64("confidence", resp.Confidence).Msg("plan drafted")
	return plan, resp, nil
}

// PlanName derives the plan filename from its source: the leading type
// segment is swapped for "plan"; names without a type prefix are
// prefixed whole.
func PlanName(source string) string {
	base := source
	if i := strings.Index(base, "-"); i > 0 {
		return "plan" + base[i:]
	}
	return "plan-" + base
}
