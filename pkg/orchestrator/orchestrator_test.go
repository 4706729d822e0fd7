package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhand/deskhand/pkg/assistant"
	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/mail"
	"github.com/deskhand/deskhand/pkg/planner"
	"github.com/deskhand/deskhand/pkg/retry"
	"github.com/deskhand/deskhand/pkg/social"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
	"github.com/deskhand/deskhand/pkg/zone"
)

type fakeMailer struct {
	sent    []string
	calls   int
	sendErr error
	failN   int // sendErr applies to the first failN calls only; 0 means every call
}

func (f *fakeMailer) Search(_ context.Context, _ string) ([]mail.Message, error) { return nil, nil }
func (f *fakeMailer) MarkProcessed(_ context.Context, _ string) error            { return nil }

func (f *fakeMailer) SendReply(_ context.Context, id, to, subject, body string) error {
	f.calls++
	if f.sendErr != nil && (f.failN == 0 || f.calls <= f.failN) {
		return f.sendErr
	}
	f.sent = append(f.sent, fmt.Sprintf("%s|%s|%s|%s", id, to, subject, body))
	return nil
}

type env struct {
	vault  *vault.Vault
	jrnl   *journal.Journal
	mailer *fakeMailer
	orch   *Orchestrator
}

func replyResponse(confidence float64) string {
	return fmt.Sprintf("## Analysis\nfriendly\n---BEGIN REPLY---\npong\n---END REPLY---\nConfidence: %.2f\n", confidence)
}

func newEnv(t *testing.T, z types.Zone, threshold float64, sendLimit int, response string) *env {
	t.Helper()
	v := vault.New(t.TempDir())
	require.NoError(t, v.EnsureLayout())
	j := journal.New(v.LogsDir())
	a := assistant.Func(func(_ context.Context, _ string) (string, error) {
		return response, nil
	})
	m := &fakeMailer{}
	p := planner.New(v, j, a, 0)
	o := New(v, j, p, a, zone.For(z), Options{
		Mailer:    m,
		Threshold: threshold,
		SendLimit: sendLimit,
		Retry:     retry.Config{MaxAttempts: 1},
	})
	return &env{vault: v, jrnl: j, mailer: m, orch: o}
}

func (e *env) seedEmail(t *testing.T, name string) vault.Handle {
	t.Helper()
	h, err := e.vault.Write(vault.FolderNeedsAction, name, types.Header{
		Type:    types.TypeEmail,
		From:    "bob@x",
		Subject: "Hi",
		MailID:  "msg1",
	}, "ping\n")
	require.NoError(t, err)
	return h
}

func (e *env) actions(t *testing.T) []string {
	t.Helper()
	var actions []string
	for _, entry := range e.jrnl.Recent(50) {
		actions = append(actions, entry.Action)
	}
	return actions
}

func TestReplyHappyPath(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, replyResponse(0.5))
	src := e.seedEmail(t, "email-hi-msg1.md")

	require.NoError(t, e.orch.ProcessPending(context.Background(), src))

	// Threshold 1.0 disables auto-approve: the plan waits for a human.
	plans, err := e.orch.vault.List(vault.FolderPendingApproval)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	header, _, err := e.vault.Read(plans[0])
	require.NoError(t, err)
	assert.Equal(t, types.ActionReply, header.Action)
	assert.Equal(t, "bob@x", header.To)
	assert.Equal(t, "Re: Hi", header.Subject)
	assert.Equal(t, "msg1", header.MailID)

	// Human approves; next cycle executes.
	approved, err := e.vault.Move(plans[0], vault.FolderApproved)
	require.NoError(t, err)
	require.NoError(t, e.orch.ExecuteApproved(context.Background(), approved))

	assert.True(t, e.vault.Exists(vault.FolderDone, approved.Name))
	require.Len(t, e.mailer.sent, 1)
	assert.Contains(t, e.mailer.sent[0], "msg1|bob@x|Re: Hi|pong")
	assert.Equal(t, 1, e.jrnl.Count("send"))
	assert.Contains(t, e.actions(t), "email_sent")
}

func TestAutoApprove(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 0.5, 10, replyResponse(0.92))
	src := e.seedEmail(t, "email-hi-msg1.md")

	require.NoError(t, e.orch.ProcessPending(context.Background(), src))

	assert.True(t, e.vault.Exists(vault.FolderDone, "plan-hi-msg1.md"))
	assert.Equal(t, 0, e.vault.Count(vault.FolderApproved))
	assert.Equal(t, 0, e.vault.Count(vault.FolderPendingApproval))
	require.Len(t, e.mailer.sent, 1)

	var autoApproved *journal.Entry
	for _, entry := range e.jrnl.Recent(50) {
		if entry.Action == "auto_approved" {
			autoApproved = &entry
			break
		}
	}
	require.NotNil(t, autoApproved)
	assert.Contains(t, autoApproved.Result, "confidence:0.92")
}

func TestAutoApproveBelowThreshold(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 0.9, 10, replyResponse(0.6))
	src := e.seedEmail(t, "email-hi-msg1.md")

	require.NoError(t, e.orch.ProcessPending(context.Background(), src))
	assert.Equal(t, 1, e.vault.Count(vault.FolderPendingApproval))
	assert.Empty(t, e.mailer.sent)
	assert.NotContains(t, e.actions(t), "auto_approved")
}

func TestCloudZoneDraftsOnly(t *testing.T) {
	e := newEnv(t, types.ZoneCloud, 0.5, 10, replyResponse(0.92))
	src := e.seedEmail(t, "email-hi-msg1.md")

	require.NoError(t, e.orch.ProcessPending(context.Background(), src))
	assert.Equal(t, 1, e.vault.Count(vault.FolderPendingApproval))
	assert.Empty(t, e.mailer.sent)

	// execute_approved is a no-op in the cloud zone.
	h, err := e.vault.Write(vault.FolderApproved, "plan-x.md", types.Header{
		Action: types.ActionReply, To: "a@x", MailID: "m",
	}, "---BEGIN REPLY---\nhi\n---END REPLY---\n")
	require.NoError(t, err)
	require.NoError(t, e.orch.ExecuteApproved(context.Background(), h))
	assert.True(t, e.vault.Exists(vault.FolderApproved, "plan-x.md"))
	assert.Empty(t, e.mailer.sent)
}

func TestAutoApproveTransientFailureReturnsToPending(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 0.5, 10, replyResponse(0.95))
	e.mailer.sendErr = &mail.APIError{StatusCode: 503}
	src := e.seedEmail(t, "email-hi-msg1.md")

	require.NoError(t, e.orch.ProcessPending(context.Background(), src))
	assert.True(t, e.vault.Exists(vault.FolderPendingApproval, "plan-hi-msg1.md"))
	assert.Equal(t, 0, e.vault.Count(vault.FolderApproved))
	assert.Equal(t, 0, e.vault.Count(vault.FolderDone))
}

func TestTransientSendFailureStaysApproved(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	e.mailer.sendErr = &mail.APIError{StatusCode: 500}
	h, err := e.vault.Write(vault.FolderApproved, "plan-a.md", types.Header{
		Action: types.ActionReply, To: "a@x", Subject: "Re: s", MailID: "m",
	}, "---BEGIN REPLY---\nhi\n---END REPLY---\n")
	require.NoError(t, err)

	err = e.orch.ExecuteApproved(context.Background(), h)
	assert.Error(t, err)
	assert.True(t, e.vault.Exists(vault.FolderApproved, "plan-a.md"))
	assert.Contains(t, e.actions(t), "send_failed")
	assert.Equal(t, 0, e.jrnl.Count("send"))
}

func TestTransientSendFailureRecoversWithinCycle(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	e.orch.opts.Retry = retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
	e.mailer.sendErr = &mail.APIError{StatusCode: 503}
	e.mailer.failN = 1
	h, err := e.vault.Write(vault.FolderApproved, "plan-a.md", types.Header{
		Action: types.ActionReply, To: "a@x", Subject: "Re: s", MailID: "m",
	}, "---BEGIN REPLY---\nhi\n---END REPLY---\n")
	require.NoError(t, err)

	require.NoError(t, e.orch.ExecuteApproved(context.Background(), h))
	assert.Equal(t, 2, e.mailer.calls)
	assert.True(t, e.vault.Exists(vault.FolderDone, "plan-a.md"))
	require.Len(t, e.mailer.sent, 1)
	assert.Equal(t, 1, e.jrnl.Count("send"))
}

func TestPermanentSendFailureNotRetried(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	e.orch.opts.Retry = retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
	e.mailer.sendErr = &mail.APIError{StatusCode: 401}
	h, err := e.vault.Write(vault.FolderApproved, "plan-a.md", types.Header{
		Action: types.ActionReply, To: "a@x", Subject: "Re: s", MailID: "m",
	}, "---BEGIN REPLY---\nhi\n---END REPLY---\n")
	require.NoError(t, err)

	require.NoError(t, e.orch.ExecuteApproved(context.Background(), h))
	assert.Equal(t, 1, e.mailer.calls)
	assert.True(t, e.vault.Exists(vault.FolderDone, "plan-a.md"))
}

func TestPermanentSendFailureRetires(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	e.mailer.sendErr = &mail.APIError{StatusCode: 401}
	h, err := e.vault.Write(vault.FolderApproved, "plan-a.md", types.Header{
		Action: types.ActionReply, To: "a@x", Subject: "Re: s", MailID: "m",
	}, "---BEGIN REPLY---\nhi\n---END REPLY---\n")
	require.NoError(t, err)

	require.NoError(t, e.orch.ExecuteApproved(context.Background(), h))
	assert.True(t, e.vault.Exists(vault.FolderDone, "plan-a.md"))
	assert.Contains(t, e.actions(t), "send_failed")
}

func TestMissingReplyBlockRetires(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	h, err := e.vault.Write(vault.FolderApproved, "plan-a.md", types.Header{
		Action: types.ActionReply, To: "a@x", MailID: "m",
	}, "no reply markers here\n")
	require.NoError(t, err)

	require.NoError(t, e.orch.ExecuteApproved(context.Background(), h))
	assert.True(t, e.vault.Exists(vault.FolderDone, "plan-a.md"))
	assert.Contains(t, e.actions(t), "reply_failed")
	assert.Empty(t, e.mailer.sent)
}

func TestZeroQuotaNeverSends(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 0, "")
	h, err := e.vault.Write(vault.FolderApproved, "plan-a.md", types.Header{
		Action: types.ActionReply, To: "a@x", MailID: "m",
	}, "---BEGIN REPLY---\nhi\n---END REPLY---\n")
	require.NoError(t, err)

	require.NoError(t, e.orch.ExecuteApproved(context.Background(), h))
	assert.True(t, e.vault.Exists(vault.FolderApproved, "plan-a.md"))
	assert.Empty(t, e.mailer.sent)
	assert.Contains(t, e.actions(t), "quota_exhausted")
}

func TestNoActionPlanCompletes(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	h, err := e.vault.Write(vault.FolderApproved, "plan-a.md", types.Header{}, "just notes\n")
	require.NoError(t, err)

	require.NoError(t, e.orch.ExecuteApproved(context.Background(), h))
	assert.True(t, e.vault.Exists(vault.FolderDone, "plan-a.md"))
}

func TestSocialPostDispatch(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	posted := ""
	e.orch.opts.Social = social.NewRegistry(postFunc{platform: "twitter", fn: func(content string) error {
		posted = content
		return nil
	}})
	h, err := social.CreateDraft(e.vault, "twitter", "Release day!")
	require.NoError(t, err)
	approved, err := e.vault.Move(h, vault.FolderApproved)
	require.NoError(t, err)

	require.NoError(t, e.orch.ExecuteApproved(context.Background(), approved))
	assert.Equal(t, "Release day!", posted)
	assert.True(t, e.vault.Exists(vault.FolderDone, approved.Name))
	assert.Contains(t, e.actions(t), "social_posted")
}

func TestSocialPostUnknownPlatformRetires(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	e.orch.opts.Social = social.NewRegistry()
	h, err := social.CreateDraft(e.vault, "myspace", "hello")
	require.NoError(t, err)
	approved, err := e.vault.Move(h, vault.FolderApproved)
	require.NoError(t, err)

	require.NoError(t, e.orch.ExecuteApproved(context.Background(), approved))
	assert.True(t, e.vault.Exists(vault.FolderDone, approved.Name))
	assert.Contains(t, e.actions(t), "post_failed")
}

type postFunc struct {
	platform string
	fn       func(content string) error
}

func (p postFunc) Platform() string { return p.platform }
func (p postFunc) Validate() error  { return nil }

func (p postFunc) Post(_ context.Context, content string) (string, error) {
	return "ref", p.fn(content)
}

func TestReviewRejected(t *testing.T) {
	v := vault.New(t.TempDir())
	require.NoError(t, v.EnsureLayout())
	// Memory file absent: the review must create it with its header.
	require.NoError(t, os.Remove(v.Path("", vault.MemoryFile)))

	j := journal.New(v.LogsDir())
	a := assistant.Func(func(_ context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "Dear Sir/Madam")
		return "Don't use overly formal language.", nil
	})
	o := New(v, j, planner.New(v, j, a, 0), a, zone.For(types.ZoneLocal), Options{SendLimit: 10, Threshold: 1.0})

	h, err := v.Write(vault.FolderRejected, "plan-a.md", types.Header{Status: types.StatusRejected},
		"---BEGIN REPLY---\nDear Sir/Madam ... Yours faithfully\n---END REPLY---\n")
	require.NoError(t, err)

	require.NoError(t, o.ReviewRejected(context.Background(), h))
	assert.True(t, v.Exists(vault.FolderDone, "plan-a.md"))

	memory := v.Memory()
	assert.True(t, strings.HasPrefix(memory, "# Agent Memory"))
	assert.Contains(t, memory, "Don't use overly formal language.")

	entries := j.Recent(5)
	require.NotEmpty(t, entries)
	assert.Equal(t, "rejection_reviewed", entries[0].Action)
}

func TestReviewRejectedEmptyLearning(t *testing.T) {
	v := vault.New(t.TempDir())
	require.NoError(t, v.EnsureLayout())
	j := journal.New(v.LogsDir())
	a := assistant.Func(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("assistant down")
	})
	o := New(v, j, planner.New(v, j, a, 0), a, zone.For(types.ZoneLocal), Options{SendLimit: 10, Threshold: 1.0})

	before := v.Memory()
	h, err := v.Write(vault.FolderRejected, "plan-a.md", types.Header{}, "body\n")
	require.NoError(t, err)

	require.NoError(t, o.ReviewRejected(context.Background(), h))
	assert.True(t, v.Exists(vault.FolderDone, "plan-a.md"))
	assert.Equal(t, before, v.Memory())
}

func TestGetPendingPriorityOrder(t *testing.T) {
	e := newEnv(t, types.ZoneLocal, 1.0, 10, "")
	for name, p := range map[string]types.Priority{
		"email-a.md": types.PriorityLow,
		"email-b.md": types.PriorityNormal,
		"email-c.md": types.PriorityHigh,
	} {
		_, err := e.vault.Write(vault.FolderNeedsAction, name, types.Header{
			Type: types.TypeEmail, Priority: p,
		}, "x\n")
		require.NoError(t, err)
	}

	pending, err := e.orch.GetPending()
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "email-c.md", pending[0].Name)
	assert.Equal(t, "email-b.md", pending[1].Name)
	assert.Equal(t, "email-a.md", pending[2].Name)
}
