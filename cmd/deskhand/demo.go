package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/pkg/assistant"
	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/mail"
	"github.com/deskhand/deskhand/pkg/orchestrator"
	"github.com/deskhand/deskhand/pkg/planner"
	"github.com/deskhand/deskhand/pkg/scheduler"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
	"github.com/deskhand/deskhand/pkg/zone"
)

// demoMailer records instead of sending.
type demoMailer struct{ sent []string }

func (d *demoMailer) Search(context.Context, string) ([]mail.Message, error) { return nil, nil }
func (d *demoMailer) MarkProcessed(context.Context, string) error            { return nil }

func (d *demoMailer) SendReply(_ context.Context, _, to, subject, body string) error {
	d.sent = append(d.sent, fmt.Sprintf("to=%s subject=%q body=%q", to, subject, body))
	return nil
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Scripted end-to-end walkthrough against a temporary vault",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		root, err := os.MkdirTemp("", "deskhand-demo-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(root)
		fmt.Printf("demo vault: %s\n\n", root)

		v := vault.New(root)
		if err := v.EnsureLayout(); err != nil {
			return err
		}
		j := journal.New(v.LogsDir())
		a := assistant.Func(func(_ context.Context, _ string) (string, error) {
			return "## Analysis\nA colleague is asking for the quarterly numbers.\n" +
				"## Recommended Actions\n- Send them the summary.\n" +
				"## Requires Approval\nYes.\n" +
				"---BEGIN REPLY---\nHi Dana, the Q3 numbers are attached. Shout if anything looks off.\n---END REPLY---\n" +
				"Confidence: 0.85\n", nil
		})
		mailer := &demoMailer{}
		caps := zone.For(types.ZoneLocal)
		orch := orchestrator.New(v, j, planner.New(v, j, a, 0), a, caps, orchestrator.Options{
			Mailer:    mailer,
			Threshold: 1.0,
			SendLimit: 10,
		})

		msgID := uuid.New().String()[:8]
		step := stepper()

		step("mail arrives, watcher materializes it")
		src, err := v.Write(vault.FolderNeedsAction, fmt.Sprintf("email-q3-numbers-%s.md", msgID), types.Header{
			Type:     types.TypeEmail,
			From:     "Dana <dana@example.com>",
			Subject:  "Q3 numbers?",
			MailID:   msgID,
			Priority: types.PriorityNormal,
		}, "Could you send over the Q3 numbers before the board call?\n")
		if err != nil {
			return err
		}

		step("cloud zone drops a note into Updates/")
		if _, err := v.WriteUpdate("cloud-"+msgID+".md", "Cloud drafted overnight; review when convenient."); err != nil {
			return err
		}

		step("planner drafts a plan into Pending_Approval")
		ctx := cmd.Context()
		if err := orch.ProcessPending(ctx, src); err != nil {
			return err
		}
		printFolder(v, vault.FolderPendingApproval)

		step("local zone drains Updates/ and refreshes Dashboard.md")
		if _, err := v.DrainUpdates(); err != nil {
			return err
		}
		if err := scheduler.RefreshDashboard(v, j); err != nil {
			return err
		}

		step("human approves the plan")
		plans, err := v.List(vault.FolderPendingApproval)
		if err != nil {
			return err
		}
		approved, err := v.Move(plans[0], vault.FolderApproved)
		if err != nil {
			return err
		}

		step("orchestrator executes the approved reply")
		if err := orch.ExecuteApproved(ctx, approved); err != nil {
			return err
		}
		for _, line := range mailer.sent {
			fmt.Printf("  sent: %s\n", line)
		}
		printFolder(v, vault.FolderDone)

		step("audit trail")
		for _, e := range j.Recent(10) {
			fmt.Printf("  %s %-18s %s (%s)\n", e.Timestamp, e.Action, e.Source, e.Result)
		}

		dashboard, err := os.ReadFile(filepath.Join(root, vault.DashboardFile))
		if err == nil {
			fmt.Printf("\nDashboard.md:\n%s\n", dashboard)
		}
		return nil
	},
}

func stepper() func(string) {
	n := 0
	return func(title string) {
		n++
		fmt.Printf("\n[%d] %s\n", n, title)
	}
}

func printFolder(v *vault.Vault, folder string) {
	handles, err := v.List(folder)
	if err != nil {
		return
	}
	for _, h := range handles {
		fmt.Printf("  %s\n", h)
	}
}
