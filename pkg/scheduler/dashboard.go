package scheduler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/vault"
)

// Markers fence the generated status block inside Dashboard.md.
// Content outside the fence (drained cloud updates, hand-written
// notes) is preserved across refreshes.
const (
	dashboardBegin = "<!-- deskhand:status -->"
	dashboardEnd   = "<!-- /deskhand:status -->"
)

var dashboardFolders = []string{
	vault.FolderNeedsAction,
	vault.FolderPendingApproval,
	vault.FolderApproved,
	vault.FolderRejected,
	vault.FolderDone,
	vault.FolderQuarantine,
}

// RefreshDashboard rewrites the generated block of the dashboard
// index: folder counts, the pending list, and recent activity. Only
// the Local zone calls this.
func RefreshDashboard(v *vault.Vault, j *journal.Journal) error {
	var b strings.Builder
	b.WriteString(dashboardBegin)
	b.WriteString("\n# Deskhand Dashboard\n\n")
	fmt.Fprintf(&b, "Updated: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	b.WriteString("## Folders\n\n")
	b.WriteString("| Folder | Items |\n|---|---|\n")
	for _, folder := range dashboardFolders {
		fmt.Fprintf(&b, "| %s | %d |\n", folder, v.Count(folder))
	}

	pending, err := v.List(vault.FolderPendingApproval)
	if err != nil {
		return err
	}
	b.WriteString("\n## Awaiting Approval\n\n")
	if len(pending) == 0 {
		b.WriteString("Nothing waiting.\n")
	}
	for _, h := range pending {
		fmt.Fprintf(&b, "- %s\n", h.Name)
	}

	b.WriteString("\n## Recent Activity\n\n")
	recent := j.Recent(10)
	if len(recent) == 0 {
		b.WriteString("No activity yet.\n")
	}
	for _, e := range recent {
		fmt.Fprintf(&b, "- %s %s %s (%s)\n", e.Timestamp, e.Action, e.Source, e.Result)
	}
	b.WriteString(dashboardEnd)

	path := v.Path("", vault.DashboardFile)
	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	}
	content := spliceDashboard(existing, b.String())
	if err := os.WriteFile(path+".tmp", []byte(content), 0o644); err != nil {
		return fmt.Errorf("refresh dashboard: %w", err)
	}
	if err := os.Rename(path+".tmp", path); err != nil {
		return fmt.Errorf("refresh dashboard: %w", err)
	}
	return nil
}

func spliceDashboard(existing, block string) string {
	start := strings.Index(existing, dashboardBegin)
	end := strings.Index(existing, dashboardEnd)
	if start < 0 || end < start {
		if strings.TrimSpace(existing) == "" {
			return block + "\n"
		}
		return block + "\n" + existing
	}
	return existing[:start] + block + existing[end+len(dashboardEnd):]
}
