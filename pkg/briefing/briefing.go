// Package briefing builds the period report: action counts from the
// journal, completed work, bottlenecks older than a day, and the
// social activity summary, saved under Briefings/.
package briefing

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/social"
	"github.com/deskhand/deskhand/pkg/vault"
)

// bottleneckAge is how old a waiting artifact must be to get named in
// the report.
const bottleneckAge = 24 * time.Hour

// actionTitles maps journal actions to their report row labels, in
// render order.
var actionTitles = []struct {
	action string
	title  string
}{
	{"email_sent", "Emails Sent"},
	{"plan_created", "Plans Created"},
	{"auto_approved", "Auto-Approved"},
	{"approved", "Manually Approved"},
	{"rejected", "Rejected"},
	{"rejection_reviewed", "Rejections Reviewed"},
	{"social_posted", "Social Posts"},
	{"send_failed", "Send Failures"},
	{"quota_exhausted", "Quota Stops"},
}

// Generator builds briefings over one vault.
type Generator struct {
	vault   *vault.Vault
	journal *journal.Journal

	// now is swappable for tests.
	now func() time.Time
}

// New wires a generator.
func New(v *vault.Vault, j *journal.Journal) *Generator {
	return &Generator{vault: v, journal: j, now: time.Now}
}

// Bottleneck names an artifact stuck in a waiting folder.
type Bottleneck struct {
	Handle   vault.Handle
	AgeHours int
}

// Stats aggregates one reporting period.
type Stats struct {
	Since       time.Time
	Counts      map[string]int
	Completed   []string
	Bottlenecks []Bottleneck
	Quarantined int
	Social      map[string]int
}

// Collect gathers the stats for everything since the cutoff.
func (g *Generator) Collect(since time.Time) (Stats, error) {
	stats := Stats{
		Since:       since,
		Counts:      make(map[string]int),
		Quarantined: g.vault.Count(vault.FolderQuarantine),
	}
	entries, err := g.journal.Entries(since)
	if err != nil {
		return stats, err
	}
	for _, e := range entries {
		stats.Counts[e.Action]++
	}
	stats.Social = social.Summary(entries)

	done, err := g.vault.List(vault.FolderDone)
	if err != nil {
		return stats, err
	}
	for _, h := range done {
		info, err := os.Stat(g.vault.Path(h.Folder, h.Name))
		if err != nil {
			continue
		}
		if info.ModTime().After(since) {
			stats.Completed = append(stats.Completed, h.Name)
		}
	}
	sort.Strings(stats.Completed)

	for _, folder := range []string{vault.FolderPendingApproval, vault.FolderNeedsAction} {
		waiting, err := g.vault.List(folder)
		if err != nil {
			return stats, err
		}
		for _, h := range waiting {
			info, err := os.Stat(g.vault.Path(h.Folder, h.Name))
			if err != nil {
				continue
			}
			age := g.now().Sub(info.ModTime())
			if age >= bottleneckAge {
				stats.Bottlenecks = append(stats.Bottlenecks, Bottleneck{
					Handle:   h,
					AgeHours: int(age.Hours()),
				})
			}
		}
	}
	return stats, nil
}

// Generate renders the markdown report for the period since the
// cutoff.
func (g *Generator) Generate(since time.Time) (string, error) {
	stats, err := g.Collect(since)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Briefing: %s\n\n", g.now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "Period since %s.\n\n", since.UTC().Format("2006-01-02"))
	b.WriteString(executiveSummary(stats))
	b.WriteString("\n\n## Activity\n\n| Metric | Count |\n|---|---|\n")
	for _, row := range actionTitles {
		fmt.Fprintf(&b, "| %s | %d |\n", row.title, stats.Counts[row.action])
	}

	b.WriteString("\n## Completed\n\n")
	if len(stats.Completed) == 0 {
		b.WriteString("Nothing completed in this period.\n")
	}
	for _, name := range stats.Completed {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	b.WriteString("\n## Bottlenecks\n\n")
	if len(stats.Bottlenecks) == 0 {
		b.WriteString("No items waiting longer than 24 hours.\n")
	}
	for _, bn := range stats.Bottlenecks {
		fmt.Fprintf(&b, "- %s waiting %d hours\n", bn.Handle, bn.AgeHours)
	}

	if stats.Quarantined > 0 {
		fmt.Fprintf(&b, "\n## Quarantine\n\n%d item(s) currently quarantined.\n", stats.Quarantined)
	}

	if len(stats.Social) > 0 {
		b.WriteString("\n## Social\n\n| Platform | Posts |\n|---|---|\n")
		platforms := make([]string, 0, len(stats.Social))
		for p := range stats.Social {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)
		for _, p := range platforms {
			fmt.Fprintf(&b, "| %s | %d |\n", p, stats.Social[p])
		}
	}
	b.WriteString(suggestions(stats))
	return b.String(), nil
}

// Save writes the report to Briefings/<date>_Briefing.md and returns
// its handle.
func (g *Generator) Save(since time.Time) (vault.Handle, error) {
	report, err := g.Generate(since)
	if err != nil {
		return vault.Handle{}, err
	}
	name := fmt.Sprintf("%s_Briefing.md", g.now().UTC().Format("2006-01-02"))
	return g.vault.WriteRaw(vault.FolderBriefings, name, report)
}

func executiveSummary(stats Stats) string {
	sent := stats.Counts["email_sent"]
	planned := stats.Counts["plan_created"]
	switch {
	case planned == 0 && sent == 0:
		return "Quiet period: no new plans were drafted and nothing was sent."
	case len(stats.Bottlenecks) > 0:
		return fmt.Sprintf("%d plan(s) drafted and %d repl(ies) sent, but %d item(s) have been waiting more than a day.",
			planned, sent, len(stats.Bottlenecks))
	default:
		return fmt.Sprintf("%d plan(s) drafted and %d repl(ies) sent; nothing is stuck.", planned, sent)
	}
}

func suggestions(stats Stats) string {
	var lines []string
	if len(stats.Bottlenecks) > 0 {
		lines = append(lines, "Review the bottleneck list; approvals are the oldest open work.")
	}
	if stats.Quarantined > 0 {
		lines = append(lines, "Check Quarantine for items that keep failing.")
	}
	if stats.Counts["quota_exhausted"] > 0 {
		lines = append(lines, "The daily send limit was hit; consider raising DAILY_SEND_LIMIT.")
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n## Suggestions\n\n- " + strings.Join(lines, "\n- ") + "\n"
}
