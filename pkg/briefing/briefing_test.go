package briefing

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
)

func newTestGenerator(t *testing.T) (*Generator, *vault.Vault, *journal.Journal) {
	t.Helper()
	v := vault.New(t.TempDir())
	require.NoError(t, v.EnsureLayout())
	j := journal.New(v.LogsDir())
	return New(v, j), v, j
}

func TestCollectCountsAndCompleted(t *testing.T) {
	g, v, j := newTestGenerator(t)
	require.NoError(t, j.Append("orchestrator", "plan_created", "email-a.md", "plan:plan-a.md"))
	require.NoError(t, j.Append("orchestrator", "email_sent", "plan-a.md", "reply_to:bob@x"))
	require.NoError(t, j.Append("orchestrator", "social_posted", "plan-b.md", "twitter"))
	_, err := v.Write(vault.FolderDone, "plan-a.md", types.Header{}, "done\n")
	require.NoError(t, err)

	stats, err := g.Collect(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Counts["plan_created"])
	assert.Equal(t, 1, stats.Counts["email_sent"])
	assert.Equal(t, []string{"plan-a.md"}, stats.Completed)
	assert.Equal(t, 1, stats.Social["twitter"])
}

func TestBottlenecks(t *testing.T) {
	g, v, _ := newTestGenerator(t)
	h, err := v.Write(vault.FolderPendingApproval, "plan-old.md", types.Header{}, "x\n")
	require.NoError(t, err)
	_, err = v.Write(vault.FolderNeedsAction, "email-fresh.md", types.Header{}, "x\n")
	require.NoError(t, err)

	// Backdate the stuck plan by 30 hours.
	old := time.Now().Add(-30 * time.Hour)
	require.NoError(t, os.Chtimes(v.Path(h.Folder, h.Name), old, old))

	stats, err := g.Collect(time.Now().Add(-7 * 24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, stats.Bottlenecks, 1)
	assert.Equal(t, "plan-old.md", stats.Bottlenecks[0].Handle.Name)
	assert.Equal(t, 30, stats.Bottlenecks[0].AgeHours)
}

func TestGenerateAndSave(t *testing.T) {
	g, v, j := newTestGenerator(t)
	require.NoError(t, j.Append("orchestrator", "plan_created", "email-a.md", "r"))
	_, err := v.Write(vault.FolderQuarantine, "email-q.md", types.Header{}, "x\n")
	require.NoError(t, err)

	fixed := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	h, err := g.Save(fixed.Add(-7 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24_Briefing.md", h.Name)

	report, err := v.ReadRaw(h)
	require.NoError(t, err)
	assert.Contains(t, report, "# Briefing: 2026-08-24")
	assert.Contains(t, report, "| Plans Created | 1 |")
	assert.Contains(t, report, "1 item(s) currently quarantined")
	assert.Contains(t, report, "Check Quarantine")
}
