package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedJournal(t *testing.T, day string) *Journal {
	t.Helper()
	j := New(t.TempDir())
	ts, err := time.Parse("2006-01-02", day)
	require.NoError(t, err)
	j.now = func() time.Time { return ts.Add(12 * time.Hour) }
	return j
}

func TestAppendCreatesDailyFile(t *testing.T) {
	j := fixedJournal(t, "2026-08-24")
	require.NoError(t, j.Append("orchestrator", "plan_created", "email-a.md", "pending_approval:plan-a.md"))
	require.NoError(t, j.Append("orchestrator", "email_sent", "plan-a.md", "reply_to:bob@x"))

	data, err := os.ReadFile(filepath.Join(j.Dir, "2026-08-24.json"))
	require.NoError(t, err)
	var entries []Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "plan_created", entries[0].Action)
	assert.Equal(t, "email_sent", entries[1].Action)
	assert.NotEmpty(t, entries[0].Timestamp)
}

func TestEntriesFiltersByFilenameDate(t *testing.T) {
	j := fixedJournal(t, "2026-08-24")
	require.NoError(t, j.Append("a", "x", "s", "r"))

	old := New(j.Dir)
	past, _ := time.Parse("2006-01-02", "2026-08-01")
	old.now = func() time.Time { return past }
	require.NoError(t, old.Append("a", "old", "s", "r"))

	// Non-date files are skipped, not errors.
	require.NoError(t, os.WriteFile(filepath.Join(j.Dir, "notes.json"), []byte("[]"), 0o644))

	since, _ := time.Parse("2006-01-02", "2026-08-20")
	entries, err := j.Entries(since)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].Action)
}

func TestRecentNewestFirst(t *testing.T) {
	j := fixedJournal(t, "2026-08-24")
	for _, action := range []string{"one", "two", "three"} {
		require.NoError(t, j.Append("a", action, "s", "r"))
	}
	recent := j.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Action)
	assert.Equal(t, "two", recent[1].Action)
}

func TestCounterLifecycle(t *testing.T) {
	j := fixedJournal(t, "2026-08-24")

	assert.True(t, j.CheckLimit("send", 2))
	n, err := j.Increment("send")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, j.CheckLimit("send", 2))

	n, err = j.Increment("send")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, j.CheckLimit("send", 2))
}

func TestCounterZeroLimitBlocks(t *testing.T) {
	j := fixedJournal(t, "2026-08-24")
	assert.False(t, j.CheckLimit("send", 0))
}

func TestCounterFileFormat(t *testing.T) {
	j := fixedJournal(t, "2026-08-24")
	_, err := j.Increment("send")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(j.Dir, ".count_send_2026-08-24.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1}`, string(data))
}
