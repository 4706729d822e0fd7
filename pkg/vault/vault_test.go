package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhand/deskhand/pkg/types"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v := New(t.TempDir())
	require.NoError(t, v.EnsureLayout())
	return v
}

func TestEnsureLayoutIdempotent(t *testing.T) {
	v := New(t.TempDir())
	require.NoError(t, v.EnsureLayout())

	// Edit the handbook, then re-run layout creation.
	custom := "# My Handbook\n"
	require.NoError(t, os.WriteFile(v.Path("", HandbookFile), []byte(custom), 0o644))
	require.NoError(t, v.EnsureLayout())

	assert.Equal(t, custom, v.Handbook())
	for _, folder := range layoutFolders {
		info, err := os.Stat(v.Dir(folder))
		require.NoError(t, err, folder)
		assert.True(t, info.IsDir(), folder)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	v := newTestVault(t)
	header := types.Header{
		Type:     types.TypeEmail,
		From:     "bob@x",
		Subject:  "Hi",
		MailID:   "msg1",
		Priority: types.PriorityNormal,
	}
	h, err := v.Write(FolderNeedsAction, "email-hi-msg1.md", header, "ping\n")
	require.NoError(t, err)

	got, body, err := v.Read(h)
	require.NoError(t, err)
	assert.Equal(t, "ping\n", body)
	assert.Equal(t, header.From, got.From)
	assert.Equal(t, header.Subject, got.Subject)
	assert.Equal(t, header.MailID, got.MailID)
	assert.Equal(t, header.Priority, got.Priority)
}

func TestListOrdersByName(t *testing.T) {
	v := newTestVault(t)
	for _, name := range []string{"b.md", "a.md", "c.md"} {
		_, err := v.WriteRaw(FolderNeedsAction, name, "x")
		require.NoError(t, err)
	}
	handles, err := v.List(FolderNeedsAction)
	require.NoError(t, err)
	require.Len(t, handles, 3)
	assert.Equal(t, "a.md", handles[0].Name)
	assert.Equal(t, "b.md", handles[1].Name)
	assert.Equal(t, "c.md", handles[2].Name)
}

func TestListRecursesSubFolders(t *testing.T) {
	v := newTestVault(t)
	_, err := v.WriteRaw(FolderPendingApproval, "email/plan-a.md", "x")
	require.NoError(t, err)
	_, err = v.WriteRaw(FolderPendingApproval, "plan-b.md", "x")
	require.NoError(t, err)

	handles, err := v.List(FolderPendingApproval)
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, "email/plan-a.md", handles[0].Name)
}

func TestListSkipsDotFiles(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, os.WriteFile(v.Path(FolderLogs, ".count_send_2026-08-24.json"), []byte("{}"), 0o644))
	handles, err := v.List(FolderLogs)
	require.NoError(t, err)
	assert.Empty(t, handles)
}

func TestMoveFailsWhenDestinationExists(t *testing.T) {
	v := newTestVault(t)
	h, err := v.WriteRaw(FolderPendingApproval, "plan-a.md", "one")
	require.NoError(t, err)
	_, err = v.WriteRaw(FolderApproved, "plan-a.md", "two")
	require.NoError(t, err)

	_, err = v.Move(h, FolderApproved)
	assert.Error(t, err)
	// The source must be untouched.
	assert.True(t, v.Exists(FolderPendingApproval, "plan-a.md"))
}

func TestMoveKeepsName(t *testing.T) {
	v := newTestVault(t)
	h, err := v.WriteRaw(FolderPendingApproval, "email/plan-a.md", "x")
	require.NoError(t, err)

	dest, err := v.Move(h, FolderApproved)
	require.NoError(t, err)
	assert.Equal(t, "email/plan-a.md", dest.Name)
	assert.True(t, v.Exists(FolderApproved, "email/plan-a.md"))
	assert.False(t, v.Exists(FolderPendingApproval, "email/plan-a.md"))
}

func TestAppendMemoryCreatesFileWithHeader(t *testing.T) {
	v := New(t.TempDir())
	require.NoError(t, os.MkdirAll(v.Root, 0o755))

	require.NoError(t, v.AppendMemory("Don't use overly formal language."))
	content := v.Memory()
	assert.Contains(t, content, "# Agent Memory")
	assert.Contains(t, content, "Don't use overly formal language.")
	assert.Regexp(t, `- \[\d{4}-\d{2}-\d{2}T`, content)
}

func TestAppendMemoryIgnoresEmpty(t *testing.T) {
	v := newTestVault(t)
	before := v.Memory()
	require.NoError(t, v.AppendMemory("   "))
	assert.Equal(t, before, v.Memory())
}

func TestClaimInProgress(t *testing.T) {
	v := newTestVault(t)
	_, err := v.WriteRaw(FolderNeedsAction, "email-a.md", "x")
	require.NoError(t, err)

	h, err := v.ClaimInProgress("email-a.md", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(FolderInProgress, "agent-1"), h.Folder)

	// A second agent cannot claim the same name.
	_, err = v.WriteRaw(FolderNeedsAction, "email-a.md", "x")
	require.NoError(t, err)
	_, err = v.ClaimInProgress("email-a.md", "agent-2")
	assert.ErrorContains(t, err, "already claimed")
}

func TestDrainUpdates(t *testing.T) {
	v := newTestVault(t)
	_, err := v.WriteUpdate("cloud-draft-1.md", "Cloud drafted reply (confidence: 0.92)\n")
	require.NoError(t, err)

	n, err := v.DrainUpdates()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, v.Count(FolderUpdates))

	data, err := os.ReadFile(v.Path("", DashboardFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Update: cloud-draft-1")
	assert.Contains(t, string(data), "confidence: 0.92")

	// No updates pending: a second drain is a no-op.
	n, err = v.DrainUpdates()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Invoice #42 OVERDUE!", "invoice-42-overdue"},
		{"  spaced   out  ", "spaced-out"},
		{"___", ""},
		{"already-fine", "already-fine"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}
