package sync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   []string
	outputs map[string]string
	errs    map[string]error
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	return f.outputs[key], f.errs[key]
}

func newTestSyncer(f *fakeRunner) *Syncer {
	return &Syncer{Root: "/vault", Remote: "git@host:repo", Timeout: time.Second, runner: f}
}

func TestPushDirtyTree(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{
		"status --porcelain": " M Needs_Action/email-a.md",
	}}
	s := newTestSyncer(f)
	require.NoError(t, s.Push(context.Background(), "cycle snapshot"))
	assert.Equal(t, []string{
		"status --porcelain",
		"add -A",
		"commit -m cycle snapshot",
		"push",
	}, f.calls)
}

func TestPushCleanTreeIsNoOp(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"status --porcelain": ""}}
	s := newTestSyncer(f)
	require.NoError(t, s.Push(context.Background(), "msg"))
	assert.Equal(t, []string{"status --porcelain"}, f.calls)
}

func TestSyncPullsThenPushes(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{
		"status --porcelain": "?? Updates/u1.md",
	}}
	s := newTestSyncer(f)
	require.NoError(t, s.Sync(context.Background(), "msg"))
	require.NotEmpty(t, f.calls)
	assert.Equal(t, "pull --rebase", f.calls[0])
	assert.Equal(t, "push", f.calls[len(f.calls)-1])
}

func TestInitSkipsExistingRepo(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{
		"rev-parse --is-inside-work-tree": "true",
	}}
	s := newTestSyncer(f)
	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, []string{"rev-parse --is-inside-work-tree"}, f.calls)
}

func TestInitCreatesRepoAndRemote(t *testing.T) {
	f := &fakeRunner{}
	s := newTestSyncer(f)
	require.NoError(t, s.Init(context.Background()))
	assert.Contains(t, f.calls, "init")
	assert.Contains(t, f.calls, "remote add origin git@host:repo")
}

func TestPullWithoutRemoteIsNoOp(t *testing.T) {
	f := &fakeRunner{}
	s := &Syncer{Root: "/vault", Timeout: time.Second, runner: f}
	require.NoError(t, s.Pull(context.Background()))
	assert.Equal(t, []string{"remote"}, f.calls)
}
