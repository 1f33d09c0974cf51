package verifier

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capiscio/badgecheck/pkg/loader"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

func newTestRun(t *testing.T) *run {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Fetcher = loader.FetcherFunc(func(_ context.Context, url, _ string) (*loader.Response, error) {
		t.Errorf("unexpected fetch of %s", url)
		return nil, errors.New("offline")
	})
	return New(cfg).newRun(state.Input{}, VerifyOptions{})
}

func seed(t *testing.T, r *run, actions ...state.Action) {
	t.Helper()
	require.NoError(t, r.store.Dispatch(actions...))
}

func taskFor(t *testing.T, q tasks.Queue, name tasks.Name, nodeID string) tasks.Task {
	t.Helper()
	for _, task := range q.Tasks() {
		if task.Name == name && task.NodeID() == nodeID {
			return task
		}
	}
	require.Failf(t, "task not found", "%s for %s", name, nodeID)
	return tasks.Task{}
}

func TestDrain_BlockedTasksDeferUpToLimit(t *testing.T) {
	r := newTestRun(t)
	seed(t, r,
		addTask(tasks.HostedIDInVerificationScope{NodeID: "https://example.org/a"}),
		addTask(tasks.HostedIDInVerificationScope{NodeID: "https://example.org/b"}),
	)

	maxSeen := 0
	steps := 0
	err := r.loop(context.Background(), func(st state.State, task tasks.Task) {
		steps++
		if task.Deferrals > maxSeen {
			maxSeen = task.Deferrals
		}
		r.apply(st, task, r.execute(context.Background(), st, task))
	})
	require.NoError(t, err)

	assert.Equal(t, maxDeferrals, maxSeen)
	assert.Equal(t, 2*(maxDeferrals+1), steps)

	q := r.store.State().Tasks
	assert.Equal(t, 2, q.Len())
	assert.Empty(t, q.Unresolved())
	for _, id := range []string{"https://example.org/a", "https://example.org/b"} {
		task := taskFor(t, q, tasks.NameHostedIDInVerificationScope, id)
		assert.Equal(t, maxDeferrals, task.Deferrals)
		assert.False(t, task.Success)
		assert.Equal(t, tasks.LevelError, task.MessageLevel)
		assert.Equal(t, "could not run due to unmet prerequisites: "+id+": node or property not found", task.Result)
	}
}

func TestDrain_LoneBlockedTaskFailsWithoutDeferral(t *testing.T) {
	r := newTestRun(t)
	seed(t, r, addTask(tasks.VerifyRecipientIdentifier{NodeID: "https://example.org/a"}))

	require.NoError(t, r.drain(context.Background()))

	task := taskFor(t, r.store.State().Tasks, tasks.NameVerifyRecipientIdentifier, "https://example.org/a")
	assert.True(t, task.Complete)
	assert.Zero(t, task.Deferrals)
	assert.Contains(t, task.Result, ErrPrerequisiteUnmet.Message)
}

func TestDrain_DeferredTaskWaitsOnPendingProducer(t *testing.T) {
	const id = "https://example.org/a"
	r := newTestRun(t)
	seed(t, r,
		addTask(tasks.HostedIDInVerificationScope{NodeID: id}),
		addTask(tasks.Upgrade11Node{NodeID: id}, tasks.WithKey(tasks.NodeKey(id))),
	)

	require.NoError(t, r.drain(context.Background()))

	q := r.store.State().Tasks
	scope := taskFor(t, q, tasks.NameHostedIDInVerificationScope, id)
	producer := taskFor(t, q, tasks.NameUpgrade11Node, id)

	// The producer never waits on its own key and exhausts its deferrals;
	// the dependent waits for it once and then gives up.
	assert.Equal(t, []string{tasks.NodeKey(id)}, scope.Prerequisites)
	assert.Equal(t, 1, scope.Deferrals)
	assert.Empty(t, producer.Prerequisites)
	assert.Equal(t, maxDeferrals, producer.Deferrals)
	assert.Contains(t, scope.Result, ErrPrerequisiteUnmet.Message)
}

func TestLoop_StopsWhenTaskIsNotResolved(t *testing.T) {
	r := newTestRun(t)
	seed(t, r, addTask(tasks.AssertionTimestampChecks{NodeID: "https://example.org/a"}))

	calls := 0
	err := r.loop(context.Background(), func(state.State, tasks.Task) {
		// The resolve is never dispatched, so the same task stays ready.
		calls++
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Len(t, r.store.State().Tasks.Unresolved(), 1)
}

func TestLoop_StopsOnCanceledContext(t *testing.T) {
	r := newTestRun(t)
	seed(t, r, addTask(tasks.AssertionTimestampChecks{NodeID: "https://example.org/a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.loop(ctx, func(state.State, tasks.Task) {
		t.Error("step called after cancellation")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApply_ErrorCodes(t *testing.T) {
	r := newTestRun(t)
	seed(t, r,
		addTask(tasks.AssertionTimestampChecks{NodeID: "urn:a"}),
		addTask(tasks.AssertionTimestampChecks{NodeID: "urn:b"}),
	)
	q := r.store.State().Tasks

	out := structural("could not parse JSON", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, out.Err, ErrStructural)
	assert.ErrorIs(t, out.Err, io.ErrUnexpectedEOF)
	assert.Equal(t, ErrCodeStructural, GetErrorCode(out.Err))

	first := taskFor(t, q, tasks.NameAssertionTimestampChecks, "urn:a")
	r.apply(r.store.State(), first, out)
	assert.Equal(t, "could not parse JSON: unexpected EOF", taskFor(t, r.store.State().Tasks, tasks.NameAssertionTimestampChecks, "urn:a").Result)

	second := taskFor(t, q, tasks.NameAssertionTimestampChecks, "urn:b")
	r.apply(r.store.State(), second, nil)
	got := taskFor(t, r.store.State().Tasks, tasks.NameAssertionTimestampChecks, "urn:b")
	assert.True(t, got.Complete)
	assert.False(t, got.Success)
	assert.Contains(t, got.Result, "no outcome")

	assert.NotErrorIs(t, out.Err, ErrUnexpected)
	assert.ErrorIs(t, NewError(ErrCodeUnexpected, "boom"), ErrUnexpected)
}
