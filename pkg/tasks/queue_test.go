package tasks_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capiscio/badgecheck/pkg/tasks"
)

func add(t *testing.T, q tasks.Queue, p tasks.Params, opts ...tasks.Option) (tasks.Queue, tasks.Task) {
	t.Helper()
	task, err := tasks.NewTask(p, opts...)
	require.NoError(t, err)
	q, task, err = q.Add(task)
	require.NoError(t, err)
	return q, task
}

func TestNewTask(t *testing.T) {
	task, err := tasks.NewTask(tasks.FetchHTTPNode{URL: "https://example.org/a"},
		tasks.WithKey(tasks.NodeKey("https://example.org/a")),
		tasks.WithPrerequisites("x", "", "y"))
	require.NoError(t, err)
	assert.Equal(t, tasks.NameFetchHTTPNode, task.Name)
	assert.Equal(t, "node:https://example.org/a", task.Key)
	assert.Equal(t, []string{"x", "y"}, task.Prerequisites)
	assert.Equal(t, "https://example.org/a", task.NodeID())

	_, err = tasks.NewTask(nil)
	assert.True(t, errors.Is(err, tasks.ErrUnknownTask))
}

func TestQueue_AddAssignsIncreasingIDs(t *testing.T) {
	q := tasks.Queue{}
	q, first := add(t, q, tasks.DetectInputType{})
	q, second := add(t, q, tasks.AssertionTimestampChecks{NodeID: "urn:a"})

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_AddRejectsMismatchedName(t *testing.T) {
	_, _, err := tasks.Queue{}.Add(tasks.Task{Name: tasks.NameVerifyJWS, Params: tasks.DetectInputType{}})
	assert.True(t, errors.Is(err, tasks.ErrUnknownTask))
}

func TestQueue_NextHonoursPrerequisites(t *testing.T) {
	q := tasks.Queue{}
	q, waiting := add(t, q, tasks.VerifyJWS{NodeID: "urn:a", KeyID: "urn:k"},
		tasks.WithPrerequisites(tasks.NodeKey("urn:a")))
	q, fetch := add(t, q, tasks.FetchHTTPNode{URL: "urn:a"}, tasks.WithKey(tasks.NodeKey("urn:a")))

	next, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, fetch.ID, next.ID, "a task with unmet prerequisites is skipped")

	q, err := q.Resolve(fetch.ID, true, "", "")
	require.NoError(t, err)

	next, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, waiting.ID, next.ID)
}

func TestQueue_PrerequisiteByName(t *testing.T) {
	q := tasks.Queue{}
	q, detect := add(t, q, tasks.DetectInputType{})
	q, later := add(t, q, tasks.VerifyRecipientIdentifier{NodeID: "urn:a"},
		tasks.WithPrerequisites(string(tasks.NameDetectInputType)))

	assert.False(t, q.Ready(later))
	q, err := q.Resolve(detect.ID, true, "", "")
	require.NoError(t, err)
	later, _ = q.Get(later.ID)
	assert.True(t, q.Ready(later))
}

func TestQueue_UnknownPrerequisiteNeverReady(t *testing.T) {
	q, task := add(t, tasks.Queue{}, tasks.VerifyGoneRevocation{NodeID: "urn:a"},
		tasks.WithPrerequisites("node:urn:never"))

	assert.False(t, q.Ready(task))
	_, ok := q.Next()
	assert.False(t, ok)
}

func TestQueue_TaskDoesNotWaitOnItself(t *testing.T) {
	q, task := add(t, tasks.Queue{}, tasks.FetchHTTPNode{URL: "urn:a"},
		tasks.WithKey("node:urn:a"), tasks.WithPrerequisites("node:urn:a"))

	assert.False(t, q.Ready(task), "a self-reference alone is never satisfied")

	q, other := add(t, q, tasks.IntakeJSON{Document: tasks.Document{NodeID: "urn:a"}}, tasks.WithKey("node:urn:a"))
	q, _ = q.Resolve(other.ID, true, "", "")
	task, _ = q.Get(task.ID)
	assert.True(t, q.Ready(task))
}

func TestQueue_Resolve(t *testing.T) {
	q, task := add(t, tasks.Queue{}, tasks.DetectInputType{})

	q, err := q.Resolve(task.ID, false, "bad input", "")
	require.NoError(t, err)
	got, _ := q.Get(task.ID)
	assert.True(t, got.Complete)
	assert.False(t, got.Success)
	assert.Equal(t, "bad input", got.Result)
	assert.Equal(t, tasks.LevelError, got.MessageLevel)

	_, err = q.Resolve(task.ID, true, "", "")
	assert.True(t, errors.Is(err, tasks.ErrTaskComplete))
	_, err = q.Resolve(99, true, "", "")
	assert.True(t, errors.Is(err, tasks.ErrTaskNotFound))
}

func TestQueue_Defer(t *testing.T) {
	q := tasks.Queue{}
	q, blocked := add(t, q, tasks.VerifyKeyOwnership{NodeID: "urn:a", KeyID: "urn:k"})
	q, fetch := add(t, q, tasks.FetchHTTPNode{URL: "urn:k"}, tasks.WithKey("node:urn:k"))

	q, moved, err := q.Defer(blocked.ID, []string{"node:urn:k"})
	require.NoError(t, err)
	assert.Greater(t, moved.ID, fetch.ID)
	assert.Equal(t, 1, moved.Deferrals)
	assert.Equal(t, []string{"node:urn:k"}, moved.Prerequisites)
	_, stillThere := q.Get(blocked.ID)
	assert.False(t, stillThere)

	next, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, fetch.ID, next.ID)
}

func TestQueue_Retract(t *testing.T) {
	q := tasks.Queue{}
	q, done := add(t, q, tasks.FetchHTTPNode{URL: "urn:a"}, tasks.WithKey("node:urn:a"))
	q, pending := add(t, q, tasks.IntakeJSON{Document: tasks.Document{NodeID: "urn:a"}}, tasks.WithKey("node:urn:a"))
	q, other := add(t, q, tasks.DetectInputType{})
	q, _ = q.Resolve(done.ID, true, "", "")

	q = q.Retract("node:urn:a")

	_, ok := q.Get(done.ID)
	assert.True(t, ok, "completed tasks are history and stay")
	_, ok = q.Get(pending.ID)
	assert.False(t, ok)
	_, ok = q.Get(other.ID)
	assert.True(t, ok)

	q, fresh := add(t, q, tasks.DetectInputType{})
	assert.Greater(t, fresh.ID, other.ID, "ids are never reused after retraction")
}

func TestQueue_PendingAndExists(t *testing.T) {
	q, task := add(t, tasks.Queue{}, tasks.FetchHTTPNode{URL: "urn:a"}, tasks.WithKey("node:urn:a"))
	assert.True(t, q.Pending("node:urn:a"))
	assert.True(t, q.Pending(string(tasks.NameFetchHTTPNode)))

	q, _ = q.Resolve(task.ID, true, "", "")
	assert.False(t, q.Pending("node:urn:a"))
	assert.True(t, q.Exists("node:urn:a"))
	assert.Empty(t, q.Unresolved())
}
