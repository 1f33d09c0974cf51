package report_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capiscio/badgecheck/pkg/report"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

func TestBuild(t *testing.T) {
	store := state.NewStore(state.New(state.Input{Value: "https://example.org/assertion"}, nil))
	require.NoError(t, store.Dispatch(
		state.SetInputType{Type: state.InputURL},
		state.AddNode{ID: "https://example.org/assertion", Data: map[string]any{"type": "Assertion"}},
		state.SetValidationSubject{ID: "https://example.org/assertion"},
		state.SetOpenBadgesVersion{Version: "2.0"},
		state.AddTask{Task: tasks.MustTask(tasks.ValidateProperty{NodeID: "https://example.org/assertion", Prop: "issuedOn"})},
		state.AddTask{Task: tasks.MustTask(tasks.HostedIDInVerificationScope{NodeID: "https://example.org/assertion"})},
		state.AddTask{Task: tasks.MustTask(tasks.AssertionTimestampChecks{NodeID: "https://example.org/assertion"})},
		state.AddTask{Task: tasks.MustTask(tasks.VerifyRecipientIdentifier{NodeID: "https://example.org/assertion"})},
		state.ResolveTask{ID: 1, Success: false, Result: "missing issuedOn", Level: tasks.LevelError},
		state.ResolveTask{ID: 2, Success: false, Result: "domain mismatch", Level: tasks.LevelWarning},
		state.ResolveTask{ID: 3, Success: true, Result: "dates ok"},
	))

	res := report.Build(store.State())

	assert.Equal(t, "https://example.org/assertion", res.Report.ValidationSubject)
	assert.Equal(t, "2.0", res.Report.OpenBadgesVersion)
	assert.Equal(t, 1, res.Report.ErrorCount)
	assert.Equal(t, 1, res.Report.WarningCount)
	assert.False(t, res.Report.Valid)
	require.Len(t, res.Report.Messages, 2)
	assert.Equal(t, tasks.NameValidateProperty, res.Report.Messages[0].Name)
	assert.Equal(t, "issuedOn", res.Report.Messages[0].PropName)
	assert.Equal(t, "https://example.org/assertion", res.Report.Messages[0].NodeID)
	assert.Len(t, res.Graph, 1)
}

func TestBuild_EmptyRunIsValid(t *testing.T) {
	res := report.Build(state.New(state.Input{Value: "x"}, nil))

	assert.True(t, res.Report.Valid)
	assert.NotNil(t, res.Report.Messages)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"graph":[]`)
	assert.Contains(t, string(data), `"messages":[]`)
	assert.Contains(t, string(data), `"input_type":""`)
}
