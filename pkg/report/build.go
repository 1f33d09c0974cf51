package report

import (
	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

// Build assembles the report for a finished run. Every task that completed
// unsuccessfully becomes a message at its level; the badge is valid when
// none of them is an error.
func Build(st state.State) *Result {
	summary := Summary{
		ValidationSubject: st.Report.ValidationSubject,
		OpenBadgesVersion: st.Report.OpenBadgesVersion,
		RecipientProfile:  st.Report.RecipientProfile,
		Messages:          []Message{},
		Valid:             true,
	}

	for _, t := range st.Tasks.Tasks() {
		if !t.Complete || t.Success {
			continue
		}
		switch t.MessageLevel {
		case tasks.LevelWarning:
			summary.AddWarning(t.Name, t.Result, t.NodeID(), t.PropName())
		case tasks.LevelInfo:
			summary.AddInfo(t.Name, t.Result, t.NodeID(), t.PropName())
		default:
			summary.AddError(t.Name, t.Result, t.NodeID(), t.PropName())
		}
	}

	nodes := st.Graph.Nodes()
	if nodes == nil {
		nodes = []graph.Node{}
	}
	return &Result{
		Graph:  nodes,
		Input:  st.Input,
		Report: summary,
	}
}
