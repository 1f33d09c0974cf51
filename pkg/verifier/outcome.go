package verifier

import (
	"fmt"

	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

// Outcome is what a handler returns. It is one of Done, Blocked or Failed.
type Outcome interface {
	isOutcome()
}

// Done is a handler that ran to completion.
type Done struct {
	Success bool
	Message string
	// Level classifies an unsuccessful result. Empty means error.
	Level   tasks.Level
	Actions []state.Action
}

// Blocked is a handler whose required node or property is missing.
type Blocked struct {
	Err error
	// On lists the task keys that would produce the missing data.
	On []string
}

// Failed is a handler that could not run.
type Failed struct {
	Err error
}

func (Done) isOutcome()    {}
func (Blocked) isOutcome() {}
func (Failed) isOutcome()  {}

func succeed(msg string, actions ...state.Action) Done {
	return Done{Success: true, Message: msg, Level: tasks.LevelInfo, Actions: actions}
}

func succeedf(format string, args ...any) Done {
	return succeed(fmt.Sprintf(format, args...))
}

func fail(msg string, actions ...state.Action) Done {
	return Done{Success: false, Message: msg, Level: tasks.LevelError, Actions: actions}
}

func failf(format string, args ...any) Done {
	return fail(fmt.Sprintf(format, args...))
}

func warn(msg string, actions ...state.Action) Done {
	return Done{Success: false, Message: msg, Level: tasks.LevelWarning, Actions: actions}
}

func structural(msg string, cause error) Failed {
	return Failed{Err: WrapError(ErrCodeStructural, msg, cause)}
}

// blockedOn waits for the producers of node id.
func blockedOn(id string, err error) Blocked {
	return Blocked{Err: err, On: []string{tasks.NodeKey(id)}}
}

// lookup returns node id, then follows each reference property in turn. A
// node that is not stored yet blocks on its producers; a reference property
// that is absent cannot be waited for and fails.
func lookup(g graph.Graph, id string, props ...string) (graph.Node, Outcome) {
	n, err := g.NodeByID(id)
	if err != nil {
		return nil, blockedOn(id, err)
	}
	for _, prop := range props {
		ref, ok := n.String(prop)
		if !ok || ref == "" {
			return nil, Failed{Err: WrapError(ErrCodePrerequisiteUnmet,
				fmt.Sprintf("node %s has no %s reference", n.ID(), prop), graph.ErrNotFound)}
		}
		next, err := g.NodeByID(ref)
		if err != nil {
			return nil, blockedOn(ref, err)
		}
		n = next
	}
	return n, nil
}

func addTask(params tasks.Params, opts ...tasks.Option) state.AddTask {
	return state.AddTask{Task: tasks.MustTask(params, opts...)}
}
