package state

import (
	"fmt"

	"github.com/capiscio/badgecheck/pkg/tasks"
)

// Reduce applies a to s and returns the resulting state. s is left intact.
func Reduce(s State, a Action) (State, error) {
	switch act := a.(type) {
	case SetInputType:
		s.Input.Type = act.Type
	case StoreOriginalResource:
		resources := make(map[string]string, len(s.Input.OriginalResources)+1)
		for k, v := range s.Input.OriginalResources {
			resources[k] = v
		}
		resources[act.URL] = act.Data
		s.Input.OriginalResources = resources
	case AddNode:
		s.Graph, _ = s.Graph.Add(act.ID, act.Data)
	case PatchNode:
		s.Graph = s.Graph.Patch(act.ID, act.Data)
	case UpdateNode:
		s.Graph = s.Graph.Replace(act.ID, act.Data)
	case RepairReference:
		g, err := s.Graph.RepairReference(act.Path, act.NewID)
		if err != nil {
			return s, fmt.Errorf("failed to repair reference: %w", err)
		}
		s.Graph = g
	case AddTask:
		q, _, err := s.Tasks.Add(act.Task)
		if err != nil {
			return s, fmt.Errorf("failed to add task: %w", err)
		}
		s.Tasks = q
	case ResolveTask:
		q, err := s.Tasks.Resolve(act.ID, act.Success, act.Result, act.Level)
		if err != nil {
			return s, fmt.Errorf("failed to resolve task: %w", err)
		}
		s.Tasks = q
	case DeferTask:
		q, _, err := s.Tasks.Defer(act.ID, act.On)
		if err != nil {
			return s, fmt.Errorf("failed to defer task: %w", err)
		}
		s.Tasks = q
	case RetractNodeTasks:
		s.Tasks = s.Tasks.Retract(tasks.NodeKey(act.NodeID))
	case SetValidationSubject:
		if s.Report.ValidationSubject == "" {
			s.Report.ValidationSubject = act.ID
		}
	case SetOpenBadgesVersion:
		if s.Report.OpenBadgesVersion == "" {
			s.Report.OpenBadgesVersion = act.Version
		}
	case SetRecipientProfile:
		s.Report.RecipientProfile = cloneProfile(act.Profile)
	case nil:
		return s, fmt.Errorf("nil action")
	default:
		return s, fmt.Errorf("unknown action %s", a.Kind())
	}
	return s, nil
}

// Store owns the current State of one run.
type Store struct {
	state State
}

// NewStore creates a Store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// State returns the current snapshot.
func (s *Store) State() State {
	return s.state
}

// Dispatch applies actions in order. Each action sees the effect of the
// previous ones. On error the remaining actions are skipped and the state
// reflects the actions applied so far.
func (s *Store) Dispatch(actions ...Action) error {
	for _, a := range actions {
		next, err := Reduce(s.state, a)
		if err != nil {
			return err
		}
		s.state = next
	}
	return nil
}
