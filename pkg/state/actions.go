package state

import (
	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

// Action describes one change to State. The set of implementations is closed.
type Action interface {
	Kind() string
	isAction()
}

// SetInputType records the detected input type.
type SetInputType struct {
	Type InputType
}

// StoreOriginalResource keeps a fetched document under its source URL.
type StoreOriginalResource struct {
	URL  string
	Data string
}

// AddNode flattens Data into the graph under ID, or under Data["id"] or a
// blank-node id when ID is empty.
type AddNode struct {
	ID   string
	Data map[string]any
}

// PatchNode shallow-merges Data into node ID.
type PatchNode struct {
	ID   string
	Data map[string]any
}

// UpdateNode replaces node ID with Data.
type UpdateNode struct {
	ID   string
	Data map[string]any
}

// RepairReference rewrites the reference at Path to NewID.
type RepairReference struct {
	Path  graph.Path
	NewID string
}

// AddTask queues Task.
type AddTask struct {
	Task tasks.Task
}

// ResolveTask records the outcome of task ID.
type ResolveTask struct {
	ID      int
	Success bool
	Result  string
	Level   tasks.Level
}

// DeferTask sends task ID back to wait on the keys in On.
type DeferTask struct {
	ID int
	On []string
}

// RetractNodeTasks drops incomplete tasks keyed to node NodeID.
type RetractNodeTasks struct {
	NodeID string
}

// SetValidationSubject records the id of the node being verified. Only the
// first value sticks.
type SetValidationSubject struct {
	ID string
}

// SetOpenBadgesVersion records the detected Open Badges version. Only the first
// value sticks.
type SetOpenBadgesVersion struct {
	Version string
}

// SetRecipientProfile replaces the candidate recipient identifiers.
type SetRecipientProfile struct {
	Profile map[string][]string
}

func (SetInputType) Kind() string          { return "SET_INPUT_TYPE" }
func (StoreOriginalResource) Kind() string { return "STORE_ORIGINAL_RESOURCE" }
func (AddNode) Kind() string               { return "ADD_NODE" }
func (PatchNode) Kind() string             { return "PATCH_NODE" }
func (UpdateNode) Kind() string            { return "UPDATE_NODE" }
func (RepairReference) Kind() string       { return "REPAIR_REFERENCE" }
func (AddTask) Kind() string               { return "ADD_TASK" }
func (ResolveTask) Kind() string           { return "RESOLVE_TASK" }
func (DeferTask) Kind() string             { return "DEFER_TASK" }
func (RetractNodeTasks) Kind() string      { return "RETRACT_NODE_TASKS" }
func (SetValidationSubject) Kind() string  { return "SET_VALIDATION_SUBJECT" }
func (SetOpenBadgesVersion) Kind() string  { return "SET_OPENBADGES_VERSION" }
func (SetRecipientProfile) Kind() string   { return "SET_RECIPIENT_PROFILE" }

func (SetInputType) isAction()          {}
func (StoreOriginalResource) isAction() {}
func (AddNode) isAction()               {}
func (PatchNode) isAction()             {}
func (UpdateNode) isAction()            {}
func (RepairReference) isAction()       {}
func (AddTask) isAction()               {}
func (ResolveTask) isAction()           {}
func (DeferTask) isAction()             {}
func (RetractNodeTasks) isAction()      {}
func (SetValidationSubject) isAction()  {}
func (SetOpenBadgesVersion) isAction()  {}
func (SetRecipientProfile) isAction()   {}

