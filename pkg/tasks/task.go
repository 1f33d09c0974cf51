package tasks

import (
	"errors"
	"fmt"
)

// ErrUnknownTask is returned when a task is built from params outside the
// task vocabulary.
var ErrUnknownTask = errors.New("unknown task name")

// Task is a unit of verification work. A task is immutable once Complete.
type Task struct {
	// ID is assigned by the Queue on insertion. Zero means not yet queued.
	ID     int
	Name   Name
	Key    string
	Params Params
	// Prerequisites lists task keys or task names that must be complete
	// before this task is ready.
	Prerequisites []string

	Complete     bool
	Success      bool
	Result       string
	MessageLevel Level
	// Deferrals counts how often the task was sent back to wait for a
	// pending prerequisite.
	Deferrals int
}

// Option configures a Task built by NewTask.
type Option func(*Task)

// WithKey sets the task key dependents may wait on.
func WithKey(key string) Option {
	return func(t *Task) {
		t.Key = key
	}
}

// WithPrerequisites appends prerequisite keys or names.
func WithPrerequisites(prereqs ...string) Option {
	return func(t *Task) {
		for _, p := range prereqs {
			if p != "" {
				t.Prerequisites = append(t.Prerequisites, p)
			}
		}
	}
}

// NewTask builds an unqueued task from its params.
func NewTask(params Params, opts ...Option) (Task, error) {
	if params == nil {
		return Task{}, fmt.Errorf("%w: nil params", ErrUnknownTask)
	}
	if !params.Name().Known() {
		return Task{}, fmt.Errorf("%w: %q", ErrUnknownTask, params.Name())
	}
	t := Task{
		Name:   params.Name(),
		Params: params,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t, nil
}

// MustTask is NewTask for params that are statically known to be valid.
func MustTask(params Params, opts ...Option) Task {
	t, err := NewTask(params, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// NodeID returns the id of the node the task concerns, if any.
func (t Task) NodeID() string {
	return nodeID(t.Params)
}

// PropName returns the property a property-level task concerns, if any.
func (t Task) PropName() string {
	switch p := t.Params.(type) {
	case ValidateProperty:
		return p.Prop
	case ImageValidation:
		return p.Prop
	}
	return ""
}

func (t Task) matches(ref string) bool {
	return ref != "" && (t.Key == ref || string(t.Name) == ref)
}
