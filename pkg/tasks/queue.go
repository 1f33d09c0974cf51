package tasks

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned when a task id is not queued.
var ErrTaskNotFound = errors.New("task not found")

// ErrTaskComplete is returned when resolving or deferring a finished task.
var ErrTaskComplete = errors.New("task already complete")

// Queue is an ordered, immutable collection of tasks. Mutating methods return
// a new Queue. Task ids are strictly increasing and never reused.
type Queue struct {
	tasks  []Task
	lastID int
}

// Len returns the number of queued tasks, complete or not.
func (q Queue) Len() int {
	return len(q.tasks)
}

// Tasks returns every task in id order.
func (q Queue) Tasks() []Task {
	return append([]Task(nil), q.tasks...)
}

// Get returns the task with id.
func (q Queue) Get(id int) (Task, bool) {
	i := q.index(id)
	if i < 0 {
		return Task{}, false
	}
	return q.tasks[i], true
}

// Add queues t under a fresh id. Tasks that fail NewTask validation are
// rejected.
func (q Queue) Add(t Task) (Queue, Task, error) {
	if t.Params == nil || !t.Name.Known() || t.Params.Name() != t.Name {
		return q, Task{}, fmt.Errorf("%w: %q", ErrUnknownTask, t.Name)
	}
	out := q.clone()
	out.lastID++
	t.ID = out.lastID
	t.Complete = false
	t.Prerequisites = append([]string(nil), t.Prerequisites...)
	out.tasks = append(out.tasks, t)
	return out, t, nil
}

// Resolve marks the task complete with its outcome.
func (q Queue) Resolve(id int, success bool, result string, level Level) (Queue, error) {
	i := q.index(id)
	if i < 0 {
		return q, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	if q.tasks[i].Complete {
		return q, fmt.Errorf("%w: %d", ErrTaskComplete, id)
	}
	if level == "" {
		level = LevelError
	}
	out := q.clone()
	t := out.tasks[i]
	t.Complete = true
	t.Success = success
	t.Result = result
	t.MessageLevel = level
	out.tasks[i] = t
	return out, nil
}

// Defer sends an incomplete task to the back of the queue under a new id,
// additionally waiting on the given keys.
func (q Queue) Defer(id int, on []string) (Queue, Task, error) {
	i := q.index(id)
	if i < 0 {
		return q, Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	t := q.tasks[i]
	if t.Complete {
		return q, Task{}, fmt.Errorf("%w: %d", ErrTaskComplete, id)
	}
	out := q.clone()
	out.tasks = append(out.tasks[:i:i], out.tasks[i+1:]...)
	t.Deferrals++
	prereqs := append([]string(nil), t.Prerequisites...)
	for _, key := range on {
		if !contains(prereqs, key) && !t.matches(key) {
			prereqs = append(prereqs, key)
		}
	}
	t.Prerequisites = prereqs
	out.lastID++
	t.ID = out.lastID
	out.tasks = append(out.tasks, t)
	return out, t, nil
}

// Retract drops every incomplete task carrying key.
func (q Queue) Retract(key string) Queue {
	out := Queue{lastID: q.lastID}
	for _, t := range q.tasks {
		if !t.Complete && t.Key == key {
			continue
		}
		out.tasks = append(out.tasks, t)
	}
	return out
}

// Ready reports whether t is incomplete and every prerequisite is met. A
// prerequisite is met when at least one other task matches it by key or
// name and all matching tasks are complete. A prerequisite nothing matches
// keeps the task waiting.
func (q Queue) Ready(t Task) bool {
	if t.Complete {
		return false
	}
	for _, p := range t.Prerequisites {
		if !q.satisfied(t.ID, p) {
			return false
		}
	}
	return true
}

// Next returns the ready task with the lowest id.
func (q Queue) Next() (Task, bool) {
	for _, t := range q.tasks {
		if q.Ready(t) {
			return t, true
		}
	}
	return Task{}, false
}

// Pending reports whether any incomplete task matches ref by key or name.
func (q Queue) Pending(ref string) bool {
	for _, t := range q.tasks {
		if !t.Complete && t.matches(ref) {
			return true
		}
	}
	return false
}

// Exists reports whether any task, complete or not, matches ref.
func (q Queue) Exists(ref string) bool {
	for _, t := range q.tasks {
		if t.matches(ref) {
			return true
		}
	}
	return false
}

// Unresolved returns the incomplete tasks in id order.
func (q Queue) Unresolved() []Task {
	var out []Task
	for _, t := range q.tasks {
		if !t.Complete {
			out = append(out, t)
		}
	}
	return out
}

func (q Queue) satisfied(self int, ref string) bool {
	found := false
	for _, t := range q.tasks {
		if t.ID == self || !t.matches(ref) {
			continue
		}
		if !t.Complete {
			return false
		}
		found = true
	}
	return found
}

func (q Queue) index(id int) int {
	for i, t := range q.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (q Queue) clone() Queue {
	return Queue{tasks: append([]Task(nil), q.tasks...), lastID: q.lastID}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
