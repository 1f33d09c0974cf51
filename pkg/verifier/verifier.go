// Package verifier runs the Open Badges verification pipeline: it seeds a
// task queue from the input, drains it one task at a time and builds the
// report from the final state.
package verifier

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/capiscio/badgecheck/pkg/jsonld"
	"github.com/capiscio/badgecheck/pkg/loader"
	"github.com/capiscio/badgecheck/pkg/report"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

// Verifier verifies Open Badges. It is safe for concurrent use; each call
// gets its own state, fetch cache and context loader.
type Verifier struct {
	config *Config
}

// New creates a Verifier. A nil config uses DefaultConfig.
func New(config *Config) *Verifier {
	defaults := DefaultConfig()
	if config == nil {
		return &Verifier{config: defaults}
	}
	c := *config
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaults.HTTPTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
	if c.MaxValidationDepth <= 0 {
		c.MaxValidationDepth = defaults.MaxValidationDepth
	}
	if c.Logger.GetSink() == nil {
		c.Logger = defaults.Logger
	}
	if c.SchemaValidator == nil {
		c.SchemaValidator = defaults.SchemaValidator
	}
	if c.Now == nil {
		c.Now = defaults.Now
	}
	return &Verifier{config: &c}
}

// Verify verifies a badge given as a URL, a JSON document or a compact JWS.
// Problems with the badge are reported in the result; the error is
// non-nil only when ctx ends before the run completes.
func (v *Verifier) Verify(ctx context.Context, input string, opts VerifyOptions) (*report.Result, error) {
	return v.verify(ctx, state.Input{Value: input}, opts)
}

// VerifyFile verifies a badge read from a file: a baked PNG or SVG image,
// or any of the textual forms Verify accepts.
func (v *Verifier) VerifyFile(ctx context.Context, data []byte, opts VerifyOptions) (*report.Result, error) {
	return v.verify(ctx, state.Input{Data: data, Type: state.InputFile}, opts)
}

func (v *Verifier) verify(ctx context.Context, input state.Input, opts VerifyOptions) (*report.Result, error) {
	r := v.newRun(input, opts)
	r.log.V(1).Info("starting verification", "inputType", input.Type)

	if err := r.store.Dispatch(addTask(tasks.DetectInputType{})); err != nil {
		return nil, fmt.Errorf("failed to seed task queue: %w", err)
	}
	if err := r.drain(ctx); err != nil {
		return nil, err
	}

	result := report.Build(r.store.State())
	r.log.Info("verification finished",
		"subject", result.Report.ValidationSubject,
		"valid", result.Report.Valid,
		"errors", result.Report.ErrorCount,
		"warnings", result.Report.WarningCount)
	return result, nil
}

// run is the per-call context handlers execute in.
type run struct {
	config    *Config
	store     *state.Store
	fetcher   loader.Fetcher
	compactor *jsonld.Compactor
	log       logr.Logger
	maxDepth  int
	now       time.Time
}

func (v *Verifier) newRun(input state.Input, opts VerifyOptions) *run {
	fetcher := v.config.Fetcher
	if fetcher == nil {
		fetcher = loader.NewHTTPFetcher(v.config.HTTPTimeout, v.config.UserAgent)
	}
	if v.config.CacheEnabled {
		cache := v.config.Cache
		if cache == nil {
			cache = loader.NewMemoryCache()
		}
		fetcher = loader.NewCachingFetcher(fetcher, cache, v.config.CacheTTL)
	}

	maxDepth := v.config.MaxValidationDepth
	if opts.MaxValidationDepth > 0 {
		maxDepth = opts.MaxValidationDepth
	}

	return &run{
		config:    v.config,
		store:     state.NewStore(state.New(input, opts.RecipientProfile)),
		fetcher:   fetcher,
		compactor: jsonld.NewCompactor(fetcher),
		log:       v.config.Logger.WithValues("run", uuid.NewString()),
		maxDepth:  maxDepth,
		now:       v.config.Now(),
	}
}

// drain executes ready tasks, lowest id first, until none is left.
func (r *run) drain(ctx context.Context) error {
	return r.loop(ctx, func(st state.State, task tasks.Task) {
		r.apply(st, task, r.execute(ctx, st, task))
	})
}

// loop hands the next ready task to step until no task is ready. It stops
// early when step leaves the same task ready again.
func (r *run) loop(ctx context.Context, step func(state.State, tasks.Task)) error {
	lastID := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := r.store.State()
		task, ok := st.Tasks.Next()
		if !ok {
			if pending := st.Tasks.Unresolved(); len(pending) > 0 {
				r.log.V(1).Info("tasks left waiting on prerequisites", "count", len(pending))
			}
			return nil
		}
		if task.ID == lastID {
			r.log.Error(nil, "task queue stalled", "task", task.Name, "id", task.ID)
			return nil
		}
		lastID = task.ID

		step(st, task)
	}
}

// execute runs one handler, converting a panic into an unexpected failure.
func (r *run) execute(ctx context.Context, st state.State, task tasks.Task) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error(fmt.Errorf("%v", p), "task handler panicked",
				"task", task.Name, "id", task.ID, "stack", string(debug.Stack()))
			out = Failed{Err: NewError(ErrCodeUnexpected, fmt.Sprintf("unexpected error in %s: %v", task.Name, p))}
		}
	}()
	r.log.V(2).Info("running task", "task", task.Name, "id", task.ID, "node", task.NodeID())
	return r.handle(ctx, st, task)
}

// apply records a handler outcome. The task is resolved before its actions
// are applied so that tasks it spawns see it complete.
func (r *run) apply(st state.State, task tasks.Task, outcome Outcome) {
	switch o := outcome.(type) {
	case Done:
		level := o.Level
		if level == "" {
			level = tasks.LevelError
		}
		if !o.Success && level == tasks.LevelError {
			r.log.V(1).Info("check failed", "task", task.Name, "id", task.ID, "code", ErrCodeValidationFailed, "result", o.Message)
		}
		r.dispatch(task, state.ResolveTask{ID: task.ID, Success: o.Success, Result: o.Message, Level: level})
		for _, a := range o.Actions {
			r.dispatch(task, a)
		}
	case Blocked:
		if task.Deferrals < maxDeferrals && othersPending(st, task) {
			on := make([]string, 0, len(o.On))
			for _, key := range o.On {
				if st.Tasks.Pending(key) {
					on = append(on, key)
				}
			}
			r.log.V(2).Info("deferring task", "task", task.Name, "id", task.ID, "on", on)
			r.dispatch(task, state.DeferTask{ID: task.ID, On: on})
			return
		}
		err := WrapError(ErrCodePrerequisiteUnmet, ErrPrerequisiteUnmet.Message, o.Err)
		r.dispatch(task, state.ResolveTask{ID: task.ID, Result: message(err), Level: tasks.LevelError})
	case Failed:
		r.log.V(1).Info("task failed", "task", task.Name, "id", task.ID, "code", GetErrorCode(o.Err), "error", o.Err.Error())
		r.dispatch(task, state.ResolveTask{ID: task.ID, Result: message(o.Err), Level: tasks.LevelError})
	default:
		r.dispatch(task, state.ResolveTask{ID: task.ID, Result: fmt.Sprintf("unexpected error in %s: no outcome", task.Name), Level: tasks.LevelError})
	}
}

func (r *run) dispatch(task tasks.Task, a state.Action) {
	if err := r.store.Dispatch(a); err != nil {
		r.log.Error(err, "failed to apply action", "action", a.Kind(), "task", task.Name, "id", task.ID)
	}
}

// othersPending reports whether any task besides t may still change state.
func othersPending(st state.State, t tasks.Task) bool {
	for _, other := range st.Tasks.Unresolved() {
		if other.ID != t.ID {
			return true
		}
	}
	return false
}

func message(err error) string {
	verr, ok := AsError(err)
	if !ok {
		return err.Error()
	}
	if verr.Cause != nil {
		return fmt.Sprintf("%s: %v", verr.Message, verr.Cause)
	}
	return verr.Message
}
