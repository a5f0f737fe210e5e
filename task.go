package callback

import (
	"context"
	"sync/atomic"
)

// TaskState tracks a task through its lifecycle.
type TaskState int32

const (
	TaskNotStarted TaskState = iota
	TaskRunning
	TaskCompleted
	TaskFailed
)

// String returns the state name used in diagnostics.
func (s TaskState) String() string {
	switch s {
	case TaskNotStarted:
		return "not-started"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TaskFunc is the deferred body of a Task.
type TaskFunc func(ctx context.Context) (any, error)

// Task is a not-yet-driven unit of asynchronous work: the analogue of a
// suspended coroutine. A handler returns a Task when its work must run
// under a particular runtime; the dispatcher classifies the task and
// drives it to completion before returning, so a Task never escapes a
// dispatch.
//
// A Task runs at most once. Its context values come from the caller of
// the dispatch, even when the runtime executes the task on another
// goroutine.
type Task struct {
	fn    TaskFunc
	rt    RuntimeKind
	hints []RuntimeKind

	state atomic.Int32

	value    any
	err      error
	panicked bool
	panicVal any
}

// TaskOption configures a Task at construction.
type TaskOption func(*Task)

// TaskRuntime tags the task with the runtime it is written for. A
// tagged task is never classified heuristically.
func TaskRuntime(kind RuntimeKind) TaskOption {
	return func(t *Task) {
		t.rt = kind
	}
}

// TaskHint records that the task's body uses primitives of the given
// runtime. Hints are weaker than a TaskRuntime tag: they are only
// consulted when neither the task nor its handler declares a runtime
// and no runtime is active on the calling goroutine. When hints for
// both the scope and kernel runtimes are present, the scope runtime
// wins; the tie-break is stable and documented, not inferred.
func TaskHint(kind RuntimeKind) TaskOption {
	return func(t *Task) {
		t.hints = append(t.hints, kind)
	}
}

// NewTask wraps fn as a task for the dispatcher to drive.
func NewTask(fn TaskFunc, opts ...TaskOption) *Task {
	t := &Task{fn: fn}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// Exec runs the task body on the calling goroutine and records its
// outcome. Runtime implementations call Exec exactly once, on whatever
// goroutine they schedule the task; a second call is a no-op. A panic
// in the body is captured so the bridge can re-raise it on the
// goroutine that requested the dispatch.
func (t *Task) Exec(ctx context.Context) {
	if !t.state.CompareAndSwap(int32(TaskNotStarted), int32(TaskRunning)) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.panicked = true
			t.panicVal = r
			t.state.Store(int32(TaskFailed))
		}
	}()
	t.value, t.err = t.fn(ctx)
	if t.err != nil {
		t.state.Store(int32(TaskFailed))
	} else {
		t.state.Store(int32(TaskCompleted))
	}
}
