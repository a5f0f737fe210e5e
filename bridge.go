package callback

import (
	"context"
	"errors"
	"fmt"
)

// ErrTaskAlreadyStarted is returned when a task that has already been
// driven is bridged again. A task runs at most once.
var ErrTaskAlreadyStarted = errors.New("task has already been started")

// runSync drives a task to completion under the given engine and
// returns its outcome. The calling goroutine blocks for the whole
// duration; any helper goroutine the engine spawns is finished before
// runSync returns.
//
// A panic inside the task body is re-raised here, on the goroutine that
// requested the dispatch, so a panicking asynchronous handler behaves
// exactly like a panicking synchronous one.
func runSync(ctx context.Context, t *Task, rt Runtime) (any, error) {
	if t == nil {
		return nil, errors.New("task is nil")
	}
	if t.State() != TaskNotStarted {
		return nil, ErrTaskAlreadyStarted
	}

	rt.RunSync(ctx, t)

	if t.panicked {
		panic(t.panicVal)
	}

	switch t.State() {
	case TaskCompleted:
		return t.value, nil
	case TaskFailed:
		return nil, t.err
	default:
		return nil, fmt.Errorf("runtime %q returned with task still %s", rt.Kind(), t.State())
	}
}
