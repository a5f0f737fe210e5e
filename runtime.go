package callback

import (
	"context"
	"fmt"
)

// RuntimeKind identifies which execution engine a task is written for.
// The three engines are independent and mutually incompatible: a task
// built against one must not be driven by another.
type RuntimeKind uint8

const (
	// RuntimeUnspecified means no runtime has been declared; the
	// classifier decides.
	RuntimeUnspecified RuntimeKind = iota

	// RuntimeLoop is the default engine. It runs the task on the
	// calling goroutine, or on a private worker when the caller is
	// itself already inside a loop-driven task.
	RuntimeLoop

	// RuntimeScope is the structured engine: a running Scope owns a
	// worker goroutine and tasks are submitted to it through a token.
	RuntimeScope

	// RuntimeKernel is the kernel engine: a Kernel object drives
	// submitted tasks, with an in-place bridge for code already running
	// under it.
	RuntimeKernel
)

// String returns the runtime name used in diagnostics.
func (k RuntimeKind) String() string {
	switch k {
	case RuntimeUnspecified:
		return "unspecified"
	case RuntimeLoop:
		return "loop"
	case RuntimeScope:
		return "scope"
	case RuntimeKernel:
		return "kernel"
	default:
		return fmt.Sprintf("RuntimeKind(%d)", uint8(k))
	}
}

// Runtime drives tasks to completion on behalf of a synchronous caller.
//
// RunSync must not return until the task has reached a terminal state.
// Implementations choose where the task body executes, but any helper
// goroutine they spawn must be private to the one call and finished
// before RunSync returns.
type Runtime interface {
	// Kind identifies which tasks this engine may drive.
	Kind() RuntimeKind

	// RunSync executes the task and blocks until it completes or fails.
	// The context is the dispatching caller's; its values must be
	// visible to the task body wherever it runs.
	RunSync(ctx context.Context, t *Task)
}

// RuntimeNotInstalledError reports that a task was classified for a
// runtime no engine is configured for. The dispatcher never substitutes
// the loop engine for a missing one: driving a task under the wrong
// engine risks deadlock or wrong semantics.
type RuntimeNotInstalledError struct {
	Kind RuntimeKind
}

func (e *RuntimeNotInstalledError) Error() string {
	return fmt.Sprintf("runtime %q is not installed: configure it with WithRuntimeEngine", e.Kind)
}

// activeKey marks a context as belonging to a goroutine currently
// executing a task under some engine. Engines set it just before
// running a task body so nested dispatches can detect reentrancy.
type activeKey struct{}

// markActive records the engine driving the current execution.
func markActive(ctx context.Context, kind RuntimeKind) context.Context {
	return context.WithValue(ctx, activeKey{}, kind)
}

// activeRuntime reports which engine, if any, is driving the code that
// owns this context.
func activeRuntime(ctx context.Context) RuntimeKind {
	if k, ok := ctx.Value(activeKey{}).(RuntimeKind); ok {
		return k
	}
	return RuntimeUnspecified
}
