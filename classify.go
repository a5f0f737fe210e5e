package callback

import "context"

// classify decides which runtime should drive a task. Exactly one
// decision is made per task.
//
// Precedence:
//
//  1. An explicit TaskRuntime tag, then an explicit handler WithRuntime
//     tag. Declared intent always wins.
//  2. The runtime already driving the calling goroutine, for the scope
//     and kernel engines: a dispatch nested inside their code almost
//     always produces tasks for the same engine.
//  3. TaskHint declarations, with the scope runtime taking precedence
//     over the kernel runtime when both were hinted.
//  4. The loop runtime.
//
// Hints are approximate by nature; a task with no usable hint falls
// through to the loop engine rather than failing here. Tag the task or
// handler explicitly when the default is wrong.
func classify(ctx context.Context, h *Handler, t *Task) RuntimeKind {
	if t.rt != RuntimeUnspecified {
		return t.rt
	}
	if h != nil && h.rt != RuntimeUnspecified {
		return h.rt
	}

	if k := activeRuntime(ctx); k == RuntimeScope || k == RuntimeKernel {
		return k
	}

	var scope, kernel bool
	for _, hint := range t.hints {
		switch hint {
		case RuntimeScope:
			scope = true
		case RuntimeKernel:
			kernel = true
		}
	}
	if scope {
		return RuntimeScope
	}
	if kernel {
		return RuntimeKernel
	}

	return RuntimeLoop
}
