package callback

import "context"

// loopRuntime is the default engine. A task normally runs inline on the
// calling goroutine with an ephemeral loop created and torn down around
// it. When the caller is itself inside a loop-driven task (reentrant
// dispatch from asynchronous code), running inline would nest two loops
// on one goroutine, so the task is handed to a private worker goroutine
// with a fresh loop instead. The worker is created and joined within
// the one call; the caller's context values flow into it unchanged.
type loopRuntime struct{}

func (loopRuntime) Kind() RuntimeKind { return RuntimeLoop }

func (loopRuntime) RunSync(ctx context.Context, t *Task) {
	if activeRuntime(ctx) == RuntimeLoop {
		done := make(chan struct{})
		go func() {
			defer close(done)
			t.Exec(markActive(ctx, RuntimeLoop))
		}()
		<-done
		return
	}
	t.Exec(markActive(ctx, RuntimeLoop))
}
