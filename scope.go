package callback

import (
	"context"
	"sync"
)

// Scope is the structured runtime engine. A started Scope owns a single
// worker goroutine that executes submitted tasks serially; the token
// carried on a context is the cross-goroutine primitive for reaching an
// active run from synchronous code.
//
// Bridging prefers an active run: when the caller's context carries a
// token (the caller attached one, or the caller is code the Scope is
// driving), the task is submitted to the run's worker. When no run is
// reachable, the Scope falls back to a fresh run for just that task.
type Scope struct {
	mu      sync.Mutex
	jobs    chan scopeJob
	stopped chan struct{}
	wg      sync.WaitGroup
}

type scopeJob struct {
	ctx  context.Context
	task *Task
	done chan struct{}
}

// NewScope creates a Scope. Tasks can be driven before Start is called;
// they each get a fresh single-task run.
func NewScope() *Scope {
	return &Scope{}
}

// Start launches the scope's worker goroutine.
func (s *Scope) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs != nil {
		return
	}
	s.jobs = make(chan scopeJob)
	s.stopped = make(chan struct{})
	s.wg.Add(1)
	go s.serve(s.jobs, s.stopped)
}

// Stop shuts the worker down and waits for it. In-flight tasks finish
// first; later bridges fall back to fresh runs.
func (s *Scope) Stop() {
	s.mu.Lock()
	if s.jobs == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopped)
	s.jobs = nil
	s.stopped = nil
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scope) serve(jobs chan scopeJob, stopped chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case job := <-jobs:
			job.task.Exec(s.mark(job.ctx, true))
			close(job.done)
		case <-stopped:
			return
		}
	}
}

// Attach returns a context carrying the scope's token. Dispatches made
// with the returned context bridge scope tasks into the active run.
func (s *Scope) Attach(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeTokenKey{}, s)
}

// Kind implements Runtime.
func (s *Scope) Kind() RuntimeKind { return RuntimeScope }

// RunSync implements Runtime.
func (s *Scope) RunSync(ctx context.Context, t *Task) {
	// Submitting to our own worker from the worker itself would
	// deadlock, which is the same condition that makes the in-run
	// primitive unusable; fall back to a fresh run.
	if tok, ok := ctx.Value(scopeTokenKey{}).(*Scope); ok && tok == s && !onScopeWorker(ctx) {
		s.mu.Lock()
		jobs := s.jobs
		stopped := s.stopped
		s.mu.Unlock()
		if jobs != nil {
			job := scopeJob{ctx: ctx, task: t, done: make(chan struct{})}
			select {
			case jobs <- job:
				<-job.done
				return
			case <-stopped:
			}
		}
	}

	s.freshRun(ctx, t)
}

// freshRun drives a single task on a private goroutine, joined before
// returning.
func (s *Scope) freshRun(ctx context.Context, t *Task) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.Exec(s.mark(ctx, false))
	}()
	<-done
}

// mark prepares the context a task body sees: the scope is the active
// runtime, its token is attached so nested dispatches find the run, and
// worker-goroutine execution is flagged to keep nested submits from
// deadlocking.
func (s *Scope) mark(ctx context.Context, onWorker bool) context.Context {
	ctx = markActive(s.Attach(ctx), RuntimeScope)
	if onWorker {
		ctx = context.WithValue(ctx, scopeWorkerKey{}, true)
	}
	return ctx
}

type (
	scopeTokenKey  struct{}
	scopeWorkerKey struct{}
)

func onScopeWorker(ctx context.Context) bool {
	v, _ := ctx.Value(scopeWorkerKey{}).(bool)
	return v
}
