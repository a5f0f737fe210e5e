package callback

import (
	"context"
	"sync"
)

// Kernel is the kernel runtime engine. Unlike the Scope, whose bridge
// submits work across goroutines, the Kernel's preferred bridge is
// in-place: code already running under the kernel drives a new task
// directly on its own goroutine, the way a kernel-trap await would.
// Code outside the kernel submits to the kernel's worker when it is
// running, or gets a fresh single-task run when it is not.
type Kernel struct {
	mu      sync.Mutex
	jobs    chan kernelJob
	stopped chan struct{}
	wg      sync.WaitGroup
}

type kernelJob struct {
	ctx  context.Context
	task *Task
	done chan struct{}
}

// NewKernel creates a Kernel.
func NewKernel() *Kernel {
	return &Kernel{}
}

// Start launches the kernel's worker goroutine.
func (k *Kernel) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.jobs != nil {
		return
	}
	k.jobs = make(chan kernelJob)
	k.stopped = make(chan struct{})
	k.wg.Add(1)
	go k.serve(k.jobs, k.stopped)
}

// Stop shuts the worker down and waits for it.
func (k *Kernel) Stop() {
	k.mu.Lock()
	if k.jobs == nil {
		k.mu.Unlock()
		return
	}
	close(k.stopped)
	k.jobs = nil
	k.stopped = nil
	k.mu.Unlock()
	k.wg.Wait()
}

func (k *Kernel) serve(jobs chan kernelJob, stopped chan struct{}) {
	defer k.wg.Done()
	for {
		select {
		case job := <-jobs:
			job.task.Exec(k.mark(job.ctx))
			close(job.done)
		case <-stopped:
			return
		}
	}
}

// Kind implements Runtime.
func (k *Kernel) Kind() RuntimeKind { return RuntimeKernel }

// RunSync implements Runtime.
func (k *Kernel) RunSync(ctx context.Context, t *Task) {
	// In-context bridge: the calling goroutine is already driven by
	// this kernel, so the task runs right here.
	if cur, ok := ctx.Value(kernelKey{}).(*Kernel); ok && cur == k {
		t.Exec(k.mark(ctx))
		return
	}

	k.mu.Lock()
	jobs := k.jobs
	stopped := k.stopped
	k.mu.Unlock()
	if jobs != nil {
		job := kernelJob{ctx: ctx, task: t, done: make(chan struct{})}
		select {
		case jobs <- job:
			<-job.done
			return
		case <-stopped:
		}
	}

	// Fresh kernel run for just this task.
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.Exec(k.mark(ctx))
	}()
	<-done
}

func (k *Kernel) mark(ctx context.Context) context.Context {
	return markActive(context.WithValue(ctx, kernelKey{}, k), RuntimeKernel)
}

type kernelKey struct{}
