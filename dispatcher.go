package callback

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Dispatcher applies Args to handlers. It is the single entry point for
// native-callback call sites: the same call works for synchronous
// handlers, for handlers returning tasks, and for every runtime, so
// callers never special-case any of it.
//
// Dispatcher is safe for concurrent use after configuration. A
// Dispatcher holds no per-dispatch state; everything created during a
// dispatch is discarded when it returns.
type Dispatcher struct {
	log      *zap.Logger
	runtimes map[RuntimeKind]Runtime
	hooks    dispatchHooks
}

// New creates a Dispatcher with the given options.
//
// Example:
//
//	d := callback.New(
//	    callback.WithLogger(logger),
//	    callback.WithRuntimeEngine(scope),
//	    callback.WithOnFailure(func(ctx context.Context, handler string, err error, d time.Duration) {
//	        logger.Error("handler failed", zap.String("handler", handler), zap.Error(err))
//	    }),
//	)
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log: zap.NewNop(),
		runtimes: map[RuntimeKind]Runtime{
			RuntimeLoop: loopRuntime{},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ApplyArgs binds available onto the handler's parameters, invokes it,
// and returns what the call produced. If the handler returns a *Task,
// the task is classified and driven to completion first; the task
// itself never escapes.
//
// The returned error is exactly what calling the handler directly would
// have produced: handler errors are never wrapped, and a handler panic
// propagates as a panic.
func (d *Dispatcher) ApplyArgs(ctx context.Context, h *Handler, available Args) (any, error) {
	bc := bind(h.params, available)

	for _, param := range bc.Missing {
		d.log.Warn("handler appears to have a required parameter that will not be passed",
			zap.String("handler", h.name),
			zap.String("param", param),
		)
		for _, fn := range d.hooks.onBindWarning {
			fn(ctx, h.name, param)
		}
	}

	if len(bc.Dropped) > 0 {
		d.log.Debug("arguments matched no handler parameter",
			zap.String("handler", h.name),
			zap.Strings("keys", bc.Dropped),
		)
		for _, fn := range d.hooks.onDropped {
			fn(ctx, h.name, bc.Dropped)
		}
	}

	for _, fn := range d.hooks.onDispatch {
		fn(ctx, h.name)
	}

	start := time.Now()
	result, err := h.invoke(ctx, bc)

	if err == nil {
		if t, ok := result.(*Task); ok && t != nil {
			result, err = d.bridge(ctx, h, t)
		}
	}

	duration := time.Since(start)
	if err != nil {
		d.log.Debug("dispatch failed",
			zap.String("handler", h.name),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		for _, fn := range d.hooks.onFailure {
			fn(ctx, h.name, err, duration)
		}
	} else {
		for _, fn := range d.hooks.onSuccess {
			fn(ctx, h.name, duration)
		}
	}

	return result, err
}

// bridge classifies a returned task and drives it under the selected
// engine.
func (d *Dispatcher) bridge(ctx context.Context, h *Handler, t *Task) (any, error) {
	kind := classify(ctx, h, t)
	rt, ok := d.runtimes[kind]
	if !ok {
		return nil, &RuntimeNotInstalledError{Kind: kind}
	}
	d.log.Debug("bridging task",
		zap.String("handler", h.name),
		zap.Stringer("runtime", kind),
	)
	return runSync(ctx, t, rt)
}

// defaultDispatcher backs the package-level ApplyArgs. Only the loop
// engine is installed on it.
var defaultDispatcher = New()

// ApplyArgs applies available to the handler using a default
// Dispatcher. Scope and kernel tasks need a Dispatcher configured with
// their engines; use New and WithRuntimeEngine for those.
func ApplyArgs(ctx context.Context, h *Handler, available Args) (any, error) {
	return defaultDispatcher.ApplyArgs(ctx, h, available)
}
