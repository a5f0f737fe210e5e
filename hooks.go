package callback

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OnBindWarningFunc is called when binding finds a required parameter
// that no Args entry satisfies. The warning is advisory: the dispatch
// still proceeds, and the call itself produces the real error.
type OnBindWarningFunc func(ctx context.Context, handler, param string)

// OnDroppedFunc is called when Args entries matched no parameter and
// there was no var-keyword parameter to absorb them. Extra entries are
// not necessarily a bug; whether they are acceptable depends on the
// handler's intended usage.
type OnDroppedFunc func(ctx context.Context, handler string, keys []string)

// OnDispatchFunc is called just before the handler executes.
type OnDispatchFunc func(ctx context.Context, handler string)

// OnSuccessFunc is called after a dispatch completes successfully,
// including the bridging of any returned task.
type OnSuccessFunc func(ctx context.Context, handler string, duration time.Duration)

// OnFailureFunc is called after a dispatch fails.
type OnFailureFunc func(ctx context.Context, handler string, err error, duration time.Duration)

// dispatchHooks holds all configured dispatcher hook functions.
type dispatchHooks struct {
	onBindWarning []OnBindWarningFunc
	onDropped     []OnDroppedFunc
	onDispatch    []OnDispatchFunc
	onSuccess     []OnSuccessFunc
	onFailure     []OnFailureFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger. The default is a no-op
// logger; bind diagnostics are invisible without one.
func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithRuntimeEngine installs a runtime engine, keyed by its Kind. The
// loop engine is always installed; the scope and kernel engines are
// reachable only after being installed here, mirroring optional runtime
// packages that may not be present.
func WithRuntimeEngine(rt Runtime) Option {
	return func(d *Dispatcher) {
		d.runtimes[rt.Kind()] = rt
	}
}

// WithOnBindWarning adds a hook called once per missing required
// parameter. Multiple hooks are called in order.
//
// Example:
//
//	callback.WithOnBindWarning(func(ctx context.Context, handler, param string) {
//	    metrics.Incr("callback.bind_warning", "handler:"+handler)
//	})
func WithOnBindWarning(fn OnBindWarningFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onBindWarning = append(d.hooks.onBindWarning, fn)
	}
}

// WithOnDropped adds a hook called when Args entries are dropped.
// Multiple hooks are called in order.
func WithOnDropped(fn OnDroppedFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onDropped = append(d.hooks.onDropped, fn)
	}
}

// WithOnDispatch adds a hook called just before the handler executes.
// Multiple hooks are called in order.
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onDispatch = append(d.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after a dispatch succeeds.
// Multiple hooks are called in order.
//
// Example:
//
//	callback.WithOnSuccess(func(ctx context.Context, handler string, d time.Duration) {
//	    metrics.Timing("callback.success", d, "handler:"+handler)
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onSuccess = append(d.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after a dispatch fails.
// Multiple hooks are called in order.
func WithOnFailure(fn OnFailureFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onFailure = append(d.hooks.onFailure, fn)
	}
}
