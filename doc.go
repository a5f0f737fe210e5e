// Package callback dispatches native-engine verification callbacks to
// user-supplied handler functions of arbitrary shape.
//
// During contract verification, the native engine calls back into the
// test process over a small local HTTP server: once per provider state
// to set it up or tear it down, and once per message interaction to
// produce the message. The handlers behind those callbacks are ordinary
// user functions with any parameter list and any runtime model, and this
// package's job is to call them correctly from a synchronous call site
// without the caller knowing anything about their signature.
//
// # Quick Start
//
// Declare a handler with its parameter names and apply arguments to it:
//
//	h, err := callback.NewHandler(
//	    func(state, action string, parameters map[string]any) error {
//	        // set up or tear down the provider state
//	        return nil
//	    },
//	    callback.Params(callback.P("state"), callback.P("action"), callback.P("parameters")),
//	)
//
//	result, err := callback.ApplyArgs(ctx, h, callback.Args{
//	    "state":      "user exists",
//	    "action":     "setup",
//	    "parameters": map[string]any{"id": 123},
//	})
//
// ApplyArgs is the single entry point: the same call works whether the
// handler is synchronous or returns a Task, and whichever runtime the
// task is written for.
//
// # Argument Binding
//
// Go reflection cannot recover parameter names, so handlers declare
// them with Params. Binding then matches the Args mapping onto the
// declared parameters in order:
//
//   - A required parameter with no matching entry is reported through
//     the OnBindWarning hook, and the call itself fails with
//     MissingArgumentError, the same outcome as calling the handler
//     directly with the argument missing.
//   - A parameter with a default (Param.WithDefault) is optional.
//   - A var-keyword parameter (KwRest) receives every entry not claimed
//     by a named parameter.
//   - Entries matching no parameter are dropped with a debug note; the
//     handler simply did not request them.
//
// # Tasks and Runtimes
//
// A handler that must run asynchronously returns a *Task: a deferred
// function the dispatcher drives to completion before returning, so
// callers always get a plain value or error. Tasks may be written for
// one of three mutually incompatible engines (the default loop, a
// structured Scope, or a Kernel) and the dispatcher picks the engine
// by explicit tag, by the runtime active on the calling goroutine, or
// by declared hints, in that order.
//
//	h, _ := callback.NewHandler(func() *callback.Task {
//	    return callback.NewTask(func(ctx context.Context) (any, error) {
//	        return produceMessage(ctx)
//	    }, callback.TaskRuntime(callback.RuntimeScope))
//	})
//
//	d := callback.New(callback.WithRuntimeEngine(scope))
//	result, err := d.ApplyArgs(ctx, h, callback.Args{})
//
// Driving a task classified for an engine that was never installed
// fails with RuntimeNotInstalledError rather than silently falling back
// to the loop engine: running a task under the wrong engine risks
// deadlock or wrong semantics.
//
// Context values present on the dispatching call are visible inside the
// task wherever its engine runs it; values the task derives internally
// cannot leak back to the caller.
//
// # Callback Server
//
// Router and Server adapt the native engine's HTTP callbacks into
// dispatches. Sources discriminate the request shapes (state-change
// bodies carry "state" and "action", message-production bodies carry
// "description") and parse them into Args:
//
//	r := callback.NewRouter(d)
//	r.AddSource(callback.StateSource())
//	r.AddSource(callback.MessageSource())
//	r.SetFallback(stateHandler)
//	r.Register("a user named alice", aliceHandler)
//
//	srv := callback.NewServer(r)
//	if err := srv.Start(); err != nil { ... }
//	defer srv.Stop(ctx)
//	// point the native engine at srv.URL()
//
// The server serializes dispatches: one callback completes before the
// next begins, matching the engine's synchronous callback contract.
//
// # Error Handling
//
// The dispatcher adds no wrapping of handler errors; callers see
// exactly what calling the handler directly would have produced, and a
// handler panic propagates as a panic even when the task ran on another
// goroutine. Bind diagnostics are advisory and never replace the real
// failure.
//
// # Thread Safety
//
// Dispatcher and Router are safe for concurrent use after
// configuration. Independent dispatches may run concurrently; nothing
// in this package shares mutable state between them.
package callback
