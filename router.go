package callback

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrNoSource is returned when no source's discriminator matches a
	// request.
	ErrNoSource = errors.New("no source matched")

	// ErrNoHandler is returned when a request routes to a key with no
	// registered handler and no fallback.
	ErrNoHandler = errors.New("no handler registered")
)

// Router routes native-engine callback requests to registered handlers.
//
// Usage:
//  1. Create a router with NewRouter
//  2. Add sources with AddSource
//  3. Register handlers with Register (or SetFallback)
//  4. Route requests with Dispatch
//
// Router is safe for concurrent use after configuration. Do not call
// AddSource, Register, or SetFallback after calling Dispatch.
type Router struct {
	dispatcher *Dispatcher
	inspector  Inspector
	sources    []Source
	handlers   map[string]*Handler
	fallback   *Handler
	log        *zap.Logger

	// Adaptive ordering: try last successful source first.
	lastMatch atomic.Value // stores string
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithInspector overrides the inspector used for source matching. The
// default is JSONInspector.
func WithInspector(i Inspector) RouterOption {
	return func(r *Router) {
		r.inspector = i
	}
}

// WithRouterLogger sets the router's logger. The default is a no-op
// logger.
func WithRouterLogger(log *zap.Logger) RouterOption {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRouter creates a Router dispatching through d. A nil dispatcher
// gets a default one (loop engine only).
func NewRouter(d *Dispatcher, opts ...RouterOption) *Router {
	if d == nil {
		d = New()
	}
	r := &Router{
		dispatcher: d,
		inspector:  JSONInspector(),
		handlers:   make(map[string]*Handler),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddSource registers a source. Sources are matched using their
// Discriminator, then parsed in registration order.
func (r *Router) AddSource(s Source) {
	r.sources = append(r.sources, s)
}

// Register adds a handler for a routing key: a state name for
// state-change callbacks, a message description for message-production
// callbacks.
func (r *Router) Register(key string, h *Handler) {
	r.handlers[key] = h
}

// SetFallback sets the handler used when no key-specific handler is
// registered. This is how a single function serves every state of a
// provider: the state name still reaches it through its "state"
// parameter.
func (r *Router) SetFallback(h *Handler) {
	r.fallback = h
}

// Dispatch parses the raw request, routes to the matching handler, and
// applies the assembled Args. Entries of extra are merged into the
// parsed Args without overriding parsed values; the server uses this
// for request data that lives outside the body, like message metadata.
//
// The returned value and error are exactly what the handler produced.
// Routing failures are reported as wrapped ErrNoSource / ErrNoHandler.
func (r *Router) Dispatch(ctx context.Context, raw []byte, extra Args) (any, error) {
	source := r.match(raw)
	if source == nil {
		return nil, fmt.Errorf("%w: no source matched request", ErrNoSource)
	}

	cb, err := source.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse failed for source %s: %w", source.Name(), err)
	}

	for k, v := range extra {
		if _, ok := cb.Args[k]; !ok {
			cb.Args[k] = v
		}
	}

	handler := r.handlers[cb.Key]
	if handler == nil {
		handler = r.fallback
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: key %q", ErrNoHandler, cb.Key)
	}

	r.log.Debug("routing callback",
		zap.String("source", source.Name()),
		zap.String("key", cb.Key),
		zap.String("handler", handler.Name()),
	)

	return r.dispatcher.ApplyArgs(ctx, handler, cb.Args)
}

// match finds a source whose discriminator matches the raw request.
// Uses adaptive ordering to try the last successful source first.
func (r *Router) match(raw []byte) Source {
	view, err := r.inspector.Inspect(raw)
	if err != nil {
		return nil
	}

	if v := r.lastMatch.Load(); v != nil {
		if name, ok := v.(string); ok && name != "" {
			for _, src := range r.sources {
				if src.Name() == name && src.Discriminator().Match(view) {
					return src
				}
			}
		}
	}

	for _, src := range r.sources {
		if src.Discriminator().Match(view) {
			r.lastMatch.Store(src.Name())
			return src
		}
	}
	return nil
}
