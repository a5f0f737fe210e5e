package callback

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Handler wraps a user-supplied function together with the parameter
// descriptor used to bind Args onto it. Handlers carry no base class or
// registration machinery beyond the descriptor and an optional runtime
// tag; the wrapped function keeps its natural signature.
//
// A handler function may optionally take a context.Context as its first
// parameter. The remaining parameters are described, in order, by the
// declared Params. Supported return shapes are: nothing, a single
// value, an error, or a value and an error. A returned *Task marks the
// handler as asynchronous; the dispatcher drives it to completion
// before returning.
type Handler struct {
	fn     reflect.Value
	name   string
	params []Param
	rt     RuntimeKind

	takesCtx bool
	in       []reflect.Type
	variadic bool
	outVal   bool
	outErr   bool
}

// HandlerOption configures a Handler at construction.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	name   string
	params []Param
	rt     RuntimeKind
}

// Params declares the handler's parameters in declaration order.
func Params(params ...Param) HandlerOption {
	return func(c *handlerConfig) {
		c.params = params
	}
}

// WithRuntime tags the handler with the runtime its tasks are written
// for. A tagged handler is never classified heuristically.
func WithRuntime(kind RuntimeKind) HandlerOption {
	return func(c *handlerConfig) {
		c.rt = kind
	}
}

// WithName overrides the handler name used in diagnostics. The default
// is the function's symbol name.
func WithName(name string) HandlerOption {
	return func(c *handlerConfig) {
		c.name = name
	}
}

// NewHandler wraps fn for dispatch, validating the declared parameters
// against the function's reflected signature.
func NewHandler(fn any, opts ...HandlerOption) (*Handler, error) {
	if fn == nil {
		return nil, fmt.Errorf("callback: handler function is nil")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("callback: handler must be a func, got %T", fn)
	}

	var cfg handlerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Handler{
		fn:     v,
		name:   cfg.name,
		params: cfg.params,
		rt:     cfg.rt,
	}
	if h.name == "" {
		h.name = funcName(v)
	}

	start := 0
	if t.NumIn() > 0 && t.In(0) == ctxType {
		h.takesCtx = true
		start = 1
	}
	for i := start; i < t.NumIn(); i++ {
		h.in = append(h.in, t.In(i))
	}
	h.variadic = t.IsVariadic()

	if err := validateParams(h.params, h.in, h.variadic); err != nil {
		return nil, fmt.Errorf("callback: handler %s: %w", h.name, err)
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errType {
			h.outErr = true
		} else {
			h.outVal = true
		}
	case 2:
		if t.Out(1) != errType {
			return nil, fmt.Errorf("callback: handler %s: second return value must be error, got %s", h.name, t.Out(1))
		}
		h.outVal = true
		h.outErr = true
	default:
		return nil, fmt.Errorf("callback: handler %s: too many return values (%d)", h.name, t.NumOut())
	}

	return h, nil
}

// Func wraps a plain function whose parameters are all
// positional-or-keyword, named in order. It panics on an invalid
// descriptor, making it convenient for test and setup code:
//
//	h := callback.Func(func(a, b int) int { return a + b }, "a", "b")
func Func(fn any, names ...string) *Handler {
	params := make([]Param, len(names))
	for i, n := range names {
		params[i] = P(n)
	}
	h, err := NewHandler(fn, Params(params...))
	if err != nil {
		panic(err)
	}
	return h
}

// Name returns the handler's diagnostic name.
func (h *Handler) Name() string { return h.name }

// Runtime returns the handler's declared runtime tag, or
// RuntimeUnspecified when none was declared.
func (h *Handler) Runtime() RuntimeKind { return h.rt }

// MissingArgumentError reports that a required parameter had no value.
// It is produced by the call itself, after the binder has already
// issued its warning, so dispatch fails the same way a direct call
// with a missing argument would.
type MissingArgumentError struct {
	Handler string
	Param   string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("handler %s: missing required argument %q", e.Handler, e.Param)
}

// ArgumentTypeError reports that a bound value cannot be passed to its
// parameter.
type ArgumentTypeError struct {
	Handler string
	Param   string
	Value   any
	Want    reflect.Type
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("handler %s: argument %q: cannot use %T as %s", e.Handler, e.Param, e.Value, e.Want)
}

// invoke calls the wrapped function with the bound arguments. The
// result is whatever the function produced: its value, its error, or a
// panic surfacing exactly as a direct call would.
func (h *Handler) invoke(ctx context.Context, bc BoundCall) (any, error) {
	hasVarPos := h.variadic
	positional := func(k Kind) bool {
		if hasVarPos {
			return k == PositionalOnly || k == PositionalOrKeyword
		}
		return k == PositionalOnly
	}

	args := make([]reflect.Value, 0, len(h.in)+1)
	if h.takesCtx {
		args = append(args, reflect.ValueOf(ctx))
	}

	pi := 0
	for i, p := range h.params {
		want := h.in[i]
		switch {
		case p.Kind == VarPositional:
			// The variadic slot absorbs nothing from Args; it stays
			// empty and the call proceeds with no trailing values.
			continue
		case p.Kind == VarKeyword:
			m := reflect.MakeMap(want)
			for k, v := range bc.Extra {
				m.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(&v).Elem())
			}
			args = append(args, m)
		case positional(p.Kind):
			if bc.unbound[pi] {
				return nil, &MissingArgumentError{Handler: h.name, Param: p.Name}
			}
			av, err := h.convert(p, bc.Positional[pi], want)
			if err != nil {
				return nil, err
			}
			args = append(args, av)
			pi++
		default:
			v, ok := bc.Keyword[p.Name]
			if !ok {
				return nil, &MissingArgumentError{Handler: h.name, Param: p.Name}
			}
			av, err := h.convert(p, v, want)
			if err != nil {
				return nil, err
			}
			args = append(args, av)
		}
	}

	out := h.fn.Call(args)

	var result any
	var err error
	if h.outVal {
		result = out[0].Interface()
	}
	if h.outErr {
		last := out[len(out)-1]
		if !last.IsNil() {
			err = last.Interface().(error)
		}
	}
	return result, err
}

// convert adapts a bound value to the parameter's declared type,
// allowing direct assignment or a standard Go conversion (so JSON
// numbers decoded as float64 can feed an int parameter).
func (h *Handler) convert(p Param, v any, want reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(want), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(want) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(want) {
		return rv.Convert(want), nil
	}
	return reflect.Value{}, &ArgumentTypeError{Handler: h.name, Param: p.Name, Value: v, Want: want}
}

func funcName(v reflect.Value) string {
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		name := f.Name()
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return "func"
}

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)
