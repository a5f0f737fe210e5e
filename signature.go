package callback

import (
	"fmt"
	"reflect"
)

// Kind describes how a handler parameter may receive its value.
//
// Kinds mirror the binding rules of dynamic callback interfaces: most
// parameters are PositionalOrKeyword, a trailing variadic parameter is
// VarPositional, and a trailing map[string]any parameter declared as
// VarKeyword absorbs every argument not claimed by a named parameter.
type Kind uint8

const (
	// PositionalOrKeyword parameters are matched from Args by name and
	// bound in declaration order. This is the default kind.
	PositionalOrKeyword Kind = iota

	// PositionalOnly parameters are matched by name but always bound
	// positionally, even when the signature has a variadic tail.
	PositionalOnly

	// KeywordOnly parameters are matched by name and never shifted to a
	// positional slot.
	KeywordOnly

	// VarPositional marks the handler's variadic parameter. It has no
	// name to match against Args; it only absorbs values already bound
	// positionally ahead of it.
	VarPositional

	// VarKeyword marks a trailing map[string]any parameter that receives
	// every Args entry not consumed by a named parameter.
	VarKeyword
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case PositionalOrKeyword:
		return "positional-or-keyword"
	case PositionalOnly:
		return "positional-only"
	case KeywordOnly:
		return "keyword-only"
	case VarPositional:
		return "var-positional"
	case VarKeyword:
		return "var-keyword"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Param declares a single handler parameter: its binding name, kind, and
// optional default value. Go reflection does not expose parameter names,
// so handlers declare them explicitly when they are registered.
type Param struct {
	Name string
	Kind Kind

	def    any
	hasDef bool
}

// P declares a positional-or-keyword parameter.
func P(name string) Param {
	return Param{Name: name, Kind: PositionalOrKeyword}
}

// PosOnly declares a positional-only parameter.
func PosOnly(name string) Param {
	return Param{Name: name, Kind: PositionalOnly}
}

// KwOnly declares a keyword-only parameter.
func KwOnly(name string) Param {
	return Param{Name: name, Kind: KeywordOnly}
}

// Rest declares the handler's variadic parameter. It must be last among
// value parameters and the handler func must be variadic.
func Rest() Param {
	return Param{Name: "*", Kind: VarPositional}
}

// KwRest declares a trailing map[string]any parameter that collects all
// unclaimed arguments.
func KwRest(name string) Param {
	return Param{Name: name, Kind: VarKeyword}
}

// WithDefault returns a copy of the parameter carrying a default value.
// A parameter with a default is optional: when its name is absent from
// Args, the default is bound instead.
func (p Param) WithDefault(v any) Param {
	p.def = v
	p.hasDef = true
	return p
}

// optional reports whether the parameter may be left unbound without a
// diagnostic.
func (p Param) optional() bool {
	return p.hasDef || p.Kind == VarPositional || p.Kind == VarKeyword
}

// matches reports whether the parameter should receive the Args entry
// under key. A parameter declared with a leading underscore also matches
// the key with the underscore stripped, so wrapper signatures like
// func(_name string) still bind the "name" entry. The bare placeholder
// "_" matches only the literal "_" key: stripping it would leave the
// empty string, which must not be treated as a key.
func (p Param) matches(key string) bool {
	if p.Name == "" {
		return false
	}
	if p.Name == key {
		return true
	}
	return len(p.Name) > 1 && p.Name[0] == '_' && p.Name[1:] == key
}

// validateParams checks a parameter list against the reflected handler
// type. in holds the value parameter types, after any leading
// context.Context has been stripped.
func validateParams(params []Param, in []reflect.Type, variadic bool) error {
	if len(params) != len(in) {
		return fmt.Errorf("declared %d parameter(s) but handler takes %d", len(params), len(in))
	}

	seen := make(map[string]struct{}, len(params))
	for i, p := range params {
		switch p.Kind {
		case VarPositional:
			if i != len(params)-1 {
				return fmt.Errorf("var-positional parameter must be last, got position %d", i)
			}
			if !variadic {
				return fmt.Errorf("var-positional parameter declared but handler is not variadic")
			}
		case VarKeyword:
			if i != len(params)-1 {
				return fmt.Errorf("var-keyword parameter %q must be last, got position %d", p.Name, i)
			}
			if !isArgsMap(in[i]) {
				return fmt.Errorf("var-keyword parameter %q must have type map[string]any, got %s", p.Name, in[i])
			}
		default:
			if p.Name == "" {
				return fmt.Errorf("parameter %d has no name", i)
			}
		}

		if variadic && i == len(params)-1 && p.Kind != VarPositional {
			return fmt.Errorf("handler is variadic but last parameter %q is %s", p.Name, p.Kind)
		}

		if p.Name != "" && p.Name != "_" && p.Name != "*" {
			if _, dup := seen[p.Name]; dup {
				return fmt.Errorf("duplicate parameter name %q", p.Name)
			}
			seen[p.Name] = struct{}{}
		}

		if p.hasDef && p.def != nil {
			dv := reflect.TypeOf(p.def)
			want := in[i]
			if variadic && i == len(params)-1 {
				want = want.Elem()
			}
			if !dv.AssignableTo(want) && !dv.ConvertibleTo(want) {
				return fmt.Errorf("default for parameter %q has type %s, want %s", p.Name, dv, want)
			}
		}
	}
	return nil
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// isArgsMap reports whether a type can hold an Args value: any map with
// string keys and interface values.
func isArgsMap(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String && t.Elem() == anyType
}
