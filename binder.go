package callback

// Args is the flat name-to-value mapping assembled by a callback source
// from a native engine request. It is a fresh snapshot per dispatch;
// binding never mutates it.
type Args map[string]any

// BoundCall is the result of matching Args onto a handler's declared
// parameters: values to pass positionally, values to pass by name, plus
// the diagnostics gathered along the way. A BoundCall is produced once
// per dispatch and never reused.
type BoundCall struct {
	// Positional holds values for parameters bound by position, in
	// declaration order. A nil entry's slot is recorded in unbound.
	Positional []any

	// Keyword holds values for parameters bound by name.
	Keyword map[string]any

	// Extra holds Args entries claimed by a var-keyword parameter.
	Extra map[string]any

	// Missing lists required parameter names that no Args entry
	// satisfied. The invoke step, not the binder, turns these into an
	// error; the binder only reports them so callers can warn first.
	Missing []string

	// Dropped lists Args keys that matched no parameter and had no
	// var-keyword parameter to absorb them.
	Dropped []string

	// unbound marks positional slots left empty so invoke can fill
	// defaults or zero values and raise MissingArgumentError.
	unbound []bool
}

// bind matches available onto the declared parameters. It is a pure
// function of its inputs and never fails: missing required values and
// leftover entries are reported on the BoundCall for the caller to act
// on, so that the eventual call behaves exactly like invoking the
// handler directly.
//
// When the signature has a var-positional tail, positional-or-keyword
// parameters must be bound positionally (a value cannot be passed by
// name past a variadic). Without one, only positional-only parameters
// are forced positional.
func bind(params []Param, available Args) BoundCall {
	bc := BoundCall{
		Keyword: make(map[string]any),
	}

	hasVarPos := false
	hasVarKw := false
	for _, p := range params {
		switch p.Kind {
		case VarPositional:
			hasVarPos = true
		case VarKeyword:
			hasVarKw = true
		}
	}

	consumed := make(map[string]struct{}, len(available))

	positional := func(k Kind) bool {
		if hasVarPos {
			return k == PositionalOnly || k == PositionalOrKeyword
		}
		return k == PositionalOnly
	}

	for _, p := range params {
		if p.Kind == VarPositional || p.Kind == VarKeyword {
			continue
		}

		key, ok := lookup(p, available, consumed)
		if !ok {
			if !p.optional() {
				bc.Missing = append(bc.Missing, p.Name)
			}
			if positional(p.Kind) {
				bc.Positional = append(bc.Positional, defaultOr(p, nil))
				bc.unbound = append(bc.unbound, !p.hasDef)
			} else if p.hasDef {
				bc.Keyword[p.Name] = p.def
			}
			continue
		}

		v := available[key]
		consumed[key] = struct{}{}
		if positional(p.Kind) {
			bc.Positional = append(bc.Positional, v)
			bc.unbound = append(bc.unbound, false)
		} else {
			bc.Keyword[p.Name] = v
		}
	}

	for key := range available {
		if _, ok := consumed[key]; ok {
			continue
		}
		if hasVarKw {
			if bc.Extra == nil {
				bc.Extra = make(map[string]any)
			}
			bc.Extra[key] = available[key]
		} else {
			bc.Dropped = append(bc.Dropped, key)
		}
	}

	return bc
}

// lookup finds the Args key a parameter should consume, preferring an
// exact name match over the underscore-stripped alias. The bare "_"
// consumes only the literal "_" key; it never strips down to the empty
// string.
func lookup(p Param, available Args, consumed map[string]struct{}) (string, bool) {
	if p.Name == "" {
		return "", false
	}
	if _, taken := consumed[p.Name]; !taken {
		if _, ok := available[p.Name]; ok {
			return p.Name, true
		}
	}
	if len(p.Name) > 1 && p.Name[0] == '_' {
		alias := p.Name[1:]
		if _, taken := consumed[alias]; !taken {
			if _, ok := available[alias]; ok {
				return alias, true
			}
		}
	}
	return "", false
}

func defaultOr(p Param, fallback any) any {
	if p.hasDef {
		return p.def
	}
	return fallback
}
