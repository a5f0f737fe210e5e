package callback

import (
	"testing"
)

func TestBind(t *testing.T) {
	t.Run("binds keyword params by name", func(t *testing.T) {
		params := []Param{P("a"), P("b")}
		bc := bind(params, Args{"a": 1, "b": 2})

		if len(bc.Positional) != 0 {
			t.Errorf("positional = %v, want none", bc.Positional)
		}
		if bc.Keyword["a"] != 1 || bc.Keyword["b"] != 2 {
			t.Errorf("keyword = %v", bc.Keyword)
		}
		if len(bc.Missing) != 0 {
			t.Errorf("missing = %v, want none", bc.Missing)
		}
	})

	t.Run("binds positional-only params in declaration order", func(t *testing.T) {
		params := []Param{PosOnly("a"), PosOnly("b")}
		bc := bind(params, Args{"b": 2, "a": 1})

		if len(bc.Positional) != 2 {
			t.Fatalf("positional = %v, want 2 values", bc.Positional)
		}
		if bc.Positional[0] != 1 || bc.Positional[1] != 2 {
			t.Errorf("positional = %v, want [1 2]", bc.Positional)
		}
	})

	t.Run("variadic signature forces positional binding", func(t *testing.T) {
		// With a var-positional tail, positional-or-keyword params
		// cannot be passed by name past the variadic.
		params := []Param{P("a"), P("b"), Rest()}
		bc := bind(params, Args{"a": 1, "b": 2})

		if len(bc.Positional) != 2 {
			t.Fatalf("positional = %v, want 2 values", bc.Positional)
		}
		if len(bc.Keyword) != 0 {
			t.Errorf("keyword = %v, want none", bc.Keyword)
		}
	})

	t.Run("applies default for absent optional param", func(t *testing.T) {
		params := []Param{P("a"), P("b").WithDefault(10)}
		bc := bind(params, Args{"a": 1})

		if bc.Keyword["b"] != 10 {
			t.Errorf("keyword[b] = %v, want default 10", bc.Keyword["b"])
		}
		if len(bc.Missing) != 0 {
			t.Errorf("missing = %v, want none", bc.Missing)
		}
	})

	t.Run("value overrides default", func(t *testing.T) {
		params := []Param{P("b").WithDefault(10)}
		bc := bind(params, Args{"b": 99})

		if bc.Keyword["b"] != 99 {
			t.Errorf("keyword[b] = %v, want 99", bc.Keyword["b"])
		}
	})

	t.Run("records missing required params", func(t *testing.T) {
		params := []Param{P("a"), P("b")}
		bc := bind(params, Args{"a": 1})

		if len(bc.Missing) != 1 || bc.Missing[0] != "b" {
			t.Errorf("missing = %v, want [b]", bc.Missing)
		}
	})

	t.Run("var-keyword absorbs unclaimed entries", func(t *testing.T) {
		params := []Param{P("a"), KwRest("rest")}
		bc := bind(params, Args{"a": 1, "x": "extra", "y": true})

		if len(bc.Extra) != 2 {
			t.Fatalf("extra = %v, want 2 entries", bc.Extra)
		}
		if bc.Extra["x"] != "extra" || bc.Extra["y"] != true {
			t.Errorf("extra = %v", bc.Extra)
		}
		if len(bc.Dropped) != 0 {
			t.Errorf("dropped = %v, want none", bc.Dropped)
		}
	})

	t.Run("drops unclaimed entries without var-keyword", func(t *testing.T) {
		params := []Param{P("a")}
		bc := bind(params, Args{"a": 1, "x": "extra"})

		if len(bc.Dropped) != 1 || bc.Dropped[0] != "x" {
			t.Errorf("dropped = %v, want [x]", bc.Dropped)
		}
	})

	t.Run("var-positional absorbs nothing by name", func(t *testing.T) {
		params := []Param{P("a"), Rest()}
		bc := bind(params, Args{"a": 1, "x": "extra"})

		if len(bc.Positional) != 1 {
			t.Errorf("positional = %v, want [1]", bc.Positional)
		}
		if len(bc.Dropped) != 1 || bc.Dropped[0] != "x" {
			t.Errorf("dropped = %v, want [x]", bc.Dropped)
		}
	})

	t.Run("underscore-prefixed param matches stripped key", func(t *testing.T) {
		params := []Param{P("_state")}
		bc := bind(params, Args{"state": "user exists"})

		if bc.Keyword["_state"] != "user exists" {
			t.Errorf("keyword = %v", bc.Keyword)
		}
		if len(bc.Missing) != 0 {
			t.Errorf("missing = %v, want none", bc.Missing)
		}
	})

	t.Run("exact name wins over stripped alias", func(t *testing.T) {
		params := []Param{P("_state")}
		bc := bind(params, Args{"_state": "exact", "state": "alias"})

		if bc.Keyword["_state"] != "exact" {
			t.Errorf("keyword[_state] = %v, want exact", bc.Keyword["_state"])
		}
	})

	t.Run("bare underscore binds the literal underscore key", func(t *testing.T) {
		params := []Param{P("_")}
		bc := bind(params, Args{"_": 41})

		if bc.Keyword["_"] != 41 {
			t.Errorf("keyword = %v, want _ bound to 41", bc.Keyword)
		}
		if len(bc.Missing) != 0 {
			t.Errorf("missing = %v, want none", bc.Missing)
		}
	})

	t.Run("bare underscore never matches empty key", func(t *testing.T) {
		params := []Param{PosOnly("_")}
		bc := bind(params, Args{"": "empty-key value"})

		if len(bc.unbound) != 1 || !bc.unbound[0] {
			t.Fatalf("placeholder slot should stay unbound, got %+v", bc)
		}
		if len(bc.Dropped) != 1 || bc.Dropped[0] != "" {
			t.Errorf("dropped = %v, want the empty key", bc.Dropped)
		}
	})

	t.Run("is pure and does not mutate available", func(t *testing.T) {
		params := []Param{P("a"), KwRest("rest")}
		available := Args{"a": 1, "x": 2}

		first := bind(params, available)
		second := bind(params, available)

		if len(available) != 2 {
			t.Errorf("available mutated: %v", available)
		}
		if first.Keyword["a"] != second.Keyword["a"] {
			t.Error("binding is not deterministic")
		}
		if len(first.Extra) != len(second.Extra) {
			t.Error("binding is not deterministic")
		}
	})
}
