package callback

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a callback request body is not valid
// JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Inspector examines a raw callback request body and returns a View for
// field queries.
type Inspector interface {
	Inspect(raw []byte) (View, error)
}

// View provides field access over a callback request body for
// discriminator matching and Args assembly.
type View interface {
	// HasField returns true if the path exists in the body.
	HasField(path string) bool

	// GetString returns the string value at path, or false if not found
	// or not a string.
	GetString(path string) (string, bool)

	// GetMap returns the object at path decoded to a map, or false if
	// not found or not an object.
	GetMap(path string) (map[string]any, bool)

	// Fields returns the body's top-level fields decoded to Go values.
	Fields() map[string]any
}

// JSONInspector returns an Inspector backed by gjson.
func JSONInspector() Inspector {
	return jsonInspector{}
}

type jsonInspector struct{}

func (jsonInspector) Inspect(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return jsonView{raw: raw}, nil
}

type jsonView struct {
	raw []byte
}

func (v jsonView) HasField(path string) bool {
	return gjson.GetBytes(v.raw, path).Exists()
}

func (v jsonView) GetString(path string) (string, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.Exists() {
		return "", false
	}
	if r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

func (v jsonView) GetMap(path string) (map[string]any, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.Exists() || !r.IsObject() {
		return nil, false
	}
	m, ok := r.Value().(map[string]any)
	return m, ok
}

func (v jsonView) Fields() map[string]any {
	r := gjson.ParseBytes(v.raw)
	if m, ok := r.Value().(map[string]any); ok {
		return m
	}
	return nil
}
