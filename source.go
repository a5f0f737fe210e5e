package callback

import "errors"

var (
	// ErrMissingState is returned when a state-change request has no
	// state name.
	ErrMissingState = errors.New("state callback missing state")

	// ErrMissingAction is returned when a state-change request has no
	// setup/teardown action.
	ErrMissingAction = errors.New("state callback missing action")

	// ErrMissingDescription is returned when a message request has no
	// message description.
	ErrMissingDescription = errors.New("message callback missing description")
)

// Callback contains the result of source parsing: the routing key used
// to find a handler, and the Args to apply to it.
type Callback struct {
	// Key is the routing key. State-change callbacks use the state
	// name; message-production callbacks use the message description.
	Key string

	// Args is the flat name-to-value mapping assembled from the
	// request, ready for ApplyArgs.
	Args Args
}

// Source parses a raw callback request body and extracts the routing
// key and Args.
//
// Sources are registered with Router.AddSource and matched using their
// Discriminator before Parse is called, so the router can tell apart
// the payload shapes the native engine sends without trial parsing.
type Source interface {
	// Name returns the source identifier for logging.
	Name() string

	// Discriminator returns a predicate for cheap request detection.
	Discriminator() Discriminator

	// Parse attempts to parse the raw body as this source's format.
	Parse(raw []byte) (Callback, error)
}

// SourceFunc creates a Source from a name, discriminator, and parse
// function. Use for simple sources that don't need a struct:
//
//	r.AddSource(callback.SourceFunc(
//	    "legacy",
//	    callback.HasFields("providerState"),
//	    func(raw []byte) (callback.Callback, error) {
//	        // parse logic
//	    },
//	))
func SourceFunc(name string, disc Discriminator, parse func([]byte) (Callback, error)) Source {
	return &sourceFunc{name: name, disc: disc, parse: parse}
}

type sourceFunc struct {
	name  string
	disc  Discriminator
	parse func([]byte) (Callback, error)
}

func (s *sourceFunc) Name() string                 { return s.name }
func (s *sourceFunc) Discriminator() Discriminator { return s.disc }
func (s *sourceFunc) Parse(raw []byte) (Callback, error) {
	return s.parse(raw)
}

// StateSource parses state-change callbacks. The native engine sends a
// JSON object holding the state name, the action ("setup" or
// "teardown"), and any state parameters. Everything beyond state and
// action is collected under "parameters", so handlers see:
//
//	{"state": ..., "action": ..., "parameters": {...}}
func StateSource() Source {
	return SourceFunc("state", HasFields("state", "action"), parseState)
}

func parseState(raw []byte) (Callback, error) {
	view, err := JSONInspector().Inspect(raw)
	if err != nil {
		return Callback{}, err
	}

	state, ok := view.GetString("state")
	if !ok || state == "" {
		return Callback{}, ErrMissingState
	}
	action, ok := view.GetString("action")
	if !ok || action == "" {
		return Callback{}, ErrMissingAction
	}

	params := view.Fields()
	delete(params, "state")
	delete(params, "action")

	return Callback{
		Key: state,
		Args: Args{
			"state":      state,
			"action":     action,
			"parameters": params,
		},
	}, nil
}

// MessageSource parses message-production callbacks. The native engine
// asks for a message by description; handlers see:
//
//	{"name": ...}
//
// with "metadata" merged in by the server when the request carried a
// metadata header.
//
// A body carrying both shapes (a description next to state and action)
// is a state-change callback; the message source declines it regardless
// of the order sources were registered in.
func MessageSource() Source {
	disc := And(HasFields("description"), Not(HasFields("state", "action")))
	return SourceFunc("message", disc, parseMessage)
}

func parseMessage(raw []byte) (Callback, error) {
	view, err := JSONInspector().Inspect(raw)
	if err != nil {
		return Callback{}, err
	}

	name, ok := view.GetString("description")
	if !ok || name == "" {
		return Callback{}, ErrMissingDescription
	}

	return Callback{
		Key: name,
		Args: Args{
			"name": name,
		},
	}, nil
}
