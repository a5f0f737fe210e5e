package callback

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MetadataHeader carries base64-encoded JSON message metadata on
// message-production requests.
const MetadataHeader = "Pact-Message-Metadata"

// Server is the local HTTP server the native engine calls back into
// during verification. It translates state-change and
// message-production requests into router dispatches and relays the
// result (or the handler's error) back to the engine.
//
// One server instance lives for the duration of a test process. It runs
// its accept loop on a background goroutine, but dispatches are
// serialized: the native engine's callback contract is synchronous, and
// verification is not safe to run concurrently.
type Server struct {
	cfg    ServerConfig
	router *Router
	log    *zap.Logger

	mu sync.Mutex // serializes dispatches

	srvMu sync.Mutex // guards srv and lis
	srv   *http.Server
	lis   net.Listener
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerConfig sets the server's configuration.
func WithServerConfig(cfg ServerConfig) ServerOption {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// WithServerLogger sets the server's logger. The default is a no-op
// logger.
func WithServerLogger(log *zap.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates a Server routing callbacks through router.
func NewServer(router *Router, opts ...ServerOption) *Server {
	s := &Server{
		cfg:    DefaultServerConfig(),
		router: router,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.Normalize()
	return s
}

// Start binds the listener and begins serving in the background. A
// zero configured port gets a free OS-assigned one; read it back with
// Port or URL to point the native engine at the server.
func (s *Server) Start() error {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()

	if s.lis != nil {
		return errors.New("server already started")
	}

	lis, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("bind callback server: %w", err)
	}
	s.lis = lis

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.StatePath, s.handleState)
	mux.HandleFunc(s.cfg.MessagePath, s.handleMessage)

	srv := &http.Server{Handler: mux}
	s.srv = srv
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("callback server stopped", zap.Error(err))
		}
	}()

	s.log.Info("callback server started", zap.String("url", s.urlLocked()))
	return nil
}

// Stop shuts the server down, waiting for in-flight requests. The
// shutdown itself runs outside the lifecycle lock: draining requests
// must not block Port or URL.
func (s *Server) Stop(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srv = nil
	s.lis = nil
	s.srvMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Port returns the bound port. Valid after Start.
func (s *Server) Port() int {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.portLocked()
}

func (s *Server) portLocked() int {
	if s.lis == nil {
		return s.cfg.Port
	}
	return s.lis.Addr().(*net.TCPAddr).Port
}

// URL returns the server's base URL. Valid after Start.
func (s *Server) URL() string {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.urlLocked()
}

func (s *Server) urlLocked() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.portLocked())))
}

// handleState serves state-change callbacks. The engine sends either a
// JSON body or a query string holding the state, the action, and any
// state parameters; a query string is lifted into an equivalent body so
// both forms route identically.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var raw []byte
	if q := r.URL.Query(); len(q) > 0 {
		fields := make(map[string]any, len(q))
		for k, vs := range q {
			if len(vs) == 1 {
				fields[k] = vs[0]
			} else {
				fields[k] = vs
			}
		}
		var err error
		raw, err = json.Marshal(fields)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		body, err := io.ReadAll(r.Body)
		if err != nil || len(body) == 0 {
			http.Error(w, "missing request body", http.StatusBadRequest)
			return
		}
		raw = body
	}

	s.dispatch(w, r, raw, nil)
}

// handleMessage serves message-production callbacks. Metadata arrives
// out of band in a base64 JSON header and is merged into the Args the
// handler sees.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var metadata map[string]any
	if data := r.Header.Get(MetadataHeader); data != "" {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			http.Error(w, "unable to base64 decode metadata header", http.StatusBadRequest)
			return
		}
		if err := json.Unmarshal(decoded, &metadata); err != nil {
			http.Error(w, "unable to JSON decode metadata header", http.StatusBadRequest)
			return
		}
	}

	s.dispatch(w, r, raw, Args{"metadata": metadata})
}

// dispatch routes one callback and writes the response. Bad requests
// (no matching source, unparseable body) get a 400; a failing handler
// surfaces as a 500 with the error text, which the native verification
// layer reports as an errored interaction.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, raw []byte, extra Args) {
	log := s.log.With(zap.String("dispatch_id", uuid.NewString()))
	log.Debug("received callback request", zap.String("path", r.URL.Path))

	s.mu.Lock()
	result, err := s.router.Dispatch(r.Context(), raw, extra)
	s.mu.Unlock()

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNoSource) || errors.Is(err, ErrInvalidJSON) {
			status = http.StatusBadRequest
		}
		log.Debug("callback dispatch failed", zap.Int("status", status), zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	switch body := result.(type) {
	case nil:
		w.WriteHeader(http.StatusOK)
	case []byte:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(encoded)
	}
}
