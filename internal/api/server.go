package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/doortwin/internal/infrastructure/config"
	"github.com/nerrad567/doortwin/internal/infrastructure/logging"
	"github.com/nerrad567/doortwin/internal/infrastructure/metrics"
	"github.com/nerrad567/doortwin/internal/twin"
)

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.HTTPConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Service *twin.Service
	Metrics *metrics.Metrics // optional; /metrics and request metrics are off when nil
	// PanelDir serves the control page from disk instead of the embedded copy.
	PanelDir string
	Version  string
}

// Server is the HTTP control surface for the door twin.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.HTTPConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	service  *twin.Service
	state    *twin.State
	metrics  *metrics.Metrics
	panelDir string
	version  string
	hub      *Hub
	handler  http.Handler

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	cancel    context.CancelFunc // cancels background goroutines on Close()
	closeOnce sync.Once
}

// New creates a new API server with the given dependencies.
//
// The router and WebSocket hub are built immediately so Handler() can be
// served without Start(). State changes are pushed to WebSocket clients from
// this point on.
//
// Parameters:
//   - deps: Required dependencies (logger, twin service)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("twin service is required")
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    withWSDefaults(deps.WS),
		logger:   deps.Logger.With("component", "api"),
		service:  deps.Service,
		state:    deps.Service.State(),
		metrics:  deps.Metrics,
		panelDir: deps.PanelDir,
		version:  deps.Version,
	}

	s.hub = NewHub(s.wsCfg, s.logger)
	if s.metrics != nil {
		s.hub.SetOnClientCount(s.metrics.WebSocketClients)
	}
	s.state.Watch(func(snap twin.Snapshot) {
		s.hub.Broadcast(ChannelState, s.stateResponse(snap))
	})

	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in a background goroutine.
//
// The bind happens synchronously so an address already in use is reported
// here rather than logged later.
//
// Parameters:
//   - ctx: Parent context for background goroutines (not the listener lifetime)
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.cfg.Address(), err)
	}

	srvCtx, cancel := context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	server := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.mu.Lock()
	s.server = server
	s.listener = ln
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("API server listening", "address", ln.Addr().String())

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops the listener, drops open connections and disconnects
// WebSocket clients. In-flight requests are not drained. Safe to call more
// than once and before Start.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.RLock()
		server, cancel := s.server, s.cancel
		s.mu.RUnlock()

		if cancel != nil {
			cancel()
		}
		s.hub.closeAll()

		if server == nil {
			return
		}
		s.logger.Info("API server shutting down")
		if cerr := server.Close(); cerr != nil {
			err = fmt.Errorf("closing API server: %w", cerr)
		}
	})
	return err
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
