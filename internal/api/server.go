// File: internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/internal/config"
	"github.com/xkilldash9x/stylelens/internal/inspect"
	"github.com/xkilldash9x/stylelens/internal/profile"
)

// requestTimeout bounds every non-socket request.
const requestTimeout = 60 * time.Second

// Server hosts the inspection API for the panel and other clients.
type Server struct {
	cfg      config.ServerConfig
	logger   *zap.Logger
	store    *profile.Store
	handlers *Handlers

	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	closing  bool
	sockets  sync.WaitGroup
	router   http.Handler
	initOnce sync.Once
}

// NewServer wires the handlers over the given store and inspector.
func NewServer(cfg config.ServerConfig, logger *zap.Logger, store *profile.Store, inspector inspect.Service) *Server {
	logger = logger.Named("api")
	return &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		handlers: NewHandlers(logger, store, inspector, cfg.MaxBodyBytes),
		clients:  make(map[*wsClient]struct{}),
	}
}

// Router returns the HTTP handler with every route and middleware mounted.
func (s *Server) Router() http.Handler {
	s.initOnce.Do(func() {
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(corsMiddleware)

		// Sockets are long lived and skip the request logger and timeout.
		r.Get("/ws/v1/profiles", s.handleProfileEvents())

		r.Group(func(r chi.Router) {
			r.Use(requestLogger(s.logger))
			r.Use(middleware.Timeout(requestTimeout))
			s.handlers.RegisterRoutes(r)
		})
		s.router = r
	})
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully:
// in-flight requests get shutdown_timeout to finish and open sockets are closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Router(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	s.logger.Info("API server starting", zap.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.closeSockets()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server Serve error", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server gracefully...")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)
	// Hijacked socket connections are not tracked by Shutdown.
	s.closeSockets()
	<-errCh

	if shutdownErr != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(shutdownErr))
		return fmt.Errorf("api server shutdown: %w", shutdownErr)
	}
	s.logger.Info("API server stopped.")
	return nil
}

func (s *Server) register(c *wsClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.clients[c] = struct{}{}
	s.sockets.Add(1)
	return true
}

func (s *Server) unregister(c *wsClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	s.sockets.Done()
}

// closeSockets closes every open socket and waits for their handlers to return.
func (s *Server) closeSockets() {
	s.mu.Lock()
	s.closing = true
	for c := range s.clients {
		c.close()
		c.conn.Close()
	}
	s.mu.Unlock()
	s.sockets.Wait()
}

// requestLogger logs one line per request with zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("HTTP request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// corsMiddleware allows the panel to call the API from another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
