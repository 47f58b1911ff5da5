// Package http exposes health, metrics, the session REST API and the
// per-session WebSocket stream.
package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"duplex-server/pkg/errors"
	"duplex-server/pkg/metrics"
	"duplex-server/pkg/ratelimit"
	"duplex-server/pkg/session"
	"duplex-server/pkg/version"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// BrokerStatus reports the state of the event broker connection
type BrokerStatus interface {
	IsConnected() bool
}

// Server is the HTTP front of the duplex server
type Server struct {
	config     *Config
	logger     *logrus.Logger
	httpServer *http.Server
	mux        *http.ServeMux
	sessions   *session.Manager
	broker     BrokerStatus
	upgrader   websocket.Upgrader
	limiter    *ratelimit.HTTPMiddleware
	handler    http.Handler
	startTime  time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(logger *logrus.Logger, config *Config, sessions *session.Manager) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	server := &Server{
		config:    config,
		logger:    logger,
		mux:       http.NewServeMux(),
		sessions:  sessions,
		startTime: time.Now(),
	}
	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	mux := server.mux
	mux.HandleFunc("/health", server.HealthHandler)
	mux.HandleFunc("/health/live", server.LivenessHandler)
	mux.HandleFunc("/health/ready", server.ReadinessHandler)

	if config.EnableMetrics {
		if metrics.GetRegistry() != nil {
			metrics.RegisterHandler(mux)
			logger.Info("Prometheus metrics endpoint enabled at /metrics")
		} else {
			logger.Warn("Metrics enabled but the registry is not initialized; /metrics not mounted")
		}
	} else {
		logger.Info("Metrics endpoints disabled")
	}

	mux.HandleFunc("POST /sessions", server.createSession)
	mux.HandleFunc("GET /sessions", server.listSessions)
	mux.HandleFunc("GET /sessions/{id}", server.getSession)
	mux.HandleFunc("DELETE /sessions/{id}", server.deleteSession)
	mux.HandleFunc("GET /sessions/{id}/stream", server.streamSession)

	server.handler = mux
	if config.RateLimit != nil && config.RateLimit.Enabled {
		server.limiter = ratelimit.NewHTTPMiddleware(config.RateLimit, logger)
		server.handler = server.limiter.Middleware(mux)
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      server.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return server
}

// Handler returns the root handler, which stamps the Server header on every
// response before rate limiting and routing.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", version.ServerHeader())
		s.handler.ServeHTTP(w, r)
	})
}

// SetBroker sets the broker reported by the health endpoints
func (s *Server) SetBroker(broker BrokerStatus) {
	s.broker = broker
}

// Start starts the HTTP server in a goroutine
func (s *Server) Start() {
	s.logger.WithField("port", s.config.Port).Info("Starting HTTP server")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server failed")
		}
	}()

	// Verify that we can actually bind to the port
	go func() {
		time.Sleep(500 * time.Millisecond)
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", s.config.Port), 2*time.Second)
		if err != nil {
			s.logger.WithError(err).Error("Could not connect to HTTP server")
			return
		}
		s.logger.Info("HTTP server is running correctly")
		conn.Close()
	}()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

// ErrorResponse sends a standardized error response
func (s *Server) ErrorResponse(w http.ResponseWriter, err error) {
	errors.WriteError(w, err)
	s.logger.WithError(err).WithField("code", errors.GetErrorCode(err)).Warn("HTTP error response sent")
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.config.AllowedOrigins) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
