// Package server provides the HTTP REST API for date format detection.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/datedetective/internal/config"
	"github.com/jonathan/datedetective/internal/db"
	"github.com/jonathan/datedetective/internal/detective"
	"github.com/jonathan/datedetective/internal/server/middleware"
	"github.com/jonathan/datedetective/internal/server/ratelimit"
	"github.com/jonathan/datedetective/internal/types"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 8 << 20

// RunStore persists consensus runs. *db.DB implements it.
type RunStore interface {
	SaveRun(ctx context.Context, in *db.RunInput) (uuid.UUID, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
}

// Config holds server configuration
type Config struct {
	Port         int
	Detective    *detective.Detective
	Runs         RunStore          // nil disables run history
	Logger       *zap.Logger       // nil discards logs
	RateLimit    *ratelimit.Config // nil loads RATE_LIMIT_* from the environment
	JWT          *config.JWTConfig // nil leaves /v1/ unauthenticated
	MaxBodyBytes int64
}

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	handler      http.Handler
	detective    *detective.Detective
	runs         RunStore
	logger       *zap.Logger
	rateLimiter  *ratelimit.Limiter
	jwtService   *JWTService
	maxBodyBytes int64
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Detective == nil {
		return nil, fmt.Errorf("server requires a detective")
	}
	if cfg.Port == 0 {
		cfg.Port = config.DefaultPort
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = ratelimit.LoadConfig()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		detective:    cfg.Detective,
		runs:         cfg.Runs,
		logger:       cfg.Logger,
		rateLimiter:  ratelimit.NewLimiter(cfg.RateLimit),
		maxBodyBytes: cfg.MaxBodyBytes,
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/format", s.handleFormat)
	api.HandleFunc("POST /v1/datetime", s.handleDateTime)
	api.HandleFunc("POST /v1/list/format", s.handleListFormat)
	api.HandleFunc("POST /v1/list/datetime", s.handleListDateTime)
	api.HandleFunc("POST /v1/records/format", s.handleRecordsFormat)
	api.HandleFunc("POST /v1/records/datetime", s.handleRecordsDateTime)
	api.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)

	var apiHandler http.Handler = api
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
		apiHandler = middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(api)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/", apiHandler)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second, // batch requests may call a remote tagger per item
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is canceled or the process receives SIGINT/SIGTERM,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr),
			zap.String("tagger", s.detective.TaggerName()),
			zap.Bool("auth", s.jwtService != nil),
			zap.Bool("run_history", s.runs != nil))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer s.rateLimiter.Stop()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging logs one line per request
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", clientID(r)),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// withRateLimit rejects clients that exceed their budget
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies the caller by the IP of RemoteAddr.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	details := map[string]any{"limit": info.Limit}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		details["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	s.logger.Warn("rate limit exceeded",
		zap.String("remote", clientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))
	s.jsonResponse(w, http.StatusTooManyRequests, types.ErrorResponse{Error: "rate limit exceeded", Details: details})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response with the status HTTPStatus picks.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.jsonResponse(w, status, types.ErrorResponse{Error: err.Error(), Details: errorDetails(err)})
}
