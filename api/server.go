// Package api - Thin HTTP layer over the estimator
// The API is ONLY responsible for: input decoding, engine calls, output serialization.
// The API NEVER performs cost logic.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agent-cost/core/catalog"
	"agent-cost/core/compare"
	"agent-cost/core/engine"
	"agent-cost/internal/errors"
	"agent-cost/internal/logging"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// StatsSource reports catalog cache statistics
type StatsSource interface {
	Stats() catalog.CacheStats
}

// Options configures a Server
type Options struct {
	Version string

	// Policy drives /recommend and the recommendations in /estimate
	Policy compare.Policy

	// MaxBodyBytes limits request bodies; zero means 1 MiB
	MaxBodyBytes int64

	// Metrics is optional; nil disables /metrics
	Metrics *Metrics

	// Stats is optional cache information for /catalog and /health
	Stats StatsSource

	Logger *zap.Logger
}

// Server is the API server
type Server struct {
	estimator *engine.Estimator
	mux       *http.ServeMux
	version   string
	policy    compare.Policy
	maxBody   int64
	metrics   *Metrics
	stats     StatsSource
	logger    *zap.Logger
	started   time.Time
}

// NewServer creates a new API server
func NewServer(estimator *engine.Estimator, opts Options) *Server {
	s := &Server{
		estimator: estimator,
		mux:       http.NewServeMux(),
		version:   opts.Version,
		policy:    opts.Policy,
		maxBody:   opts.MaxBodyBytes,
		metrics:   opts.Metrics,
		stats:     opts.Stats,
		logger:    opts.Logger,
		started:   time.Now(),
	}
	if s.maxBody <= 0 {
		s.maxBody = 1 << 20
	}
	if s.logger == nil {
		s.logger = logging.Component("api")
	}
	if s.version == "" {
		s.version = "dev"
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Estimates
	s.mux.HandleFunc("POST /estimate/voice", s.handleEstimateVoice)
	s.mux.HandleFunc("POST /estimate/email", s.handleEstimateEmail)
	s.mux.HandleFunc("POST /estimate", s.handleEstimate)
	s.mux.HandleFunc("POST /export", s.handleExport)

	// Comparisons and recommendations
	s.mux.HandleFunc("POST /compare/voice", s.handleCompareVoice)
	s.mux.HandleFunc("POST /compare/email", s.handleCompareEmail)
	s.mux.HandleFunc("POST /recommend", s.handleRecommend)

	// Supporting endpoints
	s.mux.HandleFunc("GET /catalog", s.handleCatalog)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// ServeHTTP implements http.Handler. Every request gets an ID, a size
// limit, an access log line and request metrics.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r = r.WithContext(withRequestID(r.Context(), id))
	r.Body = http.MaxBytesReader(rec, r.Body, s.maxBody)

	s.mux.ServeHTTP(rec, r)

	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordRequest(route, strconv.Itoa(rec.status), duration)
	}
	s.logger.Info("request",
		zap.String("request_id", id),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", duration),
	)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("request_id", requestID(r.Context())), zap.Error(err))
	}
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   err.Error(),
		RequestID: requestID(r.Context()),
	}}, status)
}

// classify maps an error to an HTTP status and error code
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE"
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	}

	t := errors.TypeOf(err)
	switch t {
	case errors.TypeInput, errors.TypeParsing:
		return http.StatusBadRequest, string(t)
	case errors.TypeConfig:
		return http.StatusUnprocessableEntity, string(t)
	case errors.TypeNotFound:
		return http.StatusNotFound, string(t)
	default:
		return http.StatusInternalServerError, string(errors.TypeInternal)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
