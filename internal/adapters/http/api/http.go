// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/depthchart/internal/adapters/repository"
	"github.com/okian/depthchart/internal/domain/depthchart"
	"github.com/okian/depthchart/internal/domain/model"
	"github.com/okian/depthchart/internal/domain/roster"
	"github.com/okian/depthchart/internal/ratelimit"
	"github.com/okian/depthchart/pkg/logger"
	"github.com/okian/depthchart/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AddPlayer(ctx context.Context, p model.Player) (model.Player, error)
	GetChart(ctx context.Context) ([]model.Player, error)
	GetPlayersUnder(ctx context.Context, id model.Identity) ([]model.Player, error)
	RemovePlayer(ctx context.Context, id model.Identity) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	depthChartHandler *DepthChartHandler
	dashboardHandler  *dashboardHandler

	limiter ratelimit.Limiter
	keyFunc ratelimit.KeyFunc
	logger  logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRateLimiter limits mutating requests per key. A nil limiter disables limiting.
func WithRateLimiter(limiter ratelimit.Limiter, key ratelimit.KeyFunc) ServerOption {
	return func(s *Server) {
		s.limiter = limiter
		if key != nil {
			s.keyFunc = key
		}
	}
}

// WithLogger sets the logger used by request logging.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		depthChartHandler: NewDepthChartHandler(deps),
		dashboardHandler:  newDashboardHandler(),
		keyFunc:           ratelimit.IPKeyFunc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	dc := s.depthChartHandler
	mux.HandleFunc("POST /depthchart", MetricsMiddleware(s.limit(dc.HandleAddPlayer, "depthchart"), "depthchart"))
	mux.HandleFunc("GET /depthchart", MetricsMiddleware(dc.HandleGetChart, "depthchart"))
	playersUnder := MetricsMiddleware(dc.HandleGetPlayersUnder, "players_under")
	removePlayer := MetricsMiddleware(s.limit(dc.HandleRemovePlayer, "remove_player"), "remove_player")
	mux.HandleFunc("GET /depthchart/{gameName}/{position}/{playerId}", playersUnder)
	mux.HandleFunc("DELETE /depthchart/player", removePlayer)

	// Root aliases kept for clients of the earlier API layout.
	mux.HandleFunc("GET /{gameName}/{position}/{playerId}", playersUnder)
	mux.HandleFunc("DELETE /player", removePlayer)
}

// Handler wraps mux with request id propagation and request logging.
func (s *Server) Handler(mux http.Handler) http.Handler {
	l := s.logger
	if l == nil {
		l = logger.Get()
	}
	return RequestIDMiddleware(l)(mux)
}

func (s *Server) limit(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	onLimited := func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordRateLimited(endpoint, r.Method)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate_limited", fmt.Errorf("%w: %s", ErrRateLimited, msgRateLimited))
	}
	return ratelimit.Middleware(s.limiter, s.keyFunc, onLimited)(next).ServeHTTP
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps errors from the service layer to HTTP responses.
// Internal failures never leak their message to the client.
func writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	var verr *roster.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "validation_failed",
			Message: msgValidation,
			Errors:  verr.Messages(),
		})
	case errors.Is(err, depthchart.ErrPlayerNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Message: msgPlayerNotFound})
	case errors.Is(err, repository.ErrDuplicatePlayer):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "duplicate", Message: err.Error()})
	default:
		logger.Get().Error(ctx, "api request failed", logger.String("op", op), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal", Message: msgRequestFailed})
	}
}
