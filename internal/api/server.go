// Package api exposes the availability pipeline as a small JSON API
// matching the contract the frontend consumes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"shelfcheck/internal/catalog"
	"shelfcheck/internal/probe"
	"shelfcheck/internal/types"
)

// AvailabilityChecker runs the full wish-list to availability pipeline.
type AvailabilityChecker interface {
	Check(ctx context.Context, wishlistURL string) ([]types.BookAvailability, error)
}

// SourceProber reports catalog reachability for GET /api/sources.
type SourceProber interface {
	Check(ctx context.Context, sources []catalog.Source) []probe.SourceStatus
}

// Server is the HTTP boundary around the pipeline.
type Server struct {
	mux     *http.ServeMux
	port    int
	checker AvailabilityChecker
	prober  SourceProber
	sources []catalog.Source
	logger  *slog.Logger
}

// checkRequest is the body of POST /api/check-availability.
type checkRequest struct {
	WishlistURL string `json:"wishlistUrl"`
}

// checkResponse is the success payload.
type checkResponse struct {
	Books []types.BookAvailability `json:"books"`
}

// errorResponse is the failure payload.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewServer creates the API server.
func NewServer(port int, checker AvailabilityChecker, logger *slog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		port:    port,
		checker: checker,
		logger:  logger.With("component", "api_server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/check-availability", s.handleCheck)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// WithSources registers GET /api/sources, which probes each catalog's
// entry page over plain HTTP.
func (s *Server) WithSources(prober SourceProber, sources []catalog.Source) *Server {
	s.prober = prober
	s.sources = sources
	s.mux.HandleFunc("GET /api/sources", s.handleSources)
	return s
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	statuses := s.prober.Check(r.Context(), s.sources)
	s.jsonResponse(w, http.StatusOK, map[string][]probe.SourceStatus{"sources": statuses})
}

// Handler returns the server's HTTP handler with CORS applied, so the
// frontend can call it from another origin.
func (s *Server) Handler() http.Handler {
	return withCORS(s.mux)
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "Wishlist URL is required"})
		return
	}
	if req.WishlistURL == "" {
		s.jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "Wishlist URL is required"})
		return
	}

	start := time.Now()
	s.logger.Info("availability check requested", "wishlist_url", req.WishlistURL)

	books, err := s.checker.Check(r.Context(), req.WishlistURL)
	if err != nil {
		s.logger.Error("availability check failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to check availability",
			Message: err.Error(),
		})
		return
	}

	s.logger.Info("availability check complete",
		"results", len(books),
		"duration", time.Since(start),
	)
	s.jsonResponse(w, http.StatusOK, checkResponse{Books: books})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// withCORS answers preflight requests and marks every response as
// cross-origin readable.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
