// Package server exposes the article pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/budget"
	"github.com/hyperifyio/blogforge/internal/pipeline"
	"github.com/hyperifyio/blogforge/internal/validate"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "blogforge"

// MaxRequestBytes caps the JSON body of a generation request.
const MaxRequestBytes = 1 << 20

// Runner executes one generation. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
}

// Server routes API requests to the pipeline.
type Server struct {
	Runner     Runner
	Model      string
	Version    string
	PricePer1K float64
	// Limiter, when set, guards the generation and estimate endpoints.
	Limiter *RateLimiter

	now func() time.Time
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/generate-blog", s.limit(http.HandlerFunc(s.handleGenerate)))
	mux.Handle("/estimate-cost", s.limit(http.HandlerFunc(s.handleEstimate)))
	return mux
}

func (s *Server) limit(h http.Handler) http.Handler {
	if s.Limiter == nil {
		return h
	}
	return s.Limiter.Middleware(h)
}

func (s *Server) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": ServiceName,
		"version": s.Version,
		"status":  "operational",
		"model":   s.Model,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": float64(s.clock().UnixMilli()) / 1000,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var req pipeline.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	resp, err := s.Runner.Run(r.Context(), req)
	if err != nil {
		code := StatusFor(err)
		writeJSON(w, code, ErrorResponse{
			Success: false,
			Error:   resp.Error,
			Details: fmt.Sprintf("Status code: %d", code),
			RunID:   resp.RunID,
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusFor maps a pipeline failure to an HTTP status. Problems with the
// request or the source page are the client's; everything else is ours.
func StatusFor(err error) int {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case pipeline.StageValidation, pipeline.StageExtraction, pipeline.StageCleaning:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	q := r.URL.Query()
	url := strings.TrimSpace(q.Get("url"))
	if url == "" {
		writeError(w, http.StatusBadRequest, "url is required", "")
		return
	}
	words := validate.DefaultWordCount
	if raw := q.Get("word_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "word_count must be a positive integer", raw)
			return
		}
		words = n
	}
	est := budget.EstimateCost(budget.DefaultPromptChars, words, s.PricePer1K)
	writeJSON(w, http.StatusOK, map[string]any{
		"url":                url,
		"word_count":         words,
		"prompt_tokens":      est.PromptTokens,
		"output_tokens":      est.OutputTokens,
		"estimated_cost_usd": math.Round(est.CostUSD*1e4) / 1e4,
		"model":              s.Model,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg, details string) {
	writeJSON(w, code, ErrorResponse{Success: false, Error: msg, Details: details})
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info().Msg("shutting down api server")
	return srv.Shutdown(shutdownCtx)
}
