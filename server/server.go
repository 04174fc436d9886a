// Package server exposes the evaluator and the search over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"chessai/bots"
	"chessai/config"
)

const maxBodyBytes = 1 << 16

// ErrBadRequest wraps every client input error.
var ErrBadRequest = errors.New("bad request")

// Server serves the JSON API. Handlers share one evaluator; every search
// gets its own searcher and position.
type Server struct {
	cfg    *config.Config
	eval   *bots.Evaluator
	router chi.Router
}

func New(cfg *config.Config) *Server {
	s := &Server{
		cfg:  cfg,
		eval: bots.NewEvaluator(cfg.Weights()),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/bestmove", s.handleBestMove)
		r.Get("/analyze", s.handleAnalyze)
	})
	return r
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("request-id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("http-request")
}

// Run serves on the configured address until ctx is done, then shuts the
// listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server-listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("server-shutdown")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("graceful-shutdown-failed")
			return srv.Close()
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	pos, err := req.position()
	if err != nil {
		writeError(w, err)
		return
	}
	b := s.eval.Breakdown(pos)
	writeJSON(w, http.StatusOK, evaluateResponse{
		Score:     b.Total(),
		Breakdown: b,
		FEN:       pos.FEN(),
		Turn:      bots.ColorName(pos.Turn()),
	})
}

func (s *Server) handleBestMove(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	job, err := s.newJob(req)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := job.run(r.Context(), nil)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), dst)
}

// decodeJSON reads one JSON value into dst, rejecting unknown fields.
func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrBadRequest) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// requestLogger returns the logger attached by the middleware, or the
// global logger outside a request.
func requestLogger(r *http.Request) *zerolog.Logger {
	if r == nil {
		return &log.Logger
	}
	return hlog.FromRequest(r)
}
