// Package proxy serves the advisory contract over HTTP so clients without
// their own credential can share one LLM configuration.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mindharmony/mindharmony/internal/advisory"
)

const maxRequestBytes = 16 << 10

// Error codes returned in advisory.ErrorBody.Code.
const (
	CodeBadRequest     = "bad_request"
	CodeUpstreamFailed = "upstream_failed"
)

// Server answers advisory requests, caching successful analyses.
type Server struct {
	client advisory.Client
	cache  Cache
	ttl    time.Duration
}

// NewServer returns a server over client. A nil cache disables caching.
func NewServer(client advisory.Client, cache Cache, ttl time.Duration) *Server {
	if client == nil {
		client = advisory.Unconfigured{}
	}
	return &Server{client: client, cache: cache, ttl: ttl}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(recoverMiddleware, loggingMiddleware)

	r.HandleFunc(advisory.AdvisoryPath, s.handleAdvisory).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}

func (s *Server) handleAdvisory(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()

	var req advisory.Request
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	key, err := CacheKey(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeUpstreamFailed, err.Error())
		return
	}

	if s.cache != nil {
		a, ok, err := s.cache.Get(r.Context(), key)
		if err != nil {
			slog.Warn("advisory cache read failed", "error", err)
		} else if ok {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, a)
			return
		}
	}

	a, err := s.client.Analyze(r.Context(), req)
	if err != nil {
		if advisory.IsNotConfigured(err) {
			writeError(w, http.StatusServiceUnavailable, advisory.ErrorCodeNotConfigured, "advisory provider not configured")
			return
		}
		slog.Error("advisory upstream failed", "error", err)
		writeError(w, http.StatusBadGateway, CodeUpstreamFailed, "advisory generation failed")
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(r.Context(), key, a, s.ttl); err != nil {
			slog.Warn("advisory cache write failed", "error", err)
		}
	}
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, a)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, advisory.ErrorBody{Error: message, Code: code})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return Serve(ctx, ln, h)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("advisory proxy listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
