// Package web serves the calculator over HTTP and bridges browser speech
// recognition and synthesis over a websocket.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voicecalc/internal/application"
	"voicecalc/internal/domain"
	"voicecalc/internal/evaluate"
	"voicecalc/internal/infra/history"
)

const maxJSONBody = 64 * 1024

// Session is the part of the voice session controller the server drives.
type Session interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ProcessFinalTranscript(ctx context.Context, text string, source domain.Source) error
	Calculate(ctx context.Context, input string) (evaluate.Result, error)
	Preview(input string)
	Snapshot(ctx context.Context) (application.VoiceSession, error)
	SetLanguage(ctx context.Context, code string) error
	SetMuted(ctx context.Context, muted bool) error
	SetContinuous(ctx context.Context, continuous bool) error
}

type History interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

type Instrumentation interface {
	Handler() http.Handler
	Middleware(path string, next http.Handler) http.Handler
}

type Config struct {
	Addr      string
	AuthToken string
	RateLimit float64
	RateBurst int
}

type Server struct {
	cfg         Config
	session     Session
	hub         *Hub
	history     History
	metrics     Instrumentation
	upload      http.Handler
	rateLimiter *RateLimiter
	logger      *slog.Logger
	mux         *http.ServeMux
}

type Option func(*Server)

func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

func WithInstrumentation(m Instrumentation) Option {
	return func(s *Server) { s.metrics = m }
}

// WithUpload mounts an audio upload handler at POST /audio.
func WithUpload(h http.Handler) Option {
	return func(s *Server) { s.upload = h }
}

func NewServer(cfg Config, session Session, hub *Hub, logger *slog.Logger, opts ...Option) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	s := &Server{
		cfg:         cfg,
		session:     session,
		hub:         hub,
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:      logger,
		mux:         http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /health", s.handleHealth, false)
	s.handle("GET /session", s.handleSnapshot, false)
	s.handle("POST /session/start", s.handleStart, true)
	s.handle("POST /session/stop", s.handleStop, true)
	s.handle("PATCH /session", s.handleSettings, true)
	s.handle("POST /calculate", s.handleCalculate, true)
	s.handle("POST /preview", s.handlePreview, true)
	s.handle("POST /transcript", s.handleTranscript, true)

	if s.hub != nil {
		s.mux.Handle("GET /ws", s.instrument("/ws", s.authorize(s.hub)))
	}
	if s.history != nil {
		s.handle("GET /history", s.handleHistory, false)
	}
	if s.upload != nil {
		s.mux.Handle("POST /audio", s.instrument("/audio", s.rateLimiter.Middleware(s.authorize(s.upload))))
	}
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// handle registers fn; mutating routes are rate limited and authorized.
func (s *Server) handle(pattern string, fn http.HandlerFunc, mutating bool) {
	var h http.Handler = fn
	if mutating {
		h = s.rateLimiter.Middleware(s.authorize(h))
	}
	_, path, _ := strings.Cut(pattern, " ")
	s.mux.Handle(pattern, s.instrument(path, h))
}

func (s *Server) instrument(path string, h http.Handler) http.Handler {
	if s.metrics == nil {
		return h
	}
	return s.metrics.Middleware(path, h)
}

func (s *Server) authorize(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != s.cfg.AuthToken {
			s.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.mux,
		// no Read/WriteTimeout: websocket connections live as long as the page
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serving http: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := srv.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{"status": "ok"}

	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "not_ready"
	} else {
		body["state"] = snap.State
	}
	if s.hub != nil {
		body["clients"] = s.hub.Clients()
		body["voice"] = s.hub.HasVoiceClient()
	}
	writeJSON(w, status, body)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	err := s.session.Start(r.Context())
	switch {
	case err == nil:
		s.handleSnapshot(w, r)
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUnsupportedPlatform):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, application.ErrStartInterrupted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrControllerStopped):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Stop(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.handleSnapshot(w, r)
}

type settingsRequest struct {
	Language   *string `json:"language"`
	Muted      *bool   `json:"muted"`
	Continuous *bool   `json:"continuous"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	var err error
	if req.Language != nil {
		err = s.session.SetLanguage(ctx, *req.Language)
		if errors.Is(err, application.ErrUnsupportedLanguage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Muted != nil {
		err = errors.Join(err, s.session.SetMuted(ctx, *req.Muted))
	}
	if req.Continuous != nil {
		err = errors.Join(err, s.session.SetContinuous(ctx, *req.Continuous))
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.handleSnapshot(w, r)
}

type inputRequest struct {
	Input string `json:"input"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.session.Calculate(r.Context(), req.Input)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.session.Preview(req.Input)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

type transcriptRequest struct {
	Text   string        `json:"text"`
	Source domain.Source `json:"source"`
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "empty text")
		return
	}
	if req.Source == "" {
		req.Source = domain.SourceWeb
	}
	if req.Source != domain.SourceWeb && req.Source != domain.SourceNative {
		writeError(w, http.StatusBadRequest, "unknown source")
		return
	}
	if err := s.session.ProcessFinalTranscript(r.Context(), req.Text, req.Source); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.logger.Info("received transcript via HTTP", "text", req.Text)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	recs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing history", "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
