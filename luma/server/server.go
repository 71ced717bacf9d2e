// Package server exposes the orchestration core over HTTP: POST /chat,
// POST /reset, GET /health, GET /debug/llm, and the static UI mount.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumachat/luma/luma/chat"
	ports "github.com/lumachat/luma/luma/chat/ports"
	"github.com/lumachat/luma/luma/config"
	"github.com/lumachat/luma/luma/models"
)

// Server wires the orchestrator and providers into an http.Server.
type Server struct {
	orchestrator *chat.Orchestrator
	builder      *chat.PromptBuilder
	text         ports.TextProvider
	cfg          *config.Config
	logger       zerolog.Logger
	httpServer   *http.Server
}

// New creates a server around the given orchestrator and its collaborators.
// The text provider is needed directly for the diagnostic endpoint.
func New(orchestrator *chat.Orchestrator, text ports.TextProvider, cfg *config.Config, logger zerolog.Logger) *Server {
	s := &Server{
		orchestrator: orchestrator,
		builder:      chat.NewPromptBuilder(),
		text:         text,
		cfg:          cfg,
		logger:       logger,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe starts serving. It blocks until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /debug/llm", s.handleDebugLLM)

	if dir := s.cfg.Server.StaticDir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
		} else {
			s.logger.Warn().Str("dir", dir).Msg("static directory not found; UI disabled")
		}
	}
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return s.withRequestLogging(mux)
}

// withRequestLogging attaches a request id and logs each request.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		w.Header().Set("X-Request-Id", requestID)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// chatRequest is the caller-facing request shape.
type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	outcome, err := s.orchestrator.HandleChat(r.Context(), req.UserID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// The caller is gone or out of time; nothing useful to write.
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
		default:
			s.logger.Error().Err(err).Msg("chat exchange failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

type resetRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	if err := s.orchestrator.Reset(req.UserID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// healthStatus is the health endpoint payload.
type healthStatus struct {
	Status                string         `json:"status"`
	UseMocks              bool           `json:"use_mocks"`
	EnableImageGeneration bool           `json:"enable_image_generation"`
	CachedModels          bool           `json:"cached_models"`
	Details               map[string]any `json:"details"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cacheDir := s.cfg.Models.CacheDir
	textCached := models.IsPopulated(models.TextModelDir(cacheDir))
	imageCached := models.IsPopulated(models.ImageModelDir(cacheDir))
	cached := textCached && (imageCached || !s.cfg.Chat.EnableImageGeneration)

	writeJSON(w, http.StatusOK, healthStatus{
		Status:                "ok",
		UseMocks:              s.cfg.Chat.UseMocks,
		EnableImageGeneration: s.cfg.Chat.EnableImageGeneration,
		CachedModels:          cached,
		Details: map[string]any{
			"deepseek_cached":         textCached,
			"stable_diffusion_cached": imageCached,
			"models_cache_dir":        cacheDir,
		},
	})
}

func (s *Server) handleDebugLLM(w http.ResponseWriter, r *http.Request) {
	messages := s.builder.Build(nil, "Diagnostic ping from /debug/llm.")

	raw, err := s.text.Generate(r.Context(), messages)
	if err != nil {
		s.logger.Error().Err(err).Msg("llm debug call failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages":   messages,
		"response":   raw,
		"used_mocks": s.text.UsesFallback(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if dir := s.cfg.Server.StaticDir; dir != "" {
		index := dir + "/index.html"
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<h1>Luma</h1><p>Static UI not found. POST /chat to talk to the assistant.</p>"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
