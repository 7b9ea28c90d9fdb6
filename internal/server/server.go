// Package server exposes the ledger as HTTP tool calls for assistants and
// scripts, plus Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/logger"
)

// Config holds the listener settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	handler     toolHandler
}

// Server routes tool calls to the ledger.
type Server struct {
	ledger *ledger.Ledger
	log    *log.Logger
	tools  map[string]tool
	http   *http.Server
}

func New(cfg Config, l *ledger.Ledger) *Server {
	s := &Server{
		ledger: l,
		log:    logger.Component("server"),
	}
	s.registerTools()

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  orDefault(cfg.ReadTimeout, 5*time.Second),
		WriteTimeout: orDefault(cfg.WriteTimeout, 10*time.Second),
		IdleTimeout:  orDefault(cfg.IdleTimeout, 60*time.Second),
	}
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tools/call", s.handleCall)
	mux.HandleFunc("GET /tools", s.handleList)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.log.Info("Listening", "addr", s.http.Addr, "version", constants.Version)
	if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	list := make([]tool, 0, len(s.tools))
	for _, name := range toolOrder {
		list = append(list, s.tools[name])
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": list})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req protocol.CallToolRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	t, ok := s.tools[req.Name]
	if !ok {
		toolCallsCounter.WithLabelValues("unknown", "not_found").Inc()
		http.Error(w, fmt.Sprintf("unknown tool: %s", req.Name), http.StatusNotFound)
		return
	}

	start := time.Now()
	result, err := t.handler(r.Context(), &req)
	toolDuration.WithLabelValues(t.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		status := statusFor(err)
		outcome := "error"
		if status == http.StatusBadRequest {
			outcome = "invalid"
		}
		toolCallsCounter.WithLabelValues(t.Name, outcome).Inc()
		if status >= 500 {
			s.log.Error("Tool call failed", "tool", t.Name, "error", err)
		}
		http.Error(w, err.Error(), status)
		return
	}

	toolCallsCounter.WithLabelValues(t.Name, "ok").Inc()
	writeJSON(w, http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errInvalidParams), stderrors.Is(err, ledger.ErrInvalidInput):
		return http.StatusBadRequest
	case stderrors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.KindOf(err) == errors.KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func jsonResult(data any) (*protocol.CallToolResult, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(raw),
			},
		},
	}, nil
}
