// Package http exposes a flow engine and its conversations over a REST
// surface built on chi.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zapcampo/convoflow/internal/logging"
	"github.com/zapcampo/convoflow/internal/runtime"
	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/session"
	"github.com/zapcampo/convoflow/pkg/validator"
)

// Server wires a session manager to HTTP routes.
type Server struct {
	sessions *session.Manager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetricsGatherer exposes reg's collectors on GET /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewHandler creates the HTTP handler for a session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	srv := &Server{
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	r := chi.NewRouter()
	r.Get("/healthz", srv.health)
	r.Post("/flows/validate", srv.validateFlow)
	r.Post("/conversations", srv.startConversation)
	r.Post("/conversations/{id}/messages", srv.postMessage)
	r.Get("/conversations/{id}", srv.getConversation)
	r.Delete("/conversations/{id}", srv.endConversation)
	if srv.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(srv.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateFlow handles POST /flows/validate: the body is a raw flow
// document, the response the full errors/warnings report.
func (s *Server) validateFlow(w http.ResponseWriter, r *http.Request) {
	var raw any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("validateFlow: invalid request body", "err", err)
		return
	}

	result := validator.Validate(raw)
	writeJSON(w, http.StatusOK, result)
}

type startResponse struct {
	ConversationID string `json:"conversationId"`
	domain.TurnResult
}

// startConversation handles POST /conversations: opens a conversation and
// returns its ID alongside the opening bot turn.
func (s *Server) startConversation(w http.ResponseWriter, r *http.Request) {
	id, result, err := s.sessions.Start(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Start error: %v", err), http.StatusInternalServerError)
		s.logger.Error("startConversation failed", "err", err)
		return
	}

	writeJSON(w, http.StatusCreated, startResponse{ConversationID: id, TurnResult: result})
}

type messageRequest struct {
	Message string `json:"message"`
}

// postMessage handles POST /conversations/{id}/messages.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("postMessage: invalid request body", "err", err)
		return
	}

	result, err := s.sessions.HandleMessage(r.Context(), id, body.Message)
	if err != nil {
		if errors.Is(err, session.ErrInputTooLarge) || errors.Is(err, session.ErrInvalidUTF8) {
			http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
			s.logger.Warn("postMessage: input rejected", "conversation_id", id, "err", err)
			return
		}
		if errors.Is(err, domain.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		var stepErr *runtime.StepFailureError
		if errors.As(err, &stepErr) {
			http.Error(w, stepErr.Error(), http.StatusUnprocessableEntity)
			s.logger.Warn("postMessage: step failed", "conversation_id", id, "step_id", stepErr.StepID)
			return
		}
		http.Error(w, fmt.Sprintf("Message error: %v", err), http.StatusInternalServerError)
		s.logger.Error("postMessage failed", "conversation_id", id, "err", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type statusResponse struct {
	ConversationID string                   `json:"conversationId"`
	Completed      bool                     `json:"completed"`
	State          domain.ConversationState `json:"state"`
}

// getConversation handles GET /conversations/{id}.
func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	state, err := s.sessions.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Status error: %v", err), http.StatusInternalServerError)
		s.logger.Error("getConversation failed", "conversation_id", id, "err", err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		ConversationID: id,
		Completed:      state.Completed(),
		State:          state,
	})
}

// endConversation handles DELETE /conversations/{id}.
func (s *Server) endConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.sessions.End(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("End error: %v", err), http.StatusInternalServerError)
		s.logger.Error("endConversation failed", "conversation_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
