package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pagepilot/internal/domain"
	"pagepilot/internal/events"
	"pagepilot/internal/session"
)

type intentResolver interface {
	Resolve(ctx context.Context, text string, page domain.PageContext) domain.Intent
}

type server struct {
	resolver intentResolver
	sessions *session.Registry
	events   *events.Publisher
	logger   *slog.Logger
}

func newServer(resolver intentResolver, sessions *session.Registry, publisher *events.Publisher, logger *slog.Logger) *server {
	return &server{
		resolver: resolver,
		sessions: sessions,
		events:   publisher,
		logger:   logger,
	}
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Post("/v1/interpret", s.handleInterpret)
	r.Post("/v1/context", s.handleContextUpdate)
	return r
}

func (s *server) handleInterpret(w http.ResponseWriter, req *http.Request) {
	var in domain.InterpretRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	// Empty input is the caller's validation error; the resolver's contract
	// assumes it was checked here.
	if strings.TrimSpace(in.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "text is required"})
		return
	}

	page := in.Context
	if len(page.Elements) == 0 && page.SessionID != "" {
		if stored, ok := s.sessions.GetContext(page.SessionID); ok {
			if page.URL != "" {
				stored.URL = page.URL
			}
			page = stored
		}
	}

	requestID := uuid.NewString()
	intent := s.resolver.Resolve(req.Context(), in.Text, page)
	s.events.PublishIntent(page.SessionID, requestID, intent)

	writeJSON(w, http.StatusOK, domain.InterpretResponse{
		RequestID: requestID,
		SessionID: page.SessionID,
		Intent:    intent,
	})
}

func (s *server) handleContextUpdate(w http.ResponseWriter, req *http.Request) {
	var in domain.ContextUpdate
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(in.SessionID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "session_id is required"})
		return
	}

	s.sessions.SetContext(in.SessionID, in.ContextVersion, in.URL, in.Elements)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
