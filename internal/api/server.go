// Package api is the HTTP facade over the live cache: entity lists,
// the scope selector, derived stats, mutation entry points, and a
// websocket stream of applied changes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courtside/pkg/live"
)

// Server is the HTTP API server.
type Server struct {
	cache *live.Cache
	mux   *http.ServeMux
}

// New creates a new Server over a loaded cache.
func New(cache *live.Cache) *Server {
	s := &Server{
		cache: cache,
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Members
	s.mux.HandleFunc("GET /api/members", s.handleMemberList)
	s.mux.HandleFunc("POST /api/members", s.handleMemberCreate)
	s.mux.HandleFunc("GET /api/members/{id}", s.handleMemberGet)
	s.mux.HandleFunc("PATCH /api/members/{id}", s.handleMemberUpdate)
	s.mux.HandleFunc("DELETE /api/members/{id}", s.handleMemberDelete)
	s.mux.HandleFunc("GET /api/members/{id}/stats", s.handleMemberStats)

	// Sessions
	s.mux.HandleFunc("GET /api/sessions", s.handleSessionList)
	s.mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	s.mux.HandleFunc("PATCH /api/sessions/{id}", s.handleSessionRetitle)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)

	// Events
	s.mux.HandleFunc("GET /api/events", s.handleEventList)
	s.mux.HandleFunc("POST /api/events", s.handleEventRecord)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleEventDelete)

	// Session types
	s.mux.HandleFunc("GET /api/types", s.handleTypeList)
	s.mux.HandleFunc("PUT /api/types", s.handleTypePut)
	s.mux.HandleFunc("DELETE /api/types/{code}", s.handleTypeDelete)

	// Scope and aggregates
	s.mux.HandleFunc("GET /api/scope", s.handleScopeGet)
	s.mux.HandleFunc("PUT /api/scope", s.handleScopePut)
	s.mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)

	// Live updates
	s.mux.HandleFunc("GET /api/live", s.handleLive)

	// System
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{
		"ok":      true,
		"team":    s.cache.TeamID(),
		"loading": s.cache.Loading(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps engine errors onto status codes: validation
// failures are the caller's problem, everything else is the store's.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, live.ErrUnknownMember),
		errors.Is(err, live.ErrUnknownSession),
		errors.Is(err, live.ErrUnknownType):
		writeError(w, 404, err.Error())
	case errors.Is(err, live.ErrNoScope),
		errors.Is(err, live.ErrTagInUse),
		errors.Is(err, live.ErrFixedType):
		writeError(w, 422, err.Error())
	default:
		writeError(w, 500, err.Error())
	}
}
