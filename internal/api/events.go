package api

import (
	"encoding/json"
	"net/http"

	"courtside/pkg/event"
	"courtside/pkg/live"
)

// handleEventList returns the cached events visible under the active
// scope, which is the set every aggregate is computed from.
func (s *Server) handleEventList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, s.cache.ScopedEvents())
}

func (s *Server) handleEventRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID string `json:"member_id"`
		Outcome  string `json:"outcome"`
		Quality  string `json:"quality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	outcome, err := event.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	quality, err := event.ParseQuality(req.Quality)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}

	e, err := s.cache.RecordEvent(r.Context(), req.MemberID, outcome, quality)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, e)
}

func (s *Server) handleEventDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handleScopeGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, s.cache.Scope())
}

func (s *Server) handleScopePut(w http.ResponseWriter, r *http.Request) {
	var req live.Scope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}

	switch req.Kind {
	case live.ScopeNone, "":
		s.cache.ClearScope()
	case live.ScopeSession:
		if err := s.cache.SelectSession(req.SessionID); err != nil {
			writeStoreError(w, err)
			return
		}
	case live.ScopeType:
		if req.TypeCode == "" {
			writeError(w, 400, "type_code is required")
			return
		}
		s.cache.SelectType(req.TypeCode)
	default:
		writeError(w, 400, "kind must be none, session, or type")
		return
	}
	writeJSON(w, 200, s.cache.Scope())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		key = "won"
	}
	writeJSON(w, 200, s.cache.Leaderboard(key))
}
