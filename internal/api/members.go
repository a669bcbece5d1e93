package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleMemberList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, s.cache.Members())
}

func (s *Server) handleMemberCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, 400, "name is required")
		return
	}
	m, err := s.cache.AddMember(r.Context(), req.Name, req.Tags)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, m)
}

func (s *Server) handleMemberGet(w http.ResponseWriter, r *http.Request) {
	m, ok := s.cache.Member(r.PathValue("id"))
	if !ok {
		writeError(w, 404, "member not found")
		return
	}
	writeJSON(w, 200, m)
}

// handleMemberUpdate renames and/or retags. Tags are replaced as a
// set; a nil tags field leaves them alone.
func (s *Server) handleMemberUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Name *string  `json:"name"`
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}

	if req.Name != nil {
		if _, err := s.cache.RenameMember(r.Context(), id, *req.Name); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if req.Tags != nil {
		if _, err := s.cache.RetagMember(r.Context(), id, req.Tags); err != nil {
			writeStoreError(w, err)
			return
		}
	}

	m, ok := s.cache.Member(id)
	if !ok {
		writeError(w, 404, "member not found")
		return
	}
	writeJSON(w, 200, m)
}

func (s *Server) handleMemberDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.DeleteMember(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handleMemberStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.cache.Member(id); !ok {
		writeError(w, 404, "member not found")
		return
	}
	writeJSON(w, 200, s.cache.Stats(id))
}
