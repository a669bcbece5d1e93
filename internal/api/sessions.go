package api

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, s.cache.Sessions())
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date  string `json:"date"` // YYYY-MM-DD
		Type  string `json:"type"`
		Title string `json:"title"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.Type == "" {
		writeError(w, 400, "type is required")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, 400, "date must be YYYY-MM-DD")
		return
	}
	sess, err := s.cache.AddSession(r.Context(), date, req.Type, req.Title, req.Notes)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 201, sess)
}

func (s *Server) handleSessionRetitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	sess, err := s.cache.RetitleSession(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, sess)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handleTypeList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, s.cache.CustomTypes())
}

func (s *Server) handleTypePut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.Code == "" || req.Name == "" {
		writeError(w, 400, "code and name are required")
		return
	}
	t, err := s.cache.PutCustomType(r.Context(), req.Code, req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTypeDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.DeleteCustomType(r.Context(), r.PathValue("code")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(204)
}
