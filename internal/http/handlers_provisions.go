package http

import (
	"net/http"
	"strings"

	"buchhaltung/internal/core"
	"buchhaltung/internal/provisions"
)

func (s *Server) handleListProvisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := queryInt(q, "year", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	active, err := queryBool(q, "active")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.backend.Provisions.List(r.Context(), year, strings.TrimSpace(q.Get("type")), active != nil && *active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Provision{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateProvision(w http.ResponseWriter, r *http.Request) {
	var req provisions.CreateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	req.Description = sanitizeInput(req.Description)
	req.Reason = sanitizeInput(req.Reason)
	req.CreatedBy = sanitizeInput(req.CreatedBy)

	p, err := s.backend.Provisions.CreateProvision(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse(p).Status(http.StatusCreated).Header("Location", "/api/provisions/"+itoa(p.ID)).Write(w)
}

func (s *Server) handleGetProvision(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.backend.Provisions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProvisionSummary(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r.URL.Query(), "year", s.now().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.backend.Provisions.Summary(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
