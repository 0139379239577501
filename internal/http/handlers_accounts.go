package http

import (
	"net/http"
	"strings"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, err := queryBool(q, "active")
	if err != nil {
		writeError(w, r, err)
		return
	}
	query := accounts.Query{
		Search: sanitizeInput(q.Get("q")),
		Type:   core.AccountType(strings.ToUpper(strings.TrimSpace(q.Get("type")))),
		Active: active,
	}
	list, err := s.backend.Accounts.List(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accounts.CreateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	req.Name = sanitizeInput(req.Name)
	req.Type = core.AccountType(strings.ToUpper(string(req.Type)))

	a, err := s.backend.Accounts.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse(a).Status(http.StatusCreated).Header("Location", "/api/accounts/"+a.Number).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Accounts.Delete(r.Context(), r.PathValue("number")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetAccountActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := r.PathValue("number")
		var err error
		if active {
			err = s.backend.Accounts.Activate(r.Context(), number)
		} else {
			err = s.backend.Accounts.Deactivate(r.Context(), number)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		a, err := s.backend.Accounts.Get(r.Context(), number)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
