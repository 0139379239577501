package http

import (
	"context"
	"net/http"

	"buchhaltung/internal/core"
)

// reportHandler adapts a report builder to a GET handler over
// startDate/endDate.
func reportHandler[T any](s *Server, build func(context.Context, core.DateRange) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := ParseReportRange(r.URL.Query(), s.now())
		if err != nil {
			writeError(w, r, err)
			return
		}
		report, err := build(r.Context(), rng)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.backend.Reports.IncomeStatement)(w, r)
}

func (s *Server) handleVATReturn(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.backend.Reports.VATReturn)(w, r)
}

func (s *Server) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.backend.Reports.TrialBalance)(w, r)
}
