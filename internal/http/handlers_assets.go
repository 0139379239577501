package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/assets"
	"buchhaltung/internal/core"
)

type createAssetRequest struct {
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	AccountNumber      string          `json:"accountNumber,omitempty"`
	AcquisitionDate    string          `json:"acquisitionDate"`
	AcquisitionCost    decimal.Decimal `json:"acquisitionCost"`
	UsefulLife         int             `json:"usefulLife"`
	DepreciationMethod string          `json:"depreciationMethod,omitempty"`
	ResidualValue      decimal.Decimal `json:"residualValue"`
	SourceID           string          `json:"sourceId,omitempty"`
}

type runRequest struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	status := core.AssetStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	list, err := s.backend.Assets.List(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Asset{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := optionalDate("acquisitionDate", req.AcquisitionDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if date.IsZero() {
		writeError(w, r, &core.ValidationError{Field: "acquisitionDate", Message: "acquisition date is required"})
		return
	}
	a, err := s.backend.Assets.CreateAsset(r.Context(), assets.CreateRequest{
		Name:               sanitizeInput(req.Name),
		Category:           req.Category,
		AccountNumber:      req.AccountNumber,
		AcquisitionDate:    date,
		AcquisitionCost:    req.AcquisitionCost,
		UsefulLife:         req.UsefulLife,
		DepreciationMethod: core.DepreciationMethod(req.DepreciationMethod),
		ResidualValue:      req.ResidualValue,
		SourceID:           sanitizeInput(req.SourceID),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse(a).Status(http.StatusCreated).Header("Location", "/api/assets/"+itoa(a.ID)).Write(w)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.backend.Assets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDisposeAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.backend.Assets.Dispose(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAssetDepreciation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := s.backend.Assets.DepreciationHistory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if history == nil {
		history = []core.DepreciationEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleRunDepreciation runs the given period, or the current month when the
// body is empty.
func (s *Server) handleRunDepreciation(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	p := core.PeriodOf(s.now())
	switch {
	case req.Year == 0 && req.Month == 0:
	case req.Year == 0 || req.Month == 0:
		writeError(w, r, &core.ValidationError{Field: "month", Message: "year and month must be given together"})
		return
	default:
		p = core.Period{Year: req.Year, Month: req.Month}
	}
	summary, err := s.backend.Engine.RunPeriod(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
