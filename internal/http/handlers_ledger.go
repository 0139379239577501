package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
	"buchhaltung/internal/ledger"
)

type postEntryRequest struct {
	BookingDate   string           `json:"bookingDate"`
	DebitAccount  string           `json:"debitAccount"`
	CreditAccount string           `json:"creditAccount"`
	Amount        decimal.Decimal  `json:"amount"`
	VATRate       *decimal.Decimal `json:"vatRate,omitempty"`
	VATAmount     *decimal.Decimal `json:"vatAmount,omitempty"`
	NetAmount     *decimal.Decimal `json:"netAmount,omitempty"`
	Description   string           `json:"description"`
	SourceType    string           `json:"sourceType,omitempty"`
	SourceID      string           `json:"sourceId,omitempty"`
}

type reverseRequest struct {
	Date string `json:"date,omitempty"`
}

type commissionRequest struct {
	BookingID string          `json:"bookingId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date,omitempty"`
}

type entryList struct {
	Entries []core.LedgerEntry `json:"entries"`
	Count   int                `json:"count"`
	Limit   int                `json:"limit"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	f, err := ParseEntryFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.backend.Ledger.QueryEntries(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := f.Limit
	if limit <= 0 || limit > core.DefaultEntryLimit {
		limit = core.DefaultEntryLimit
	}
	if entries == nil {
		entries = []core.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entryList{Entries: entries, Count: len(entries), Limit: limit})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.backend.Ledger.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handlePostEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := optionalDate("bookingDate", req.BookingDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.backend.Ledger.PostEntry(r.Context(), ledger.PostRequest{
		BookingDate:   date,
		DebitAccount:  req.DebitAccount,
		CreditAccount: req.CreditAccount,
		Amount:        req.Amount,
		VATRate:       req.VATRate,
		VATAmount:     req.VATAmount,
		NetAmount:     req.NetAmount,
		Description:   sanitizeInput(req.Description),
		SourceType:    core.SourceType(strings.ToUpper(strings.TrimSpace(req.SourceType))),
		SourceID:      sanitizeInput(req.SourceID),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreatedEntry(w, e)
}

func (s *Server) handleReverseEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reverseRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := optionalDate("date", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	storno, err := s.backend.Ledger.ReverseEntryOn(r.Context(), id, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreatedEntry(w, storno)
}

func (s *Server) handlePostCommission(w http.ResponseWriter, r *http.Request) {
	var req commissionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := optionalDate("date", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if date.IsZero() {
		date = core.DateOf(s.now())
	}
	e, err := s.backend.Ledger.PostCommissionEntry(r.Context(), sanitizeInput(req.BookingID), req.Amount, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreatedEntry(w, e)
}

func writeCreatedEntry(w http.ResponseWriter, e core.LedgerEntry) {
	NewJSONResponse(e).
		Status(http.StatusCreated).
		Header("Location", "/api/ledger/entries/"+itoa(e.ID)).
		Write(w)
}
