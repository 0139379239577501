// Package http serves the accounting core as a JSON API.
//
// This file parses JSON bodies, query parameters and path values.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into v. Unknown fields are rejected
// so that typos in field names do not silently drop data. An empty body
// leaves v untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			if allowEmpty {
				return nil
			}
			return badRequest("", "request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("", fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		default:
			return badRequest("", "malformed JSON: "+err.Error())
		}
	}
	if dec.More() {
		return badRequest("", "request body must contain a single JSON object")
	}
	return nil
}

// optionalDate parses a YYYY-MM-DD string; the empty string is the zero time.
func optionalDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: field, Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)}
	}
	return t, nil
}

func queryDate(q url.Values, key string) (time.Time, error) {
	return optionalDate(key, q.Get(key))
}

func queryDecimal(q url.Values, key string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, badRequest(key, fmt.Sprintf("invalid amount %q", v))
	}
	return &d, nil
}

func queryBool(q url.Values, key string) (*bool, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, badRequest(key, fmt.Sprintf("invalid boolean %q", v))
	}
	return &b, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest(key, fmt.Sprintf("invalid number %q", v))
	}
	return n, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	v := r.PathValue(name)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(name, fmt.Sprintf("invalid id %q", v))
	}
	return id, nil
}

// ParseReportRange reads startDate and endDate. A missing bound defaults to
// the start or end of the current calendar year.
func ParseReportRange(q url.Values, now time.Time) (core.DateRange, error) {
	start, err := queryDate(q, "startDate")
	if err != nil {
		return core.DateRange{}, err
	}
	end, err := queryDate(q, "endDate")
	if err != nil {
		return core.DateRange{}, err
	}
	if start.IsZero() {
		start = core.NewDate(now.Year(), 1, 1)
	}
	if end.IsZero() {
		end = core.NewDate(now.Year(), 12, 31)
	}
	return core.NewDateRange(start, end)
}

// ParseEntryFilter builds a ledger query from the entry list parameters.
func ParseEntryFilter(q url.Values) (core.EntryFilter, error) {
	var (
		f   core.EntryFilter
		err error
	)
	if f.From, err = queryDate(q, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(q, "to"); err != nil {
		return f, err
	}
	if f.MinAmount, err = queryDecimal(q, "minAmount"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = queryDecimal(q, "maxAmount"); err != nil {
		return f, err
	}
	if f.Storno, err = queryBool(q, "storno"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(q, "limit", core.DefaultEntryLimit); err != nil {
		return f, err
	}
	f.AccountFrom = strings.TrimSpace(q.Get("accountFrom"))
	f.AccountTo = strings.TrimSpace(q.Get("accountTo"))
	f.SourceType = core.SourceType(strings.ToUpper(strings.TrimSpace(q.Get("sourceType"))))
	f.SourceID = sanitizeInput(q.Get("sourceId"))
	f.Search = sanitizeInput(q.Get("q"))
	return f, f.Validate()
}
