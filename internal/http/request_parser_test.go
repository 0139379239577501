package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buchhaltung/internal/core"
)

func TestParseReportRange(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{"explicit", "startDate=2025-04-01&endDate=2025-06-30", core.NewDate(2025, 4, 1), core.NewDate(2025, 6, 30), false},
		{"defaults to current year", "", core.NewDate(2025, 1, 1), core.NewDate(2025, 12, 31), false},
		{"open end", "startDate=2025-03-01", core.NewDate(2025, 3, 1), core.NewDate(2025, 12, 31), false},
		{"single day", "startDate=2025-03-01&endDate=2025-03-01", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 1), false},
		{"inverted", "startDate=2025-06-30&endDate=2025-04-01", time.Time{}, time.Time{}, true},
		{"german date", "startDate=01.04.2025", time.Time{}, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			r, err := ParseReportRange(q, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, r.Start)
			assert.Equal(t, tt.wantEnd, r.End)
		})
	}
}

func TestParseEntryFilter(t *testing.T) {
	q, err := url.ParseQuery("from=2025-01-01&to=2025-03-31&accountFrom=4000&accountTo=4999" +
		"&minAmount=10.5&maxAmount=200&sourceType=commission&sourceId=BK-1&storno=false&q=%20Miete%01&limit=20")
	require.NoError(t, err)

	f, err := ParseEntryFilter(q)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2025, 1, 1), f.From)
	assert.Equal(t, core.NewDate(2025, 3, 31), f.To)
	assert.Equal(t, "4000", f.AccountFrom)
	assert.Equal(t, "4999", f.AccountTo)
	require.NotNil(t, f.MinAmount)
	assert.True(t, f.MinAmount.Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, core.SourceCommission, f.SourceType)
	assert.Equal(t, "BK-1", f.SourceID)
	require.NotNil(t, f.Storno)
	assert.False(t, *f.Storno)
	assert.Equal(t, "Miete", f.Search)
	assert.Equal(t, 20, f.Limit)

	empty, err := ParseEntryFilter(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, empty.Storno)
	assert.Nil(t, empty.MinAmount)
	assert.Equal(t, core.DefaultEntryLimit, empty.Limit)
}

func TestParseEntryFilterRejects(t *testing.T) {
	for _, raw := range []string{
		"from=2025-13-01",
		"minAmount=zehn",
		"storno=vielleicht",
		"limit=all",
		"from=2025-03-01&to=2025-02-01",
		"accountFrom=5000&accountTo=4000",
		"sourceType=GIFT",
	} {
		q, err := url.ParseQuery(raw)
		require.NoError(t, err)
		_, err = ParseEntryFilter(q)
		assert.Error(t, err, raw)
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	decodeBody := func(raw string, allowEmpty bool) (body, error) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		var b body
		err := decodeJSON(httptest.NewRecorder(), r, &b, allowEmpty)
		return b, err
	}

	b, err := decodeBody(`{"name":"Hebebühne"}`, false)
	require.NoError(t, err)
	assert.Equal(t, "Hebebühne", b.Name)

	_, err = decodeBody(``, true)
	assert.NoError(t, err)

	for _, raw := range []string{``, `{"name":1}`, `{"nam":"x"}`, `{"name":"a"}{"name":"b"}`, `[`} {
		_, err := decodeBody(raw, false)
		var reqErr *requestError
		assert.ErrorAs(t, err, &reqErr, raw)
	}

	_, err = decodeBody(`{"name":"`+strings.Repeat("x", maxBodyBytes)+`"}`, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.SetPathValue("id", "42")
	id, err := pathID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, v := range []string{"0", "-1", "x", ""} {
		r.SetPathValue("id", v)
		_, err := pathID(r, "id")
		assert.Error(t, err, v)
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Reifenwechsel Winter", sanitizeInput("  Reifenwechsel\x00 Winter\x07 "))
	assert.Equal(t, "a\tb\nc", sanitizeInput("a\tb\nc"))
	assert.Len(t, []rune(sanitizeInput(strings.Repeat("ä", maxTextLength+10))), maxTextLength)
}
