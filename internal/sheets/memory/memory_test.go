package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buchhaltung/internal/core"
	"buchhaltung/internal/export"
	"buchhaltung/internal/reports"
)

func TestWriteReportReplacesTab(t *testing.T) {
	s := New()
	period := core.DateRange{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 12, 31)}

	first := export.VATReturnTable(reports.VATReturn{Period: period, TotalOutputVAT: decimal.NewFromInt(19)})
	ref, err := s.WriteReport(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, "2025 USTVA!A1:C10", ref)

	_, err = s.WriteReport(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025 USTVA"}, s.Tabs())

	values, ok := s.Tab("2025 USTVA")
	require.True(t, ok)
	assert.Equal(t, "Umsatzsteuer-Voranmeldung 01.01.2025 bis 31.12.2025", values[0][0])
}
