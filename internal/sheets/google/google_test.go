package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gsheet "google.golang.org/api/sheets/v4"

	"buchhaltung/internal/export"
)

func TestNewExporterRequiresSpreadsheetID(t *testing.T) {
	_, err := NewExporter(context.Background(), "  ", Credentials{JSON: "{}"})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	ctx := context.Background()

	got, err := loadCredentials(ctx, Credentials{JSON: ` {"type":"service_account"} `, File: "/nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(got))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_email":"x"}`), 0o600))
	got, err = loadCredentials(ctx, Credentials{File: path})
	require.NoError(t, err)
	assert.Contains(t, string(got), "client_email")

	_, err = loadCredentials(ctx, Credentials{File: filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "read service account file")

	_, err = loadCredentials(ctx, Credentials{})
	assert.ErrorContains(t, err, "missing service account credentials")

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	got, err = loadCredentials(ctx, Credentials{})
	require.NoError(t, err)
	assert.Contains(t, string(got), "client_email")
}

func TestWriteReportWithoutService(t *testing.T) {
	_, err := (&Exporter{spreadsheetID: "x"}).WriteReport(context.Background(), export.Table{Name: export.NameTrialBalance})
	assert.ErrorContains(t, err, "not initialized")
}

func TestHasTabAndQuote(t *testing.T) {
	list := []*gsheet.Sheet{
		{Properties: &gsheet.SheetProperties{Title: "2025 SUSA"}},
		{},
	}
	assert.True(t, hasTab(list, "2025 SUSA"))
	assert.False(t, hasTab(list, "2025 EUER"))
	assert.Equal(t, "'2025 SUSA'", quote("2025 SUSA"))
	assert.Equal(t, "'Bob''s'", quote("Bob's"))
}
