package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"buchhaltung/internal/export"
	"buchhaltung/internal/sheets"
)

// Credentials selects the service account: inline JSON wins over a file.
type Credentials struct {
	JSON string
	File string
}

// Exporter writes report tables to tabs of one spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ sheets.ReportWriter = (*Exporter)(nil)

// NewExporter creates a Sheets client authenticated with a service account.
// Without explicit credentials GOOGLE_APPLICATION_CREDENTIALS is used.
func NewExporter(ctx context.Context, spreadsheetID string, creds Credentials) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentialsJSON, err := loadCredentials(ctx, creds)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", spreadsheetID)
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func loadCredentials(ctx context.Context, creds Credentials) ([]byte, error) {
	inline := strings.TrimSpace(creds.JSON)
	file := strings.TrimSpace(creds.File)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteReport creates the report's tab if needed, clears it and writes the
// table starting at A1.
func (e *Exporter) WriteReport(ctx context.Context, t export.Table) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	tab := sheets.TabName(t)
	if err := e.ensureTab(ctx, tab); err != nil {
		return "", err
	}

	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, quote(tab), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear tab %s: %w", tab, err)
	}

	values := sheets.Values(t)
	rng := fmt.Sprintf("%s!A1:%s", quote(tab), sheets.CellRef(len(t.Columns), len(values)))
	resp, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write tab %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Report exported to sheet",
		"report", t.Name,
		"tab", tab,
		"rows", resp.UpdatedRows)
	return resp.UpdatedRange, nil
}

func (e *Exporter) ensureTab(ctx context.Context, tab string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	if hasTab(ss.Sheets, tab) {
		return nil
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Created sheet tab", "tab", tab)
	return nil
}

func hasTab(list []*gsheet.Sheet, tab string) bool {
	for _, s := range list {
		if s.Properties != nil && s.Properties.Title == tab {
			return true
		}
	}
	return false
}

// quote wraps a tab name for A1 notation; tab names contain spaces.
func quote(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
