package sheets

import (
	"context"

	"buchhaltung/internal/export"
)

// ReportWriter publishes a report table to a spreadsheet. It returns a
// reference to the written range.
type ReportWriter interface {
	WriteReport(ctx context.Context, t export.Table) (ref string, err error)
}
