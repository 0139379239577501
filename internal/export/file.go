package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding/charmap"
)

// WriteJSON writes v as indented JSON. The file is replaced atomically so
// readers never observe a partial report.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes t as a semicolon separated file in Windows-1252 with
// decimal commas, the format German accounting tools import.
func WriteCSV(path string, t Table) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	err := w.Write(t.Columns)
	for _, r := range t.Rows {
		rec := append([]string(nil), r.Text...)
		for _, a := range r.Amounts {
			rec = append(rec, strings.Replace(a.StringFixed(2), ".", ",", 1))
		}
		err = multierr.Append(err, w.Write(rec))
	}
	w.Flush()
	if err = multierr.Append(err, w.Error()); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	encoded, err := charmap.Windows1252.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(encoded)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
