package memory

import (
	"context"
	"fmt"
	"sync"

	"buchhaltung/internal/export"
	"buchhaltung/internal/sheets"
)

// Store keeps written report tables per tab, for tests and dry runs.
type Store struct {
	mu   sync.Mutex
	tabs map[string][][]any
}

var _ sheets.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: make(map[string][][]any)}
}

// WriteReport replaces the tab's content with the table values.
func (s *Store) WriteReport(_ context.Context, t export.Table) (string, error) {
	values := sheets.Values(t)
	tab := sheets.TabName(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tab] = values
	return fmt.Sprintf("%s!A1:%s", tab, sheets.CellRef(len(t.Columns), len(values))), nil
}

// Tab returns the values last written to tab.
func (s *Store) Tab(tab string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.tabs[tab]
	return v, ok
}

func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tabs))
	for k := range s.tabs {
		out = append(out, k)
	}
	return out
}
