// Package provisions records accrual provisions (Rückstellungen). They are
// an independent bucket and never post ledger entries.
package provisions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
	"buchhaltung/internal/storage"
)

// Accepted distance of a provision year from the current year.
const (
	maxYearsBack  = 10
	maxYearsAhead = 5
)

type CreateRequest struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Year        int             `json:"year"`
	Description string          `json:"description"`
	Reason      string          `json:"reason,omitempty"`
	CreatedBy   string          `json:"createdBy"`
}

// TypeTotal is one line of a yearly summary.
type TypeTotal struct {
	Type   core.ProvisionType `json:"type"`
	Count  int                `json:"count"`
	Amount decimal.Decimal    `json:"amount"`
}

type Summary struct {
	Year  int             `json:"year"`
	Lines []TypeTotal     `json:"lines"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type Service struct {
	store storage.ProvisionStore
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store storage.ProvisionStore, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateProvision(ctx context.Context, req CreateRequest) (core.Provision, error) {
	t, err := core.ParseProvisionType(req.Type)
	if err != nil {
		return core.Provision{}, err
	}
	current := s.now().Year()
	if req.Year < current-maxYearsBack || req.Year > current+maxYearsAhead {
		return core.Provision{}, &core.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between %d and %d", current-maxYearsBack, current+maxYearsAhead),
		}
	}

	p := core.Provision{
		Type:        t,
		Amount:      core.Round2(req.Amount),
		Year:        req.Year,
		Description: strings.TrimSpace(req.Description),
		Reason:      strings.TrimSpace(req.Reason),
		CreatedBy:   strings.TrimSpace(req.CreatedBy),
	}
	if err := p.Validate(); err != nil {
		return core.Provision{}, err
	}

	created, err := s.store.CreateProvision(ctx, p)
	if err != nil {
		return core.Provision{}, fmt.Errorf("create provision: %w", err)
	}
	slog.InfoContext(ctx, "Provision created",
		"provision_id", created.ID,
		"type", created.Type,
		"year", created.Year,
		"amount", created.Amount.StringFixed(2))
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (core.Provision, error) {
	return s.store.GetProvision(ctx, id)
}

func (s *Service) ByYear(ctx context.Context, year int) ([]core.Provision, error) {
	return s.store.ListProvisions(ctx, storage.ProvisionFilter{Year: year})
}

func (s *Service) ByType(ctx context.Context, t string) ([]core.Provision, error) {
	pt, err := core.ParseProvisionType(t)
	if err != nil {
		return nil, err
	}
	return s.store.ListProvisions(ctx, storage.ProvisionFilter{Type: pt})
}

// Active lists provisions for the current or a later year.
func (s *Service) Active(ctx context.Context) ([]core.Provision, error) {
	return s.store.ListProvisions(ctx, storage.ProvisionFilter{MinYear: s.now().Year()})
}

// List combines the filters of ByYear, ByType and Active. An empty type and
// a zero year do not filter.
func (s *Service) List(ctx context.Context, year int, t string, active bool) ([]core.Provision, error) {
	f := storage.ProvisionFilter{Year: year}
	if t != "" {
		pt, err := core.ParseProvisionType(t)
		if err != nil {
			return nil, err
		}
		f.Type = pt
	}
	if active {
		f.MinYear = s.now().Year()
	}
	return s.store.ListProvisions(ctx, f)
}

// Summary totals the provisions of a year per type. Every known type gets a
// line, in display order, even without provisions.
func (s *Service) Summary(ctx context.Context, year int) (Summary, error) {
	list, err := s.ByYear(ctx, year)
	if err != nil {
		return Summary{}, err
	}

	byType := make(map[core.ProvisionType]*TypeTotal)
	sum := Summary{Year: year, Total: decimal.Zero}
	for _, t := range core.ProvisionTypes() {
		sum.Lines = append(sum.Lines, TypeTotal{Type: t, Amount: decimal.Zero})
	}
	for i := range sum.Lines {
		byType[sum.Lines[i].Type] = &sum.Lines[i]
	}
	for _, p := range list {
		line := byType[p.Type]
		line.Count++
		line.Amount = line.Amount.Add(p.Amount)
		sum.Count++
		sum.Total = sum.Total.Add(p.Amount)
	}
	return sum, nil
}
