// Package assets is the fixed asset registry (Anlagenverzeichnis).
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/core"
	"buchhaltung/internal/storage"
)

// CategoryAccounts maps asset categories to their default balance sheet account.
var CategoryAccounts = map[string]string{
	"vehicle":   "0520",
	"truck":     "0540",
	"office":    "0650",
	"low_value": "0670",
	"equipment": "0690",
}

const defaultAssetAccount = "0690"

// CreateRequest registers a purchased asset. AccountNumber is optional and
// defaults from the category. SourceID identifies the purchase in the
// originating system; an asset is registered at most once per SourceID.
type CreateRequest struct {
	Name               string                  `json:"name"`
	Category           string                  `json:"category"`
	AccountNumber      string                  `json:"accountNumber,omitempty"`
	AcquisitionDate    time.Time               `json:"acquisitionDate"`
	AcquisitionCost    decimal.Decimal         `json:"acquisitionCost"`
	UsefulLife         int                     `json:"usefulLife"`
	DepreciationMethod core.DepreciationMethod `json:"depreciationMethod"`
	ResidualValue      decimal.Decimal         `json:"residualValue"`
	SourceID           string                  `json:"sourceId,omitempty"`
}

type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// AnnualDepreciation computes the yearly amount fixed at creation.
//
// LINEAR spreads (cost - residual) evenly over the useful life. DECLINING
// applies the German degressive rate, the lower of 2.5 times the linear rate
// and 25 %, to the acquisition cost. The amount is not recomputed in later
// years.
func AnnualDepreciation(method core.DepreciationMethod, cost, residual decimal.Decimal, usefulLife int) decimal.Decimal {
	base := cost.Sub(residual)
	life := decimal.NewFromInt(int64(usefulLife))
	switch method {
	case core.MethodDeclining:
		rate := decimal.NewFromFloat(2.5).Div(life)
		if ceiling := decimal.NewFromFloat(0.25); rate.GreaterThan(ceiling) {
			rate = ceiling
		}
		annual := core.Round2(cost.Mul(rate))
		if annual.GreaterThan(base) {
			annual = base
		}
		return annual
	default:
		return core.Round2(base.Div(life))
	}
}

// CreateAsset validates and stores an asset with book value equal to its
// acquisition cost and assigns the next asset number of the acquisition year.
func (s *Service) CreateAsset(ctx context.Context, req CreateRequest) (core.Asset, error) {
	method := core.DepreciationMethod(strings.ToUpper(strings.TrimSpace(string(req.DepreciationMethod))))
	if method == "" {
		method = core.MethodLinear
	}
	category := strings.ToLower(strings.TrimSpace(req.Category))
	account := strings.TrimSpace(req.AccountNumber)
	if account == "" {
		account = defaultAssetAccount
		if n, ok := CategoryAccounts[category]; ok {
			account = n
		}
	}

	a := core.Asset{
		Name:               strings.TrimSpace(req.Name),
		Category:           category,
		AccountNumber:      account,
		AcquisitionDate:    core.DateOf(req.AcquisitionDate),
		AcquisitionCost:    core.Round2(req.AcquisitionCost),
		UsefulLife:         req.UsefulLife,
		DepreciationMethod: method,
		ResidualValue:      core.Round2(req.ResidualValue),
		BookValue:          core.Round2(req.AcquisitionCost),
		Status:             core.AssetActive,
		SourceID:           strings.TrimSpace(req.SourceID),
	}
	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}
	a.AnnualDepreciation = AnnualDepreciation(a.DepreciationMethod, a.AcquisitionCost, a.ResidualValue, a.UsefulLife)

	var created core.Asset
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		if a.SourceID != "" {
			existing, found, err := tx.FindAssetBySource(ctx, a.SourceID)
			if err != nil {
				return err
			}
			if found {
				return &core.ConflictError{Entity: "asset", Key: a.SourceID, Reason: "already registered as " + existing.AssetNumber}
			}
		}
		if _, err := accounts.RequireActive(ctx, tx, a.AccountNumber); err != nil {
			return err
		}
		year := a.AcquisitionDate.Year()
		n, err := tx.NextSequence(ctx, storage.AssetSequence(year))
		if err != nil {
			return fmt.Errorf("assign asset number: %w", err)
		}
		a.AssetNumber = fmt.Sprintf("AV-%d-%04d", year, n)
		created, err = tx.CreateAsset(ctx, a)
		return err
	})
	if err != nil {
		return core.Asset{}, err
	}

	slog.InfoContext(ctx, "Asset registered",
		"asset_number", created.AssetNumber,
		"name", created.Name,
		"cost", created.AcquisitionCost.StringFixed(2),
		"annual_depreciation", created.AnnualDepreciation.StringFixed(2),
		"method", created.DepreciationMethod)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (core.Asset, error) {
	return s.store.GetAsset(ctx, id)
}

// List filters by status; the empty status lists every asset.
func (s *Service) List(ctx context.Context, status core.AssetStatus) ([]core.Asset, error) {
	if status != "" && !status.IsValid() {
		return nil, &core.InvalidTypeError{Kind: "asset status", Value: string(status)}
	}
	return s.store.ListAssets(ctx, status)
}

// Dispose moves an asset to DISPOSED; the depreciation run ignores it from
// then on.
func (s *Service) Dispose(ctx context.Context, id int64) (core.Asset, error) {
	var disposed core.Asset
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		a, err := tx.GetAsset(ctx, id)
		if err != nil {
			return err
		}
		if a.Status == core.AssetDisposed {
			return &core.ConflictError{Entity: "asset", Key: a.AssetNumber, Reason: "asset is already disposed"}
		}
		if err := tx.SetAssetStatus(ctx, id, core.AssetDisposed); err != nil {
			return err
		}
		a.Status = core.AssetDisposed
		disposed = a
		return nil
	})
	if err != nil {
		return core.Asset{}, err
	}
	slog.InfoContext(ctx, "Asset disposed", "asset_number", disposed.AssetNumber, "book_value", disposed.BookValue.StringFixed(2))
	return disposed, nil
}

// DepreciationHistory lists the monthly postings of an asset, oldest first.
func (s *Service) DepreciationHistory(ctx context.Context, id int64) ([]core.DepreciationEntry, error) {
	if _, err := s.store.GetAsset(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListDepreciationEntries(ctx, id)
}
