package assets

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buchhaltung/internal/accounts"
	"buchhaltung/internal/core"
	"buchhaltung/internal/storage/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(t *testing.T) *Service {
	t.Helper()
	store := memory.New()
	chart, err := accounts.LoadChart("")
	require.NoError(t, err)
	_, err = accounts.NewRegistry(store).Seed(context.Background(), chart)
	require.NoError(t, err)
	return NewService(store)
}

func TestAnnualDepreciation(t *testing.T) {
	cases := []struct {
		method   core.DepreciationMethod
		cost     string
		residual string
		life     int
		want     string
	}{
		{core.MethodLinear, "6000", "0", 5, "1200"},
		{core.MethodLinear, "1000", "0", 3, "333.33"},
		{core.MethodLinear, "6000", "1000", 5, "1000"},
		{core.MethodDeclining, "10000", "0", 10, "2500"}, // 25 % cap
		{core.MethodDeclining, "10000", "0", 20, "1250"}, // 2.5 x 5 %
		{core.MethodDeclining, "1000", "900", 5, "100"},  // bounded by depreciable base
	}
	for _, tc := range cases {
		got := AnnualDepreciation(tc.method, dec(tc.cost), dec(tc.residual), tc.life)
		assert.True(t, got.Equal(dec(tc.want)), "%s %s/%d: want %s got %s", tc.method, tc.cost, tc.life, tc.want, got)
	}
}

func TestCreateAsset(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	a, err := svc.CreateAsset(ctx, CreateRequest{
		Name:            "Reifenmontiermaschine",
		Category:        "Equipment",
		AcquisitionDate: core.NewDate(2025, 1, 15),
		AcquisitionCost: dec("6000"),
		UsefulLife:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, "AV-2025-0001", a.AssetNumber)
	assert.Equal(t, "0690", a.AccountNumber)
	assert.Equal(t, core.MethodLinear, a.DepreciationMethod)
	assert.True(t, a.AnnualDepreciation.Equal(dec("1200")))
	assert.True(t, a.BookValue.Equal(dec("6000")))
	assert.Equal(t, core.AssetActive, a.Status)
	assert.False(t, a.FullyDepreciated)

	b, err := svc.CreateAsset(ctx, CreateRequest{
		Name: "Transporter", Category: "vehicle", AcquisitionDate: core.NewDate(2025, 3, 1),
		AcquisitionCost: dec("30000"), UsefulLife: 6, DepreciationMethod: "declining",
	})
	require.NoError(t, err)
	assert.Equal(t, "AV-2025-0002", b.AssetNumber)
	assert.Equal(t, "0520", b.AccountNumber)
	assert.Equal(t, core.MethodDeclining, b.DepreciationMethod)

	c, err := svc.CreateAsset(ctx, CreateRequest{
		Name: "Laptop", Category: "office", AcquisitionDate: core.NewDate(2026, 2, 1),
		AcquisitionCost: dec("1500"), UsefulLife: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "AV-2026-0001", c.AssetNumber, "numbering restarts per year")
}

func TestCreateAssetRejects(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	base := CreateRequest{
		Name: "Kompressor", Category: "equipment", AcquisitionDate: core.NewDate(2025, 1, 1),
		AcquisitionCost: dec("2000"), UsefulLife: 5,
	}

	bad := []func(r *CreateRequest){
		func(r *CreateRequest) { r.Name = " " },
		func(r *CreateRequest) { r.AcquisitionCost = dec("0") },
		func(r *CreateRequest) { r.UsefulLife = 0 },
		func(r *CreateRequest) { r.DepreciationMethod = "SUM_OF_YEARS" },
		func(r *CreateRequest) { r.ResidualValue = dec("2500") },
		func(r *CreateRequest) { r.AccountNumber = "0999" },
	}
	for i, mutate := range bad {
		req := base
		mutate(&req)
		_, err := svc.CreateAsset(ctx, req)
		assert.Error(t, err, "case %d", i)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateAssetOncePerSource(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	req := CreateRequest{
		Name:            "Hebebühne",
		Category:        "equipment",
		AcquisitionDate: core.NewDate(2025, 2, 1),
		AcquisitionCost: dec("8000"),
		UsefulLife:      8,
		SourceID:        "PO-2025-17",
	}
	first, err := svc.CreateAsset(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-17", first.SourceID)

	_, err = svc.CreateAsset(ctx, req)
	require.ErrorIs(t, err, core.ErrConflict)
	assert.Contains(t, err.Error(), first.AssetNumber)

	req.SourceID = ""
	_, err = svc.CreateAsset(ctx, req)
	require.NoError(t, err, "assets without a source reference are not deduplicated")

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDispose(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	a, err := svc.CreateAsset(ctx, CreateRequest{
		Name: "Hebebühne", Category: "equipment", AcquisitionDate: core.NewDate(2025, 1, 1),
		AcquisitionCost: dec("8000"), UsefulLife: 10,
	})
	require.NoError(t, err)

	d, err := svc.Dispose(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, core.AssetDisposed, d.Status)

	_, err = svc.Dispose(ctx, a.ID)
	assert.ErrorIs(t, err, core.ErrConflict)

	active, err := svc.List(ctx, core.AssetActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.List(ctx, "SOLD")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.DepreciationHistory(ctx, 42)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
