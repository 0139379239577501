package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

const (
	SourceManual           SourceType = "MANUAL"
	SourceCommission       SourceType = "COMMISSION"
	SourceInfluencerPayout SourceType = "INFLUENCER_PAYOUT"
	SourceSEPACollection   SourceType = "SEPA_COLLECTION"
	SourcePaymentFee       SourceType = "PAYMENT_FEE"
	SourceDepreciation     SourceType = "DEPRECIATION"
)

const (
	MethodLinear    DepreciationMethod = "LINEAR"
	MethodDeclining DepreciationMethod = "DECLINING"

	AssetActive   AssetStatus = "ACTIVE"
	AssetDisposed AssetStatus = "DISPOSED"
)

const (
	ProvisionTax        ProvisionType = "TAX"
	ProvisionVacation   ProvisionType = "VACATION"
	ProvisionAudit      ProvisionType = "AUDIT"
	ProvisionWarranty   ProvisionType = "WARRANTY"
	ProvisionLitigation ProvisionType = "LITIGATION"
	ProvisionArchiving  ProvisionType = "ARCHIVING"
	ProvisionOther      ProvisionType = "OTHER"
)

// DefaultEntryLimit caps interactive ledger queries.
const DefaultEntryLimit = 100

type (
	AccountType        string
	SourceType         string
	DepreciationMethod string
	AssetStatus        string
	ProvisionType      string

	Account struct {
		Number    string          `json:"number"`
		Name      string          `json:"name"`
		Type      AccountType     `json:"type"`
		Category  AccountCategory `json:"category"`
		IsActive  bool            `json:"isActive"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// LedgerEntry is one double-entry posting. Entries are never updated;
	// corrections are stornos pointing back through ReversesID.
	LedgerEntry struct {
		ID            int64            `json:"id"`
		EntryNumber   string           `json:"entryNumber"`
		BookingDate   time.Time        `json:"bookingDate"`
		DebitAccount  string           `json:"debitAccount"`
		CreditAccount string           `json:"creditAccount"`
		Amount        decimal.Decimal  `json:"amount"`
		VATRate       *decimal.Decimal `json:"vatRate,omitempty"`
		VATAmount     *decimal.Decimal `json:"vatAmount,omitempty"`
		NetAmount     *decimal.Decimal `json:"netAmount,omitempty"`
		Description   string           `json:"description"`
		SourceType    SourceType       `json:"sourceType"`
		SourceID      string           `json:"sourceId,omitempty"`
		IsStorno      bool             `json:"isStorno"`
		ReversesID    *int64           `json:"reversesId,omitempty"`
		CreatedAt     time.Time        `json:"createdAt"`
	}

	Asset struct {
		ID                 int64              `json:"id"`
		AssetNumber        string             `json:"assetNumber"`
		Name               string             `json:"name"`
		Category           string             `json:"category"`
		AccountNumber      string             `json:"accountNumber"`
		AcquisitionDate    time.Time          `json:"acquisitionDate"`
		AcquisitionCost    decimal.Decimal    `json:"acquisitionCost"`
		UsefulLife         int                `json:"usefulLife"`
		DepreciationMethod DepreciationMethod `json:"depreciationMethod"`
		ResidualValue      decimal.Decimal    `json:"residualValue"`
		AnnualDepreciation decimal.Decimal    `json:"annualDepreciation"`
		BookValue          decimal.Decimal    `json:"bookValue"`
		Status             AssetStatus        `json:"status"`
		FullyDepreciated   bool               `json:"fullyDepreciated"`
		SourceID           string             `json:"sourceId,omitempty"`
		CreatedAt          time.Time          `json:"createdAt"`
	}

	DepreciationEntry struct {
		ID            int64           `json:"id"`
		AssetID       int64           `json:"assetId"`
		Year          int             `json:"year"`
		Month         int             `json:"month"`
		Amount        decimal.Decimal `json:"amount"`
		BookValue     decimal.Decimal `json:"bookValue"`
		LedgerEntryID *int64          `json:"ledgerEntryId,omitempty"`
		Notes         string          `json:"notes"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	Provision struct {
		ID          int64           `json:"id"`
		Type        ProvisionType   `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Year        int             `json:"year"`
		Description string          `json:"description"`
		Reason      string          `json:"reason,omitempty"`
		CreatedBy   string          `json:"createdBy"`
		CreatedAt   time.Time       `json:"createdAt"`
	}
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

func (s SourceType) IsValid() bool {
	switch s {
	case SourceManual, SourceCommission, SourceInfluencerPayout, SourceSEPACollection, SourcePaymentFee, SourceDepreciation:
		return true
	}
	return false
}

func (m DepreciationMethod) IsValid() bool {
	return m == MethodLinear || m == MethodDeclining
}

func (s AssetStatus) IsValid() bool {
	return s == AssetActive || s == AssetDisposed
}

// ProvisionTypes lists the recognised provision types in display order.
func ProvisionTypes() []ProvisionType {
	return []ProvisionType{
		ProvisionTax, ProvisionVacation, ProvisionAudit, ProvisionWarranty,
		ProvisionLitigation, ProvisionArchiving, ProvisionOther,
	}
}

func (p ProvisionType) IsValid() bool {
	for _, t := range ProvisionTypes() {
		if p == t {
			return true
		}
	}
	return false
}

// ParseProvisionType accepts the enum value case-insensitively.
func ParseProvisionType(s string) (ProvisionType, error) {
	t := ProvisionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", &InvalidTypeError{Kind: "provision type", Value: s}
	}
	return t, nil
}

// ValidAccountNumber reports whether n is a four digit account code.
func ValidAccountNumber(n string) bool {
	if len(n) != 4 {
		return false
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (a Account) Validate() error {
	if !ValidAccountNumber(a.Number) {
		return &ValidationError{Field: "number", Message: "account number must have exactly 4 digits"}
	}
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Message: "account name is required"}
	}
	if len(a.Name) > 120 {
		return &ValidationError{Field: "name", Message: "account name too long (max 120 characters)"}
	}
	if !a.Type.IsValid() {
		return &InvalidTypeError{Kind: "account type", Value: string(a.Type)}
	}
	return nil
}

// HasVAT reports whether the entry carries a VAT breakdown.
func (e LedgerEntry) HasVAT() bool {
	return e.VATAmount != nil
}

// Validate checks the invariants every stored entry must satisfy. Account
// existence is checked by the ledger against the chart.
func (e LedgerEntry) Validate() error {
	if e.BookingDate.IsZero() {
		return &ValidationError{Field: "bookingDate", Message: "booking date is required"}
	}
	if !ValidAccountNumber(e.DebitAccount) {
		return &InvalidAccountError{Number: e.DebitAccount, Reason: "malformed account number"}
	}
	if !ValidAccountNumber(e.CreditAccount) {
		return &InvalidAccountError{Number: e.CreditAccount, Reason: "malformed account number"}
	}
	if e.DebitAccount == e.CreditAccount {
		return &SameAccountError{Number: e.DebitAccount}
	}
	if !e.Amount.IsPositive() {
		return &InvalidAmountError{Amount: e.Amount}
	}
	if strings.TrimSpace(e.Description) == "" {
		return &ValidationError{Field: "description", Message: "description is required"}
	}
	if len(e.Description) > 255 {
		return &ValidationError{Field: "description", Message: "description too long (max 255 characters)"}
	}
	if !e.SourceType.IsValid() {
		return &InvalidTypeError{Kind: "source type", Value: string(e.SourceType)}
	}
	if e.VATRate != nil && e.VATRate.IsNegative() {
		return &ValidationError{Field: "vatRate", Message: "VAT rate must not be negative"}
	}
	if e.VATAmount != nil {
		if e.NetAmount == nil {
			return &ValidationError{Field: "netAmount", Message: "net amount is required when a VAT amount is given"}
		}
		if e.VATAmount.IsNegative() || e.NetAmount.IsNegative() {
			return &ValidationError{Field: "vatAmount", Message: "VAT breakdown must not be negative"}
		}
		if !VATConsistent(e.Amount, *e.NetAmount, *e.VATAmount) {
			return &ValidationError{Field: "vatAmount", Message: "net amount plus VAT amount must equal the amount"}
		}
	}
	return nil
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Message: "asset name is required"}
	}
	if strings.TrimSpace(a.Category) == "" {
		return &ValidationError{Field: "category", Message: "asset category is required"}
	}
	if a.AcquisitionDate.IsZero() {
		return &ValidationError{Field: "acquisitionDate", Message: "acquisition date is required"}
	}
	if !a.AcquisitionCost.IsPositive() {
		return &InvalidAmountError{Amount: a.AcquisitionCost}
	}
	if a.UsefulLife < 1 || a.UsefulLife > 50 {
		return &ValidationError{Field: "usefulLife", Message: "useful life must be between 1 and 50 years"}
	}
	if !a.DepreciationMethod.IsValid() {
		return &InvalidTypeError{Kind: "depreciation method", Value: string(a.DepreciationMethod)}
	}
	if a.ResidualValue.IsNegative() || a.ResidualValue.GreaterThanOrEqual(a.AcquisitionCost) {
		return &ValidationError{Field: "residualValue", Message: "residual value must be between 0 and the acquisition cost"}
	}
	if a.BookValue.IsNegative() || a.BookValue.GreaterThan(a.AcquisitionCost) {
		return &ValidationError{Field: "bookValue", Message: "book value must be between 0 and the acquisition cost"}
	}
	return nil
}

// Depreciable reports whether the monthly run still has to touch the asset.
func (a Asset) Depreciable() bool {
	return a.Status == AssetActive && !a.FullyDepreciated
}

func (p Provision) Validate() error {
	if !p.Type.IsValid() {
		return &InvalidTypeError{Kind: "provision type", Value: string(p.Type)}
	}
	if !p.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	if strings.TrimSpace(p.Description) == "" {
		return &ValidationError{Field: "description", Message: "description is required"}
	}
	if strings.TrimSpace(p.CreatedBy) == "" {
		return &ValidationError{Field: "createdBy", Message: "creator is required"}
	}
	return nil
}
