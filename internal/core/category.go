package core

import "strings"

// AccountCategory is the report classification of an account. It is derived
// from the account number once, when the account is created.
type AccountCategory string

const (
	CategoryRevenueCommission     AccountCategory = "revenue_commission"
	CategoryRevenueOther          AccountCategory = "revenue_other"
	CategoryExpenseWages          AccountCategory = "expense_wages"
	CategoryExpenseSocialSecurity AccountCategory = "expense_social_security"
	CategoryExpenseCommissions    AccountCategory = "expense_commissions"
	CategoryExpenseTravel         AccountCategory = "expense_travel"
	CategoryExpenseVehicle        AccountCategory = "expense_vehicle"
	CategoryExpenseRent           AccountCategory = "expense_rent"
	CategoryExpenseInsurance      AccountCategory = "expense_insurance"
	CategoryExpenseMarketing      AccountCategory = "expense_marketing"
	CategoryExpenseOther          AccountCategory = "expense_other"
	CategoryBalanceSheet          AccountCategory = "balance_sheet"
)

// Accounts with a fixed report line.
const (
	AccountCommissionRevenue = "8400"
	AccountWages             = "4120"
	AccountSocialSecurity    = "4130"
	AccountRent              = "4210"
	AccountInsurance         = "4360"
	AccountMarketing         = "4630"
	AccountCommissions       = "4650"
	AccountTravel            = "4670"
)

var exactCategories = map[string]AccountCategory{
	AccountCommissionRevenue: CategoryRevenueCommission,
	AccountWages:             CategoryExpenseWages,
	AccountSocialSecurity:    CategoryExpenseSocialSecurity,
	AccountRent:              CategoryExpenseRent,
	AccountInsurance:         CategoryExpenseInsurance,
	AccountMarketing:         CategoryExpenseMarketing,
	AccountCommissions:       CategoryExpenseCommissions,
	AccountTravel:            CategoryExpenseTravel,
}

// ClassifyAccount maps an account number to its report category:
// 8xxx revenue, 4xxx and 6xxx expense, 63xx vehicle costs.
func ClassifyAccount(number string) AccountCategory {
	if c, ok := exactCategories[number]; ok {
		return c
	}
	switch {
	case strings.HasPrefix(number, "8"):
		return CategoryRevenueOther
	case strings.HasPrefix(number, "63"):
		return CategoryExpenseVehicle
	case strings.HasPrefix(number, "4"), strings.HasPrefix(number, "6"):
		return CategoryExpenseOther
	}
	return CategoryBalanceSheet
}

func (c AccountCategory) IsRevenue() bool {
	return c == CategoryRevenueCommission || c == CategoryRevenueOther
}

func (c AccountCategory) IsExpense() bool {
	return strings.HasPrefix(string(c), "expense_")
}

func (c AccountCategory) IsValid() bool {
	switch c {
	case CategoryRevenueCommission, CategoryRevenueOther, CategoryExpenseWages,
		CategoryExpenseSocialSecurity, CategoryExpenseCommissions, CategoryExpenseTravel,
		CategoryExpenseVehicle, CategoryExpenseRent, CategoryExpenseInsurance,
		CategoryExpenseMarketing, CategoryExpenseOther, CategoryBalanceSheet:
		return true
	}
	return false
}
