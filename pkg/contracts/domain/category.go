package domain

// Category is the fixed chart-of-accounts classification assigned to a
// distinct account name. The set is closed: there is no free-form
// escape hatch, so formula generation can handle every member
// exhaustively without a default branch masking bugs.
type Category string

const (
	CategoryRevenue      Category = "Revenue"
	CategoryCOGS         Category = "COGS"
	CategoryOpEx         Category = "OpEx"
	CategoryOtherIncome  Category = "Other Income/Expense"
	CategoryInterest     Category = "Interest"
	CategoryTaxes        Category = "Taxes"
	CategoryDA           Category = "D&A"
	CategoryBalanceSheet Category = "Balance Sheet"
)

// Categories returns every member of the closed category set, in
// presentation order.
func Categories() []Category {
	return []Category{
		CategoryRevenue,
		CategoryCOGS,
		CategoryOpEx,
		CategoryOtherIncome,
		CategoryInterest,
		CategoryTaxes,
		CategoryDA,
		CategoryBalanceSheet,
	}
}

// Valid reports whether c is a member of the closed category set.
// The empty string (unassigned) is not a valid category.
func (c Category) Valid() bool {
	switch c {
	case CategoryRevenue, CategoryCOGS, CategoryOpEx, CategoryOtherIncome,
		CategoryInterest, CategoryTaxes, CategoryDA, CategoryBalanceSheet:
		return true
	}
	return false
}

// IncomeStatement reports whether the category participates in the
// Net Income calculation. Balance Sheet and Other Income/Expense do not.
func (c Category) IncomeStatement() bool {
	switch c {
	case CategoryRevenue, CategoryCOGS, CategoryOpEx,
		CategoryInterest, CategoryTaxes, CategoryDA:
		return true
	}
	return false
}
