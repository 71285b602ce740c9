// Package calculator builds the EBITDA statement as an expression tree
// over the mapped transaction set. Line items are symbolic, not
// pre-computed scalars: the exporter renders each expression as a live
// spreadsheet formula, and Evaluate mirrors the same semantics in Go so
// tests can assert the numbers the formulas would produce.
package calculator

import (
	"strings"

	"databook/internal/mapping"
	"databook/pkg/contracts/domain"
)

// Side selects the directional convention of a category aggregate.
// Revenue-like lines are credit-normal, cost-like lines debit-normal,
// so both present as positive numbers on the statement.
type Side int

const (
	CreditMinusDebit Side = iota
	DebitMinusCredit
)

// Basis discloses where a line item's number comes from. It is printed
// next to every statement line so a reviewer can tell an exact mapped
// aggregate from a keyword approximation at a glance.
type Basis string

const (
	// BasisMapped sums rows whose account is explicitly mapped to the
	// line's category.
	BasisMapped Basis = "mapped"
	// BasisTextMatch approximates the category by keyword search over
	// account names; used only when no account maps to the category.
	BasisTextMatch Basis = "text-match"
	// BasisDerived marks lines computed from other lines.
	BasisDerived Basis = "derived"
	// BasisNone marks constant lines (zero placeholders, adjustments).
	BasisNone Basis = "none"
)

// Expr is a node of a statement expression. Implementations are the
// closed set below; the exporter switches over them exhaustively when
// rendering formulas.
type Expr interface {
	isExpr()
}

// CategorySum aggregates transaction amounts for one category. When
// Basis is BasisTextMatch the Keywords drive a substring match over
// flattened account names instead of the category column.
type CategorySum struct {
	Category domain.Category
	Side     Side
	Basis    Basis
	Keywords []string
}

// LineRef references another line item of the same statement by name.
type LineRef struct {
	Name string
}

// Literal is a constant value.
type Literal struct {
	Value float64
}

// Sum combines signed terms.
type Sum struct {
	Terms []Term
}

// Term is one signed operand of a Sum. Sign is +1 or -1.
type Term struct {
	Sign int
	Expr Expr
}

func (CategorySum) isExpr() {}
func (LineRef) isExpr()     {}
func (Literal) isExpr()     {}
func (Sum) isExpr()         {}

// LineItem is one row of the statement.
type LineItem struct {
	Name  string
	Expr  Expr
	Basis Basis
}

// Statement is the ordered EBITDA presentation. Line order is fixed so
// LineRef resolution and spreadsheet row positions are deterministic.
type Statement struct {
	Lines []LineItem
}

// Line returns the named line item, or nil when absent.
func (s *Statement) Line(name string) *LineItem {
	for i := range s.Lines {
		if s.Lines[i].Name == name {
			return &s.Lines[i]
		}
	}
	return nil
}

// Statement line names. Derived lines reference these, and the exporter
// uses them as row labels.
const (
	LineRevenue        = "Revenue"
	LineCOGS           = "COGS"
	LineGrossProfit    = "Gross Profit"
	LineOpEx           = "Operating Expenses"
	LineInterest       = "Interest"
	LineTaxes          = "Taxes"
	LineDA             = "Depreciation & Amortization"
	LineNetIncome      = "Net Income"
	LineEBITDA         = "EBITDA"
	LineAdjustments    = "Adjustments"
	LineAdjustedEBITDA = "Adjusted EBITDA"
)

// BuildStatement assembles the EBITDA statement for a run. Each base
// category line sums explicitly mapped rows when at least one account
// maps to the category; a category with no mapped account at all falls
// back to keyword matching over account names, disclosed per line.
// Fallback never overrides a partial mapping.
func BuildStatement(txns []domain.MappedTransaction, entries []domain.MappingEntry, adjs []domain.Adjustment) *Statement {
	mappedCats := make(map[domain.Category]bool)
	for _, e := range entries {
		if e.MainCategory != "" {
			mappedCats[e.MainCategory] = true
		}
	}

	base := func(cat domain.Category, side Side) LineItem {
		name := lineName(cat)
		if mappedCats[cat] {
			return LineItem{
				Name:  name,
				Expr:  CategorySum{Category: cat, Side: side, Basis: BasisMapped},
				Basis: BasisMapped,
			}
		}
		kws := mapping.Keywords(cat)
		if len(kws) == 0 {
			// no mapped accounts and no inference keywords: the line is
			// an explicit zero rather than a silent omission
			return LineItem{Name: name, Expr: Literal{}, Basis: BasisNone}
		}
		return LineItem{
			Name:  name,
			Expr:  CategorySum{Category: cat, Side: side, Basis: BasisTextMatch, Keywords: kws},
			Basis: BasisTextMatch,
		}
	}

	st := &Statement{}
	st.Lines = append(st.Lines,
		base(domain.CategoryRevenue, CreditMinusDebit),
		base(domain.CategoryCOGS, DebitMinusCredit),
		derived(LineGrossProfit, Term{+1, LineRef{LineRevenue}}, Term{-1, LineRef{LineCOGS}}),
		base(domain.CategoryOpEx, DebitMinusCredit),
		base(domain.CategoryInterest, DebitMinusCredit),
		base(domain.CategoryTaxes, DebitMinusCredit),
		base(domain.CategoryDA, DebitMinusCredit),
		derived(LineNetIncome,
			Term{+1, LineRef{LineGrossProfit}},
			Term{-1, LineRef{LineOpEx}},
			Term{-1, LineRef{LineInterest}},
			Term{-1, LineRef{LineTaxes}},
			Term{-1, LineRef{LineDA}}),
		derived(LineEBITDA,
			Term{+1, LineRef{LineNetIncome}},
			Term{+1, LineRef{LineInterest}},
			Term{+1, LineRef{LineTaxes}},
			Term{+1, LineRef{LineDA}}),
		LineItem{Name: LineAdjustments, Expr: Literal{Value: adjustmentTotal(adjs)}, Basis: BasisNone},
		derived(LineAdjustedEBITDA,
			Term{+1, LineRef{LineEBITDA}},
			Term{+1, LineRef{LineAdjustments}}),
	)
	return st
}

// Evaluate computes every line item against the transaction set,
// returned keyed by line name. It mirrors the semantics the exported
// formulas carry so the two can be cross-checked.
func (s *Statement) Evaluate(txns []domain.MappedTransaction) map[string]float64 {
	values := make(map[string]float64, len(s.Lines))
	for _, li := range s.Lines {
		values[li.Name] = eval(li.Expr, txns, values)
	}
	return values
}

func eval(e Expr, txns []domain.MappedTransaction, values map[string]float64) float64 {
	switch n := e.(type) {
	case CategorySum:
		return categorySum(n, txns)
	case LineRef:
		return values[n.Name]
	case Literal:
		return n.Value
	case Sum:
		var total float64
		for _, t := range n.Terms {
			total += float64(t.Sign) * eval(t.Expr, txns, values)
		}
		return total
	}
	return 0
}

func categorySum(n CategorySum, txns []domain.MappedTransaction) float64 {
	var debits, credits float64
	for _, t := range txns {
		if n.Basis == BasisTextMatch {
			if !keywordMatch(t.AccountNameFlat, n.Keywords) {
				continue
			}
		} else if t.MainCategory != n.Category {
			continue
		}
		debits += t.Debit
		credits += t.Credit
	}
	if n.Side == CreditMinusDebit {
		return credits - debits
	}
	return debits - credits
}

func keywordMatch(account string, keywords []string) bool {
	name := strings.ToLower(account)
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// adjustmentTotal nets the discretionary adjustments: add-backs
// increase Adjusted EBITDA, removals decrease it.
func adjustmentTotal(adjs []domain.Adjustment) float64 {
	var total float64
	for _, a := range adjs {
		if a.AddBack {
			total += a.Amount
		} else {
			total -= a.Amount
		}
	}
	return total
}

func derived(name string, terms ...Term) LineItem {
	return LineItem{Name: name, Expr: Sum{Terms: terms}, Basis: BasisDerived}
}

// lineName maps a category to its statement label.
func lineName(cat domain.Category) string {
	switch cat {
	case domain.CategoryRevenue:
		return LineRevenue
	case domain.CategoryCOGS:
		return LineCOGS
	case domain.CategoryOpEx:
		return LineOpEx
	case domain.CategoryInterest:
		return LineInterest
	case domain.CategoryTaxes:
		return LineTaxes
	case domain.CategoryDA:
		return LineDA
	}
	return string(cat)
}
