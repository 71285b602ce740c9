// Package mapping assigns chart-of-accounts categories to the distinct
// account names of a processing run. Generation and application are
// separate pure functions: generate infers a mapping from transactions,
// merge folds in caller-supplied overrides, apply annotates
// transactions by reference without mutating them.
package mapping

import (
	"sort"
	"strings"

	"databook/pkg/contracts/domain"
)

// categoryRule associates a category with the substrings that imply it.
type categoryRule struct {
	category domain.Category
	keywords []string
}

// rules are evaluated in order, first match wins. Interest, Taxes and
// D&A precede OpEx so their specific keywords beat the generic expense
// terms ("interest expense" must land on Interest, not OpEx).
var rules = []categoryRule{
	{domain.CategoryRevenue, []string{"revenue", "sales", "income", "fees", "service", "product"}},
	{domain.CategoryCOGS, []string{"cost of goods", "cogs", "cost of sales", "direct cost", "material"}},
	{domain.CategoryInterest, []string{"interest", "financing", "loan"}},
	{domain.CategoryTaxes, []string{"tax", "taxes"}},
	{domain.CategoryDA, []string{"depreciation", "amortization", "d&a", "d and a"}},
	{domain.CategoryOpEx, []string{"expense", "operating", "admin", "general", "salary", "rent", "utilities"}},
	{domain.CategoryBalanceSheet, []string{"asset", "liability", "equity", "cash", "account receivable", "account payable"}},
}

// Keywords returns the fallback substrings for a category, or nil when
// the category has no inference keywords (Other Income/Expense is
// reachable only through explicit overrides).
func Keywords(c domain.Category) []string {
	for _, r := range rules {
		if r.category == c {
			return r.keywords
		}
	}
	return nil
}

// Classify suggests a category for one account name by ordered
// case-insensitive substring matching. ok is false when no rule
// matches; unmatched accounts stay unassigned, never guessed.
func Classify(accountName string) (domain.Category, bool) {
	name := strings.ToLower(accountName)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r.category, true
			}
		}
	}
	return "", false
}

// Generate collects the distinct flattened account names across the
// transaction set and auto-maps each via the rule table. Entries are
// entity-scoped and sorted by entity then account name so output is
// deterministic.
func Generate(txns []domain.Transaction) []domain.MappingEntry {
	type key struct{ entity, flat string }
	seen := make(map[key]*domain.MappingEntry)
	var order []key

	for _, t := range txns {
		k := key{entity: t.Entity, flat: t.AccountNameFlat}
		if e, ok := seen[k]; ok {
			e.TransactionCount++
			continue
		}
		entry := &domain.MappingEntry{
			AccountNameFlat:  t.AccountNameFlat,
			AccountNameRaw:   t.AccountNameRaw,
			Entity:           t.Entity,
			TransactionCount: 1,
		}
		if cat, ok := Classify(t.AccountNameFlat); ok {
			entry.MainCategory = cat
		}
		seen[k] = entry
		order = append(order, k)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].entity != order[j].entity {
			return order[i].entity < order[j].entity
		}
		return order[i].flat < order[j].flat
	})

	out := make([]domain.MappingEntry, 0, len(order))
	for _, k := range order {
		out = append(out, *seen[k])
	}
	return out
}

// Merge folds caller-supplied overrides into auto-generated entries.
// An override wins per account key; auto-mapping fills gaps but never
// overwrites an explicit human decision. Overrides with an entity match
// only that entity's entry; overrides without one apply globally.
// Overrides for accounts absent from auto are appended so a hand-built
// mapping survives even when the run saw no such account.
func Merge(auto, overrides []domain.MappingEntry) []domain.MappingEntry {
	if len(overrides) == 0 {
		return auto
	}

	out := make([]domain.MappingEntry, len(auto))
	copy(out, auto)

	matched := make(map[int]bool, len(overrides))
	for i := range out {
		for j, ov := range overrides {
			if !sameAccount(out[i], ov) {
				continue
			}
			matched[j] = true
			if ov.MainCategory != "" {
				out[i].MainCategory = ov.MainCategory
			}
			if ov.Sub1 != "" {
				out[i].Sub1 = ov.Sub1
			}
			if ov.Sub2 != "" {
				out[i].Sub2 = ov.Sub2
			}
			if ov.ClientSpecific != "" {
				out[i].ClientSpecific = ov.ClientSpecific
			}
			if ov.Notes != "" {
				out[i].Notes = ov.Notes
			}
		}
	}

	for j, ov := range overrides {
		if !matched[j] {
			out = append(out, ov)
		}
	}
	return out
}

// Apply annotates each transaction with its account's category. Lookup
// prefers an entity-scoped entry over a global one; unmapped accounts
// stay unassigned. The input transactions are not modified.
func Apply(txns []domain.Transaction, entries []domain.MappingEntry) []domain.MappedTransaction {
	scoped := make(map[string]domain.Category)
	global := make(map[string]domain.Category)
	for _, e := range entries {
		if e.MainCategory == "" {
			continue
		}
		k := lookupKey(e.AccountNameFlat)
		if e.Entity != "" {
			scoped[e.Entity+"\x00"+k] = e.MainCategory
		} else {
			global[k] = e.MainCategory
		}
	}

	out := make([]domain.MappedTransaction, len(txns))
	for i, t := range txns {
		out[i] = domain.MappedTransaction{Transaction: t}
		k := lookupKey(t.AccountNameFlat)
		if cat, ok := scoped[t.Entity+"\x00"+k]; ok {
			out[i].MainCategory = cat
		} else if cat, ok := global[k]; ok {
			out[i].MainCategory = cat
		}
	}
	return out
}

// sameAccount matches an override against an entry: account keys are
// compared case- and whitespace-insensitively, entities must agree
// unless the override is global.
func sameAccount(entry, override domain.MappingEntry) bool {
	if lookupKey(entry.AccountNameFlat) != lookupKey(override.AccountNameFlat) {
		return false
	}
	return override.Entity == "" || override.Entity == entry.Entity
}

// lookupKey normalizes an account name for matching while the display
// form keeps its original casing.
func lookupKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
