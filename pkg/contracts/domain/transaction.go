package domain

import "time"

// SourceSystem identifies which GL export dialect produced a row.
type SourceSystem string

const (
	// SourceQuickBooksDesktop is the hierarchical dialect: parent account
	// names appear as indented header rows above their transactions.
	SourceQuickBooksDesktop SourceSystem = "qb_desktop"

	// SourceQuickBooksOnline is the flat dialect: every row carries its
	// full account identifier directly.
	SourceQuickBooksOnline SourceSystem = "qb_online"
)

// Valid reports whether s is one of the recognized dialects.
func (s SourceSystem) Valid() bool {
	return s == SourceQuickBooksDesktop || s == SourceQuickBooksOnline
}

// Transaction is the canonical unit produced by normalization. Every
// surviving transaction has a valid date, a non-empty flattened account
// name, and non-negative debit/credit magnitudes. Rows that fail those
// requirements are dropped during normalization and tallied for the
// validator, never zero-filled.
type Transaction struct {
	// RowID is unique within a processing run and deterministic across
	// repeated runs on identical input.
	RowID           int64        `json:"row_id" csv:"RowID"`
	Date            time.Time    `json:"date" csv:"Date"`
	AccountNameRaw  string       `json:"account_name_raw" csv:"AccountNameRaw"`
	AccountNameFlat string       `json:"account_name_flat" csv:"AccountNameFlat"`
	Description     string       `json:"description,omitempty" csv:"Description"`
	Debit           float64      `json:"debit" csv:"Debit"`
	Credit          float64      `json:"credit" csv:"Credit"`
	// AmountNet is Debit - Credit, used for aggregate sign conventions.
	AmountNet    float64      `json:"amount_net" csv:"AmountNet"`
	Entity       string       `json:"entity" csv:"Entity"`
	SourceSystem SourceSystem `json:"source_system" csv:"SourceSystem"`
	GLSourceFile string       `json:"gl_source_file" csv:"GLSourceFile"`
}

// MappedTransaction annotates a Transaction with the category its
// account resolves to. Produced by mapping.Apply; the underlying
// transaction is never mutated by mapping.
type MappedTransaction struct {
	Transaction
	// MainCategory is empty when the account is unmapped.
	MainCategory Category `json:"main_category,omitempty" csv:"MainCategory"`
}
