package domain

import "time"

// ValidationStats is the statistics bundle attached to a validation
// verdict. Rates are computed against the pre-exclusion candidate row
// count so that rows dropped for bad dates still weigh on the ratio.
type ValidationStats struct {
	TransactionCount int     `json:"transaction_count"`
	TotalDebits      float64 `json:"total_debits"`
	TotalCredits     float64 `json:"total_credits"`
	// Difference is |TotalDebits - TotalCredits|.
	Difference      float64 `json:"debit_credit_difference"`
	InvalidDateRows int     `json:"invalid_date_rows"`
	// CandidateRows counts data-region rows before any exclusion.
	CandidateRows   int       `json:"candidate_rows"`
	InvalidDateRate float64   `json:"invalid_date_rate"`
	DateMin         time.Time `json:"date_min,omitempty"`
	DateMax         time.Time `json:"date_max,omitempty"`
}

// ValidationResult is the pass/fail verdict over a unified transaction
// set. Failures is empty iff Passed is true. The result is produced
// once per processing run and is immutable once produced.
type ValidationResult struct {
	Passed   bool            `json:"passed"`
	Failures []string        `json:"failures,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
	Stats    ValidationStats `json:"stats"`
}
