package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"

	"databook/internal/config"
	"databook/pkg/contracts/domain"
)

// Validator checks the unified transaction set for internal
// consistency: double-entry balance, date quality and minimum volume.
// All rules are evaluated independently so the caller sees every
// problem in one pass; any single failure blocks artifact generation.
type Validator struct {
	logger             *slog.Logger
	minTransactions    int
	maxInvalidDateRate float64
	balanceTolerance   float64
}

// NewValidator creates a validator with the given thresholds. Zero
// values fall back to the defaults: at least 1 transaction, at most 10%
// invalid dates, 0.01 currency-rounding tolerance.
func NewValidator(logger *slog.Logger, cfg config.ValidationConfig) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinTransactions <= 0 {
		cfg.MinTransactions = 1
	}
	if cfg.MaxInvalidDateRate <= 0 {
		cfg.MaxInvalidDateRate = 0.10
	}
	if cfg.BalanceTolerance <= 0 {
		cfg.BalanceTolerance = 0.01
	}
	return &Validator{
		logger:             logger,
		minTransactions:    cfg.MinTransactions,
		maxInvalidDateRate: cfg.MaxInvalidDateRate,
		balanceTolerance:   cfg.BalanceTolerance,
	}
}

// Validate is a pure function over the unified transaction set and the
// per-file ingestion reports. The invalid-date ratio uses the
// pre-exclusion candidate row count as denominator: rows dropped for
// bad dates still weigh on the ratio.
func (v *Validator) Validate(txns []domain.Transaction, reports []domain.FileReport) domain.ValidationResult {
	stats := collectStats(txns, reports)

	var failures []string
	var warnings []string

	if stats.Difference > v.balanceTolerance {
		failures = append(failures, fmt.Sprintf(
			"debits and credits do not balance: total debits %.2f, total credits %.2f, difference %.2f",
			stats.TotalDebits, stats.TotalCredits, stats.Difference))
	}

	if stats.InvalidDateRate > v.maxInvalidDateRate {
		failures = append(failures, fmt.Sprintf(
			"invalid date rate %.2f%% exceeds maximum %.2f%% (%d of %d candidate rows)",
			stats.InvalidDateRate*100, v.maxInvalidDateRate*100,
			stats.InvalidDateRows, stats.CandidateRows))
	}

	if stats.TransactionCount < v.minTransactions {
		failures = append(failures, fmt.Sprintf(
			"only %d transaction(s) survived cleaning; at least %d required",
			stats.TransactionCount, v.minTransactions))
	}

	for _, r := range reports {
		warnings = append(warnings, r.Warnings...)
	}

	result := domain.ValidationResult{
		Passed:   len(failures) == 0,
		Failures: failures,
		Warnings: warnings,
		Stats:    stats,
	}

	v.logger.Info("validation complete",
		slog.Bool("passed", result.Passed),
		slog.Int("transactions", stats.TransactionCount),
		slog.Float64("total_debits", stats.TotalDebits),
		slog.Float64("total_credits", stats.TotalCredits),
		slog.Float64("invalid_date_rate", stats.InvalidDateRate),
		slog.Int("failures", len(failures)))

	return result
}

// collectStats aggregates the statistics bundle for the verdict.
func collectStats(txns []domain.Transaction, reports []domain.FileReport) domain.ValidationStats {
	var stats domain.ValidationStats
	stats.TransactionCount = len(txns)

	for _, t := range txns {
		stats.TotalDebits += t.Debit
		stats.TotalCredits += t.Credit
		if stats.DateMin.IsZero() || t.Date.Before(stats.DateMin) {
			stats.DateMin = t.Date
		}
		if stats.DateMax.IsZero() || t.Date.After(stats.DateMax) {
			stats.DateMax = t.Date
		}
	}
	stats.Difference = math.Abs(stats.TotalDebits - stats.TotalCredits)

	for _, r := range reports {
		stats.InvalidDateRows += r.RowsInvalidDate
		stats.CandidateRows += r.CandidateRows()
	}
	if stats.CandidateRows > 0 {
		stats.InvalidDateRate = float64(stats.InvalidDateRows) / float64(stats.CandidateRows)
	}
	return stats
}
