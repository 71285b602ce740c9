package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"databook/pkg/contracts/domain"
)

// FileMeta identifies the source of a batch of provisional rows. The
// entity is supplied by the caller per file, never inferred.
type FileMeta struct {
	Entity       string
	SourceSystem domain.SourceSystem
	File         string
}

// dateFormats is the ordered list of accepted date representations:
// ISO, US slash, textual month, UK dash. Excel serial numbers are
// handled separately.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-01-2006",
	"2-Jan-06",
	"02-Jan-2006",
}

// placeholderTokens mark cells that carry no date at all. They count as
// unparseable rather than erroring the run.
var placeholderTokens = map[string]struct{}{
	"":        {},
	"n/a":     {},
	"tbd":     {},
	"pending": {},
}

// excelEpoch is the zero of the 1900 date system as Excel actually
// stores it (the off-by-two absorbs the fictitious 1900 leap day).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Normalize coerces provisional rows into canonical transactions.
// Rows whose date or amounts cannot be parsed are excluded and tallied
// on report, never zero-filled. Every surviving row is stamped with the
// file's entity, source system and file name; RowID assignment is left
// to the pipeline so identifiers stay unique across the whole run.
func Normalize(prov []provisionalRow, meta FileMeta, report *domain.FileReport) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(prov))

	for _, row := range prov {
		date, ok := parseDate(row.dateRaw)
		if !ok {
			report.RowsInvalidDate++
			continue
		}

		debit, ok := parseAmount(row.debitRaw)
		if !ok {
			report.RowsInvalidAmount++
			continue
		}
		credit, ok := parseAmount(row.creditRaw)
		if !ok {
			report.RowsInvalidAmount++
			continue
		}

		// Debit and credit are magnitudes. A negative value is a
		// reversing entry recorded on the wrong side: fold it over and
		// surface the count as a warning.
		if debit < 0 {
			credit += -debit
			debit = 0
			report.RowsNegativeFolded++
		}
		if credit < 0 {
			debit += -credit
			credit = 0
			report.RowsNegativeFolded++
		}

		out = append(out, domain.Transaction{
			Date:            date,
			AccountNameRaw:  row.accountRaw,
			AccountNameFlat: row.accountFlat,
			Description:     row.description,
			Debit:           debit,
			Credit:          credit,
			AmountNet:       debit - credit,
			Entity:          meta.Entity,
			SourceSystem:    meta.SourceSystem,
			GLSourceFile:    meta.File,
		})
	}

	report.FinalTransactionRows = len(out)
	if report.RowsNegativeFolded > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"%s: %d row(s) carried negative amounts and were folded to the opposite side",
			meta.File, report.RowsNegativeFolded))
	}
	return out
}

// parseDate tries the ordered format list, then Excel serial numbers.
// Placeholder tokens ("N/A", "TBD", "Pending", empty) and anything
// unmatched report false.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if _, ok := placeholderTokens[strings.ToLower(s)]; ok {
		return time.Time{}, false
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Native spreadsheet date: days since the Excel epoch. Bounded to
	// the plausible range so stray amounts are not mistaken for dates.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= 61 && serial < 2958466 {
			days := math.Floor(serial)
			return excelEpoch.AddDate(0, 0, int(days)), true
		}
	}

	return time.Time{}, false
}

// currencyStripper removes currency symbols, thousands separators and
// interior whitespace before numeric parsing.
var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", ",", "", " ", "", " ", "",
)

// parseAmount converts an amount cell to a float64. Empty cells are
// zero (the unused side of a debit/credit pair); text cells are
// stripped of currency noise first. Values that remain non-numeric
// report false and exclude the row.
func parseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	s = currencyStripper.Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
