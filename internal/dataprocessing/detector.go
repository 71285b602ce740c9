package dataprocessing

import (
	"strings"

	apperrors "databook/internal/errors"
	"databook/pkg/contracts/domain"
)

// Column-family synonym sets. Header cells are matched case-insensitively
// by substring containment, so "Date", "Transaction Date" and "Txn Date"
// are equivalent signals. More specific synonyms come first.
var (
	dateSynonyms    = []string{"transaction date", "txn date", "trans date", "date"}
	accountSynonyms = []string{"account name", "full account", "account", "split"}
	debitSynonyms   = []string{"debit", "dr"}
	creditSynonyms  = []string{"credit", "cr"}
	descSynonyms    = []string{"description", "memo", "name"}
)

// columnLayout records where each canonical column family was found.
// An index of -1 means the family is absent.
type columnLayout struct {
	headerRow   int
	date        int
	account     int
	description int
	debit       int
	credit      int
}

// DetectFormat classifies raw rows as one of the two known GL dialects
// and resolves the column layout. The caller-supplied hint is a
// tie-breaker only; detection always runs. Returns a file-scoped error
// when the format is unrecognized or a required column family (date,
// account, debit/credit) is missing after synonym matching.
func DetectFormat(rows [][]string, file string, hint domain.SourceSystem, scanRows int) (domain.SourceSystem, columnLayout, error) {
	if len(rows) == 0 {
		return "", columnLayout{}, apperrors.NewFileError(apperrors.CodeNoData, file, "sheet contains no rows", nil)
	}
	if scanRows <= 0 {
		scanRows = 5
	}

	layout, ok := detectLayout(rows, scanRows)
	if !ok {
		return "", columnLayout{}, apperrors.NewFileError(apperrors.CodeUnrecognizedFormat, file,
			"spreadsheet format not recognized: no header row found", nil)
	}

	var missing []string
	if layout.date < 0 {
		missing = append(missing, "date")
	}
	if layout.account < 0 {
		missing = append(missing, "account")
	}
	if layout.debit < 0 && layout.credit < 0 {
		missing = append(missing, "debit/credit")
	}
	if len(missing) > 0 {
		return "", layout, apperrors.MissingColumns(file, missing...)
	}

	dialect := classifyDialect(rows, layout, hint)
	if dialect == "" {
		return "", layout, apperrors.NewFileError(apperrors.CodeUnrecognizedFormat, file,
			"spreadsheet format not recognized: neither hierarchical nor flat structure", nil)
	}
	return dialect, layout, nil
}

// detectLayout scans the leading rows for a header row and maps each
// column family to its position. A header row must name a date column
// and at least one other recognized family.
func detectLayout(rows [][]string, scanRows int) (columnLayout, bool) {
	limit := len(rows)
	if limit > scanRows {
		limit = scanRows
	}

	for i := 0; i < limit; i++ {
		layout := mapColumns(rows[i])
		layout.headerRow = i
		others := 0
		for _, idx := range []int{layout.account, layout.debit, layout.credit, layout.description} {
			if idx >= 0 {
				others++
			}
		}
		if layout.date >= 0 && others >= 1 {
			return layout, true
		}
	}
	return columnLayout{}, false
}

// mapColumns assigns column families by synonym matching. Each column
// is claimed at most once; families are resolved in order of
// specificity so "Account Name" lands on account, not description.
func mapColumns(header []string) columnLayout {
	layout := columnLayout{date: -1, account: -1, description: -1, debit: -1, credit: -1}
	claimed := make(map[int]bool, len(header))

	families := []struct {
		target   *int
		synonyms []string
	}{
		{&layout.date, dateSynonyms},
		{&layout.account, accountSynonyms},
		{&layout.debit, debitSynonyms},
		{&layout.credit, creditSynonyms},
		{&layout.description, descSynonyms},
	}

	for _, fam := range families {
		for j, cell := range header {
			if claimed[j] {
				continue
			}
			norm := strings.ToLower(strings.TrimSpace(cell))
			if norm == "" {
				continue
			}
			if matchesSynonym(norm, fam.synonyms) {
				*fam.target = j
				claimed[j] = true
				break
			}
		}
	}
	return layout
}

func matchesSynonym(norm string, synonyms []string) bool {
	for _, syn := range synonyms {
		// Abbreviations like "dr"/"cr" match whole cells only; containment
		// would claim unrelated columns ("address").
		if len(syn) <= 2 {
			if norm == syn {
				return true
			}
			continue
		}
		if strings.Contains(norm, syn) {
			return true
		}
	}
	return false
}

// classifyDialect distinguishes the hierarchical dialect (account-only
// header rows interleaved with transactions) from the flat dialect (an
// account value on every transaction row). Returns "" when the body
// matches neither shape and no hint resolves the tie.
func classifyDialect(rows [][]string, layout columnLayout, hint domain.SourceSystem) domain.SourceSystem {
	var headerLike, txnRows, txnWithAccount int

	for i := layout.headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		account := strings.TrimSpace(cellAt(row, layout.account))
		date := strings.TrimSpace(cellAt(row, layout.date))
		amount := strings.TrimSpace(cellAt(row, layout.debit)) != "" ||
			strings.TrimSpace(cellAt(row, layout.credit)) != ""

		if account == "" && date == "" && !amount {
			continue // blank
		}
		if isSummaryText(account) || isSummaryText(strings.TrimSpace(cellAt(row, layout.description))) {
			continue // totals and carry-forwards are not structural evidence
		}
		if account != "" && date == "" && !amount {
			headerLike++
			continue
		}
		if date != "" && amount {
			txnRows++
			if account != "" {
				txnWithAccount++
			}
		}
	}

	switch {
	case headerLike > 0 && txnRows > 0 && txnWithAccount == txnRows:
		// Ambiguous: headers present but every transaction also carries
		// an account. The hint decides; headers win otherwise.
		if hint.Valid() {
			return hint
		}
		return domain.SourceQuickBooksDesktop
	case headerLike > 0:
		return domain.SourceQuickBooksDesktop
	case txnRows > 0 && txnWithAccount == txnRows:
		return domain.SourceQuickBooksOnline
	case hint.Valid():
		return hint
	}
	return ""
}

// cellAt returns the cell at idx, tolerating ragged rows.
func cellAt(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}
