package domain

// FileReport records per-file ingestion statistics for traceability and
// for the validator's pre-exclusion denominators. One report is
// produced per input file regardless of whether the file succeeded.
type FileReport struct {
	File         string       `json:"file"`
	Entity       string       `json:"entity"`
	SourceSystem SourceSystem `json:"source_system,omitempty"`

	// TotalRowsRead counts every sheet row, headers included.
	TotalRowsRead int `json:"total_rows_read"`
	// HeaderRowIndex is the detected header row, -1 when detection
	// fell back to the first row.
	HeaderRowIndex int `json:"header_row_index"`

	RowsInvalidDate      int `json:"rows_invalid_date"`
	RowsInvalidAmount    int `json:"rows_invalid_amount"`
	RowsRemovedTotals    int `json:"rows_removed_totals"`
	RowsRemovedSubtotals int `json:"rows_removed_subtotals"`
	RowsRemovedOpening   int `json:"rows_removed_opening_balance"`
	RowsNegativeFolded   int `json:"rows_negative_folded"`
	FinalTransactionRows int `json:"final_transaction_rows"`

	Warnings []string `json:"warnings,omitempty"`
}

// CandidateRows returns the number of data-region rows that were
// expected to carry a transaction date: everything below the header
// row. Rows later dropped for bad dates or summary markers remain in
// this count.
func (r FileReport) CandidateRows() int {
	header := r.HeaderRowIndex
	if header < 0 {
		header = 0
	}
	n := r.TotalRowsRead - header - 1
	if n < 0 {
		return 0
	}
	return n
}
