// Package exporter writes the final databook workbook. Every tab is
// rebuilt from the run artifact on each export; the EBITDA tab carries
// live spreadsheet formulas over the GL_Clean tab rather than baked
// numbers, so reviewers can trace and re-derive every line.
package exporter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"databook/internal/calculator"
	apperrors "databook/internal/errors"
	"databook/pkg/contracts"
	"databook/pkg/contracts/domain"
)

// Tab names in workbook order.
const (
	TabREADME       = "README"
	TabValidation   = "Validation"
	TabGLClean      = "GL_Clean"
	TabMapping      = "Mapping"
	TabEBITDA       = "EBITDA"
	TabPivotsInputs = "Pivots_Inputs"
	TabAdjustments  = "Adjustments"
)

// glCleanHeaders is the fixed GL_Clean column order. The EBITDA
// formulas address these columns by position, so order changes here
// must be mirrored in the formula renderer.
var glCleanHeaders = []string{
	"entity", "source_system", "gl_source_file", "row_id", "date",
	"account_name_raw", "account_name_flat", "description",
	"debit", "credit", "amount_net", "main_category",
}

// GL_Clean column positions (1-based) used by formula rendering.
const (
	glColAccountFlat  = 7
	glColDebit        = 9
	glColCredit       = 10
	glColMainCategory = 12
)

// RunArtifact bundles everything one export needs. The exporter reads
// it; it never reaches back into the pipeline.
type RunArtifact struct {
	RunID        string
	GeneratedAt  time.Time
	Transactions []domain.MappedTransaction
	Mapping      []domain.MappingEntry
	Statement    *calculator.Statement
	Adjustments  []domain.Adjustment
	Validation   domain.ValidationResult
	Reports      []domain.FileReport
}

// Writer assembles databook workbooks.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a workbook writer. A nil logger falls back to
// slog.Default().
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Write renders the artifact to an xlsx file at path. When validation
// failed the workbook carries only the Validation tab: the diagnosis
// ships, the unreliable data does not.
func (w *Writer) Write(path string, art RunArtifact) error {
	f := excelize.NewFile()
	defer f.Close()

	if !art.Validation.Passed {
		f.SetSheetName(f.GetSheetName(0), TabValidation)
		w.writeValidation(f, art)
		if err := f.SaveAs(path); err != nil {
			return apperrors.New(apperrors.CodeExportFailed, fmt.Sprintf("saving workbook: %v", err))
		}
		w.logger.Warn("validation failed; exported diagnosis-only workbook",
			slog.String("path", path),
			slog.Int("failures", len(art.Validation.Failures)))
		return nil
	}

	f.SetSheetName(f.GetSheetName(0), TabREADME)
	tabs := []string{TabValidation, TabGLClean, TabMapping, TabEBITDA, TabPivotsInputs}
	if len(art.Adjustments) > 0 {
		tabs = append(tabs, TabAdjustments)
	}
	for _, name := range tabs {
		if _, err := f.NewSheet(name); err != nil {
			return apperrors.New(apperrors.CodeExportFailed, fmt.Sprintf("creating sheet %s: %v", name, err))
		}
	}

	w.writeREADME(f, art)
	w.writeValidation(f, art)
	if err := w.writeGLClean(f, art.Transactions); err != nil {
		return err
	}
	w.writeMapping(f, art.Mapping)
	w.writeEBITDA(f, art.Statement, len(art.Transactions))
	w.writePivotsInputs(f, art.Transactions)
	if len(art.Adjustments) > 0 {
		w.writeAdjustments(f, art.Adjustments)
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.New(apperrors.CodeExportFailed, fmt.Sprintf("saving workbook: %v", err))
	}

	w.logger.Info("databook exported",
		slog.String("path", path),
		slog.String("run_id", art.RunID),
		slog.Int("transactions", len(art.Transactions)),
		slog.Int("tabs", len(tabs)+1))
	return nil
}

func (w *Writer) writeREADME(f *excelize.File, art RunArtifact) {
	generated := art.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	rows := [][]interface{}{
		{contracts.GetVersionString()},
		{},
		{"Run ID", art.RunID},
		{"Generated", generated.Format("2006-01-02 15:04:05")},
		{"Source files", len(art.Reports)},
		{"Transactions", len(art.Transactions)},
		{},
		{"Tab", "Contents"},
		{TabValidation, "Run verdict, statistics, failures and warnings"},
		{TabGLClean, "Unified cleaned general ledger, one row per transaction"},
		{TabMapping, "Account-to-category mapping used for calculation"},
		{TabEBITDA, "EBITDA statement; amounts are live formulas over GL_Clean"},
		{TabPivotsInputs, "GL_Clean plus date breakdown columns for pivot tables"},
	}
	if len(art.Adjustments) > 0 {
		rows = append(rows, []interface{}{TabAdjustments, "Discretionary Adjusted-EBITDA entries"})
	}
	writeRows(f, TabREADME, rows)
}

func (w *Writer) writeValidation(f *excelize.File, art RunArtifact) {
	status := "PASSED"
	if !art.Validation.Passed {
		status = "FAILED"
	}
	stats := art.Validation.Stats
	generated := art.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	rows := [][]interface{}{
		{"Validation", status},
		{"Run ID", art.RunID},
		{"Generated", generated.Format("2006-01-02 15:04:05")},
		{},
		{"Transactions", stats.TransactionCount},
		{"Total debits", formatFloat(stats.TotalDebits)},
		{"Total credits", formatFloat(stats.TotalCredits)},
		{"Difference", formatFloat(stats.Difference)},
		{"Invalid date rows", stats.InvalidDateRows},
		{"Candidate rows", stats.CandidateRows},
		{"Invalid date rate", fmt.Sprintf("%.2f%%", stats.InvalidDateRate*100)},
	}
	if !stats.DateMin.IsZero() {
		rows = append(rows,
			[]interface{}{"Earliest date", stats.DateMin.Format("2006-01-02")},
			[]interface{}{"Latest date", stats.DateMax.Format("2006-01-02")})
	}

	if len(art.Validation.Failures) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Failures"})
		for _, msg := range art.Validation.Failures {
			rows = append(rows, []interface{}{"", msg})
		}
	}
	if len(art.Validation.Warnings) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Warnings"})
		for _, msg := range art.Validation.Warnings {
			rows = append(rows, []interface{}{"", msg})
		}
	}

	if len(art.Reports) > 0 {
		rows = append(rows, []interface{}{},
			[]interface{}{"File", "Entity", "Source", "Rows read", "Invalid dates",
				"Invalid amounts", "Totals removed", "Subtotals removed",
				"Opening balances removed", "Negative folds", "Transactions"})
		for _, r := range art.Reports {
			rows = append(rows, []interface{}{
				r.File, r.Entity, string(r.SourceSystem), r.TotalRowsRead,
				r.RowsInvalidDate, r.RowsInvalidAmount, r.RowsRemovedTotals,
				r.RowsRemovedSubtotals, r.RowsRemovedOpening,
				r.RowsNegativeFolded, r.FinalTransactionRows,
			})
		}
	}
	writeRows(f, TabValidation, rows)
}

func (w *Writer) writeGLClean(f *excelize.File, txns []domain.MappedTransaction) error {
	rows := make([][]interface{}, 0, len(txns)+1)
	rows = append(rows, headerRow(glCleanHeaders))
	for _, t := range txns {
		rows = append(rows, glCleanRow(t))
	}
	writeRows(f, TabGLClean, rows)

	filter := fmt.Sprintf("A1:%s", cellRef(len(glCleanHeaders), len(txns)+1))
	if err := f.AutoFilter(TabGLClean, filter, nil); err != nil {
		return apperrors.New(apperrors.CodeExportFailed, fmt.Sprintf("setting autofilter: %v", err))
	}
	return nil
}

func glCleanRow(t domain.MappedTransaction) []interface{} {
	return []interface{}{
		t.Entity, string(t.SourceSystem), t.GLSourceFile, t.RowID,
		t.Date.Format("2006-01-02"), t.AccountNameRaw, t.AccountNameFlat,
		t.Description, t.Debit, t.Credit, t.AmountNet, string(t.MainCategory),
	}
}

func (w *Writer) writeMapping(f *excelize.File, entries []domain.MappingEntry) {
	rows := [][]interface{}{{
		"account_name_flat", "account_name_raw", "main_category",
		"sub1", "sub2", "client_specific", "notes", "entity", "transaction_count",
	}}
	for _, e := range entries {
		rows = append(rows, []interface{}{
			e.AccountNameFlat, e.AccountNameRaw, string(e.MainCategory),
			e.Sub1, e.Sub2, e.ClientSpecific, e.Notes, e.Entity, e.TransactionCount,
		})
	}
	writeRows(f, TabMapping, rows)
}

// writeEBITDA lays out the statement one line per row: label, amount,
// basis. Base category amounts are formulas over GL_Clean; derived
// lines reference the statement's own cells so the sheet stays live
// when a reviewer edits a mapping and recalculates.
func (w *Writer) writeEBITDA(f *excelize.File, st *calculator.Statement, txnCount int) {
	f.SetSheetRow(TabEBITDA, "A1", &[]interface{}{"Line", "Amount", "Basis"})

	lineRows := make(map[string]int, len(st.Lines))
	for i, li := range st.Lines {
		lineRows[li.Name] = i + 2
	}

	for i, li := range st.Lines {
		row := i + 2
		f.SetCellValue(TabEBITDA, cellRef(1, row), li.Name)
		f.SetCellValue(TabEBITDA, cellRef(3, row), string(li.Basis))

		amountCell := cellRef(2, row)
		if lit, ok := li.Expr.(calculator.Literal); ok {
			f.SetCellValue(TabEBITDA, amountCell, lit.Value)
			continue
		}
		f.SetCellFormula(TabEBITDA, amountCell, renderExpr(li.Expr, lineRows, txnCount))
	}
}

// renderExpr translates an expression node to spreadsheet formula text.
// Ranges are bounded to the GL_Clean data rows rather than whole
// columns so the workbook recalculates over exactly the exported set.
func renderExpr(e calculator.Expr, lineRows map[string]int, txnCount int) string {
	firstRow, lastRow := 2, txnCount+1
	if txnCount == 0 {
		lastRow = 2
	}

	switch n := e.(type) {
	case calculator.CategorySum:
		if n.Basis == calculator.BasisTextMatch {
			return renderTextMatch(n, firstRow, lastRow)
		}
		return renderMapped(n, firstRow, lastRow)

	case calculator.LineRef:
		return cellRef(2, lineRows[n.Name])

	case calculator.Literal:
		return formatFloat(n.Value)

	case calculator.Sum:
		var b []byte
		for i, t := range n.Terms {
			if t.Sign < 0 {
				b = append(b, '-')
			} else if i > 0 {
				b = append(b, '+')
			}
			b = append(b, renderExpr(t.Expr, lineRows, txnCount)...)
		}
		return string(b)
	}
	return "0"
}

// renderMapped sums the debit and credit columns filtered on the
// main_category column.
func renderMapped(n calculator.CategorySum, firstRow, lastRow int) string {
	cat := quoteFormulaString(string(n.Category))
	catRange := colRange(TabGLClean, glColMainCategory, firstRow, lastRow)
	debits := fmt.Sprintf("SUMIFS(%s,%s,%s)", colRange(TabGLClean, glColDebit, firstRow, lastRow), catRange, cat)
	credits := fmt.Sprintf("SUMIFS(%s,%s,%s)", colRange(TabGLClean, glColCredit, firstRow, lastRow), catRange, cat)
	if n.Side == calculator.CreditMinusDebit {
		return credits + "-" + debits
	}
	return debits + "-" + credits
}

// renderTextMatch approximates a category by keyword search over the
// flattened account names. Each row matches when any keyword appears;
// summing the ISNUMBER(SEARCH(...)) flags and comparing >0 keeps a row
// from counting twice when several keywords hit it.
func renderTextMatch(n calculator.CategorySum, firstRow, lastRow int) string {
	accounts := colRange(TabGLClean, glColAccountFlat, firstRow, lastRow)
	var cond string
	for i, kw := range n.Keywords {
		if i > 0 {
			cond += "+"
		}
		cond += fmt.Sprintf("ISNUMBER(SEARCH(%s,%s))*1", quoteFormulaString(kw), accounts)
	}
	cond = "((" + cond + ")>0)"

	debits := colRange(TabGLClean, glColDebit, firstRow, lastRow)
	credits := colRange(TabGLClean, glColCredit, firstRow, lastRow)
	if n.Side == calculator.CreditMinusDebit {
		return fmt.Sprintf("SUMPRODUCT(%s*(%s-%s))", cond, credits, debits)
	}
	return fmt.Sprintf("SUMPRODUCT(%s*(%s-%s))", cond, debits, credits)
}

// writePivotsInputs repeats the GL_Clean columns and appends date
// breakdown columns so pivot tables can group by period directly.
func (w *Writer) writePivotsInputs(f *excelize.File, txns []domain.MappedTransaction) {
	headers := append(append([]string{}, glCleanHeaders...),
		"year", "month", "month_name", "quarter")

	rows := make([][]interface{}, 0, len(txns)+1)
	rows = append(rows, headerRow(headers))
	for _, t := range txns {
		row := glCleanRow(t)
		row = append(row,
			t.Date.Year(),
			int(t.Date.Month()),
			t.Date.Month().String(),
			fmt.Sprintf("Q%d", (int(t.Date.Month())-1)/3+1))
		rows = append(rows, row)
	}
	writeRows(f, TabPivotsInputs, rows)
}

func (w *Writer) writeAdjustments(f *excelize.File, adjs []domain.Adjustment) {
	rows := [][]interface{}{{"row_id", "category", "amount", "add_back", "reasoning"}}
	for _, a := range adjs {
		rows = append(rows, []interface{}{
			a.RowID, string(a.Category), a.Amount, formatBool(a.AddBack), a.Reasoning,
		})
	}
	writeRows(f, TabAdjustments, rows)
}

// writeRows streams rows to a sheet starting at A1. Empty rows become
// visual spacers.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}) {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := row
		f.SetSheetRow(sheet, cellRef(1, i+1), &r)
	}
}

func headerRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}
