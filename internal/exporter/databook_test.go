package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"databook/internal/calculator"
	"databook/pkg/contracts/domain"
)

func passingArtifact() RunArtifact {
	txns := []domain.MappedTransaction{
		{
			Transaction: domain.Transaction{
				RowID: 1, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				AccountNameRaw: "Sales", AccountNameFlat: "Sales",
				Description: "Invoice 101", Credit: 1000, AmountNet: -1000,
				Entity: "EntityA", SourceSystem: domain.SourceQuickBooksOnline,
				GLSourceFile: "gl.xlsx",
			},
			MainCategory: domain.CategoryRevenue,
		},
		{
			Transaction: domain.Transaction{
				RowID: 2, Date: time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
				AccountNameRaw: "Rent", AccountNameFlat: "Expenses : Rent",
				Description: "April rent", Debit: 1000, AmountNet: 1000,
				Entity: "EntityA", SourceSystem: domain.SourceQuickBooksOnline,
				GLSourceFile: "gl.xlsx",
			},
			MainCategory: domain.CategoryOpEx,
		},
	}
	entries := []domain.MappingEntry{
		{AccountNameFlat: "Sales", MainCategory: domain.CategoryRevenue, Entity: "EntityA", TransactionCount: 1},
		{AccountNameFlat: "Expenses : Rent", MainCategory: domain.CategoryOpEx, Entity: "EntityA", TransactionCount: 1},
	}
	return RunArtifact{
		RunID:        "run-123",
		GeneratedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Transactions: txns,
		Mapping:      entries,
		Statement:    calculator.BuildStatement(txns, entries, nil),
		Validation: domain.ValidationResult{
			Passed: true,
			Stats: domain.ValidationStats{
				TransactionCount: 2, TotalDebits: 1000, TotalCredits: 1000,
			},
		},
		Reports: []domain.FileReport{
			{File: "gl.xlsx", Entity: "EntityA", SourceSystem: domain.SourceQuickBooksOnline,
				TotalRowsRead: 3, FinalTransactionRows: 2},
		},
	}
}

func TestWriteDatabook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "databook.xlsx")
	w := NewWriter(nil)
	require.NoError(t, w.Write(path, passingArtifact()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		TabREADME, TabValidation, TabGLClean, TabMapping, TabEBITDA, TabPivotsInputs,
	}, f.GetSheetList())

	// GL_Clean carries the fixed column order and the data rows.
	rows, err := f.GetRows(TabGLClean)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, glCleanHeaders, rows[0])
	assert.Equal(t, "EntityA", rows[1][0])
	assert.Equal(t, "qb_online", rows[1][1])
	assert.Equal(t, "1", rows[1][3])
	assert.Equal(t, "2024-01-15", rows[1][4])
	assert.Equal(t, "Sales", rows[1][6])
	assert.Equal(t, "Revenue", rows[1][11])

	// The Adjustments tab is omitted when the run carries none.
	_, err = f.GetRows(TabAdjustments)
	assert.Error(t, err)
}

func TestWriteEBITDAFormulas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "databook.xlsx")
	require.NoError(t, NewWriter(nil).Write(path, passingArtifact()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// Revenue (row 2) is a mapped SUMIFS pair over GL_Clean, bounded to
	// the two data rows.
	formula, err := f.GetCellFormula(TabEBITDA, "B2")
	require.NoError(t, err)
	assert.Equal(t,
		`SUMIFS(GL_Clean!$J$2:$J$3,GL_Clean!$L$2:$L$3,"Revenue")-SUMIFS(GL_Clean!$I$2:$I$3,GL_Clean!$L$2:$L$3,"Revenue")`,
		formula)

	basis, err := f.GetCellValue(TabEBITDA, "C2")
	require.NoError(t, err)
	assert.Equal(t, "mapped", basis)

	// COGS (row 3) has no mapped account and falls back to keyword
	// matching over account names.
	formula, err = f.GetCellFormula(TabEBITDA, "B3")
	require.NoError(t, err)
	assert.Contains(t, formula, "SUMPRODUCT")
	assert.Contains(t, formula, `SEARCH("cost of goods",GL_Clean!$G$2:$G$3)`)

	basis, err = f.GetCellValue(TabEBITDA, "C3")
	require.NoError(t, err)
	assert.Equal(t, "text-match", basis)

	// Gross Profit (row 4) references the statement's own cells.
	formula, err = f.GetCellFormula(TabEBITDA, "B4")
	require.NoError(t, err)
	assert.Equal(t, "B2-B3", formula)

	// Adjustments (row 11) is a literal value, not a formula.
	formula, err = f.GetCellFormula(TabEBITDA, "B11")
	require.NoError(t, err)
	assert.Empty(t, formula)

	// Adjusted EBITDA (row 12) adds the adjustment line to EBITDA.
	formula, err = f.GetCellFormula(TabEBITDA, "B12")
	require.NoError(t, err)
	assert.Equal(t, "B10+B11", formula)
}

func TestWritePivotsInputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "databook.xlsx")
	require.NoError(t, NewWriter(nil).Write(path, passingArtifact()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(TabPivotsInputs)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	require.Len(t, header, len(glCleanHeaders)+4)
	assert.Equal(t, []string{"year", "month", "month_name", "quarter"}, header[len(glCleanHeaders):])

	april := rows[2]
	assert.Equal(t, "2024", april[len(glCleanHeaders)])
	assert.Equal(t, "4", april[len(glCleanHeaders)+1])
	assert.Equal(t, "April", april[len(glCleanHeaders)+2])
	assert.Equal(t, "Q2", april[len(glCleanHeaders)+3])
}

func TestWriteAdjustmentsTab(t *testing.T) {
	art := passingArtifact()
	art.Adjustments = []domain.Adjustment{
		{RowID: 2, Category: domain.CategoryOpEx, Amount: 500, AddBack: true, Reasoning: "one-off relocation"},
	}
	art.Statement = calculator.BuildStatement(art.Transactions, art.Mapping, art.Adjustments)

	path := filepath.Join(t.TempDir(), "databook.xlsx")
	require.NoError(t, NewWriter(nil).Write(path, art))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(TabAdjustments)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2", "OpEx", "500", "TRUE", "one-off relocation"}, rows[1])
}

func TestWriteValidationFailureIsDiagnosisOnly(t *testing.T) {
	art := passingArtifact()
	art.Statement = nil
	art.Validation = domain.ValidationResult{
		Passed:   false,
		Failures: []string{"debits and credits do not balance: total debits 1000.00, total credits 49.32, difference 950.68"},
		Stats:    domain.ValidationStats{TransactionCount: 2, TotalDebits: 1000, TotalCredits: 49.32, Difference: 950.68},
	}

	path := filepath.Join(t.TempDir(), "databook.xlsx")
	require.NoError(t, NewWriter(nil).Write(path, art))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TabValidation}, f.GetSheetList())

	rows, err := f.GetRows(TabValidation)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Validation", "FAILED"}, rows[0])

	var found bool
	for _, row := range rows {
		for _, cell := range row {
			if cell == art.Validation.Failures[0] {
				found = true
			}
		}
	}
	assert.True(t, found, "failure reason must appear verbatim")
}
