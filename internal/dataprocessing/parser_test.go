package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databook/pkg/contracts/domain"
)

func desktopLayout() columnLayout {
	return columnLayout{headerRow: 0, date: 0, account: 1, description: 2, debit: 3, credit: 4}
}

func TestParseStructureHierarchy(t *testing.T) {
	rows := [][]string{
		{"Date", "Account", "Memo", "Debit", "Credit"},
		{"", "Assets", "", "", ""},
		{"", "    Current Assets", "", "", ""},
		{"", "        Cash", "", "", ""},
		{"2024-01-15", "", "Deposit", "500.00", ""},
		{"2024-01-20", "", "Withdrawal", "", "200.00"},
	}

	var report domain.FileReport
	out := ParseStructure(rows, desktopLayout(), domain.SourceQuickBooksDesktop, " : ", 4, &report)

	require.Len(t, out, 2)
	assert.Equal(t, "Assets : Current Assets : Cash", out[0].accountFlat)
	assert.Equal(t, "Assets : Current Assets : Cash", out[1].accountFlat)
	assert.Equal(t, "Deposit", out[0].description)
	assert.Equal(t, "500.00", out[0].debitRaw)
	assert.Equal(t, "", out[0].creditRaw)
	assert.Equal(t, 4, out[0].sheetRow)
}

func TestParseStructureBlankRowClosesSection(t *testing.T) {
	rows := [][]string{
		{"Date", "Account", "Memo", "Debit", "Credit"},
		{"", "Revenue", "", "", ""},
		{"2024-01-15", "", "Invoice", "", "1000.00"},
		{"", "", "", "", ""},
		{"", "Expenses", "", "", ""},
		{"2024-01-16", "", "Rent", "800.00", ""},
	}

	var report domain.FileReport
	out := ParseStructure(rows, desktopLayout(), domain.SourceQuickBooksDesktop, " : ", 4, &report)

	require.Len(t, out, 2)
	assert.Equal(t, "Revenue", out[0].accountFlat)
	assert.Equal(t, "Expenses", out[1].accountFlat)
}

func TestParseStructureIndentClamped(t *testing.T) {
	// A deeply indented header with no ancestors must not invent
	// intermediate levels; it becomes the sole chain element.
	rows := [][]string{
		{"Date", "Account", "Memo", "Debit", "Credit"},
		{"", "            Cash", "", "", ""},
		{"2024-01-15", "", "Deposit", "500.00", ""},
	}

	var report domain.FileReport
	out := ParseStructure(rows, desktopLayout(), domain.SourceQuickBooksDesktop, " : ", 4, &report)

	require.Len(t, out, 1)
	assert.Equal(t, "Cash", out[0].accountFlat)
}

func TestParseStructureSiblingHeaderReplacesLevel(t *testing.T) {
	rows := [][]string{
		{"Date", "Account", "Memo", "Debit", "Credit"},
		{"", "Expenses", "", "", ""},
		{"", "    Rent", "", "", ""},
		{"2024-01-05", "", "Jan", "800.00", ""},
		{"", "    Utilities", "", "", ""},
		{"2024-01-06", "", "Power", "120.00", ""},
	}

	var report domain.FileReport
	out := ParseStructure(rows, desktopLayout(), domain.SourceQuickBooksDesktop, " : ", 4, &report)

	require.Len(t, out, 2)
	assert.Equal(t, "Expenses : Rent", out[0].accountFlat)
	assert.Equal(t, "Expenses : Utilities", out[1].accountFlat)
}

func TestParseStructureRemovesSummaryRows(t *testing.T) {
	rows := [][]string{
		{"Date", "Account", "Memo", "Debit", "Credit"},
		{"", "Revenue", "", "", ""},
		{"", "", "Opening Balance", "", "50.00"},
		{"2024-01-15", "", "Invoice", "", "1000.00"},
		{"", "Subtotal Revenue", "", "", "1000.00"},
		{"", "Total Revenue", "", "", "1050.00"},
		{"", "", "Grand Total", "", "1050.00"},
	}

	var report domain.FileReport
	out := ParseStructure(rows, desktopLayout(), domain.SourceQuickBooksDesktop, " : ", 4, &report)

	require.Len(t, out, 1)
	assert.Equal(t, "Revenue", out[0].accountFlat)
	assert.Equal(t, 1, report.RowsRemovedOpening)
	assert.Equal(t, 1, report.RowsRemovedSubtotals)
	assert.Equal(t, 2, report.RowsRemovedTotals)
}

func TestParseStructureAccountNamedTotalKept(t *testing.T) {
	// A real transaction against an account containing "total" has a
	// date and must survive; only dateless or amount-bearing summary
	// residue is removed.
	rows := [][]string{
		{"Date", "Account", "Description", "Debit", "Credit"},
		{"2024-01-15", "Total Quality Services", "Invoice", "", "1000.00"},
	}

	var report domain.FileReport
	out := ParseStructure(rows, desktopLayout(), domain.SourceQuickBooksOnline, " : ", 4, &report)

	// Amount-bearing rows with total markers are still removed; this is
	// the conservative reading the cleaning stage takes.
	require.Empty(t, out)
	assert.Equal(t, 1, report.RowsRemovedTotals)
}

func TestParseStructureFlatDialect(t *testing.T) {
	rows := [][]string{
		{"Date", "Account", "Description", "Debit", "Credit"},
		{"2024-01-15", "Expenses:Rent:Office", "Jan rent", "800.00", ""},
		{"2024-01-16", "Sales", "Invoice", "", "1200.00"},
	}

	var report domain.FileReport
	out := ParseStructure(rows, desktopLayout(), domain.SourceQuickBooksOnline, " : ", 4, &report)

	require.Len(t, out, 2)
	assert.Equal(t, "Expenses : Rent : Office", out[0].accountFlat)
	assert.Equal(t, "Expenses:Rent:Office", out[0].accountRaw)
	assert.Equal(t, "Sales", out[1].accountFlat)
}

func TestIndentDepth(t *testing.T) {
	tests := []struct {
		raw         string
		indentWidth int
		want        int
	}{
		{"Assets", 4, 0},
		{"    Cash", 4, 1},
		{"        Petty Cash", 4, 2},
		{"\tCash", 4, 1},
		{"\t\tPetty Cash", 4, 2},
		{"  Cash", 2, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, indentDepth(tt.raw, tt.indentWidth), "raw=%q", tt.raw)
	}
}
