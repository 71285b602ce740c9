package dataprocessing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"databook/internal/config"
	apperrors "databook/internal/errors"
	"databook/pkg/contracts/domain"
)

// writeWorkbook saves rows as a single-sheet xlsx fixture.
func writeWorkbook(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		r := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func desktopFixture(t *testing.T, dir string) string {
	return writeWorkbook(t, dir, "desktop.xlsx", [][]interface{}{
		{"Date", "Account", "Memo", "Debit", "Credit"},
		{"", "Revenue", "", "", ""},
		{"2024-01-15", "", "Invoice 101", "", "1000.00"},
		{"2024-02-15", "", "Invoice 102", "", "500.00"},
		{"", "Total Revenue", "", "", "1500.00"},
	})
}

func onlineFixture(t *testing.T, dir string) string {
	return writeWorkbook(t, dir, "online.xlsx", [][]interface{}{
		{"Date", "Account", "Description", "Debit", "Credit"},
		{"2024-01-20", "Expenses:Rent", "Jan rent", "1000.00", ""},
		{"2024-02-20", "Expenses:Rent", "Feb rent", "500.00", ""},
	})
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	inputs := []FileInput{
		{Path: desktopFixture(t, dir), Entity: "EntityA"},
		{Path: onlineFixture(t, dir), Entity: "EntityB"},
	}

	p := NewPipeline(nil, config.Default())
	result, err := p.Run(context.Background(), inputs)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.FileErrors)
	require.Len(t, result.Transactions, 4)
	require.Len(t, result.Reports, 2)

	// Concatenation follows submission order, row IDs are sequential
	// over the unified set.
	for i, txn := range result.Transactions {
		assert.Equal(t, int64(i+1), txn.RowID)
	}
	assert.Equal(t, "EntityA", result.Transactions[0].Entity)
	assert.Equal(t, domain.SourceQuickBooksDesktop, result.Transactions[0].SourceSystem)
	assert.Equal(t, "Revenue", result.Transactions[0].AccountNameFlat)
	assert.Equal(t, "EntityB", result.Transactions[2].Entity)
	assert.Equal(t, domain.SourceQuickBooksOnline, result.Transactions[2].SourceSystem)
	assert.Equal(t, "Expenses : Rent", result.Transactions[2].AccountNameFlat)

	// 1500 credits against 1500 debits: balanced, validation passes.
	assert.True(t, result.Validation.Passed, "failures: %v", result.Validation.Failures)
	assert.Equal(t, 1500.0, result.Validation.Stats.TotalDebits)
	assert.Equal(t, 1500.0, result.Validation.Stats.TotalCredits)

	desktopReport := result.Reports[0]
	assert.Equal(t, "desktop.xlsx", desktopReport.File)
	assert.Equal(t, 5, desktopReport.TotalRowsRead)
	assert.Equal(t, 0, desktopReport.HeaderRowIndex)
	assert.Equal(t, 1, desktopReport.RowsRemovedTotals)
	assert.Equal(t, 2, desktopReport.FinalTransactionRows)
}

func TestPipelineRunDeterministic(t *testing.T) {
	dir := t.TempDir()
	inputs := []FileInput{
		{Path: desktopFixture(t, dir), Entity: "EntityA"},
		{Path: onlineFixture(t, dir), Entity: "EntityB"},
	}
	p := NewPipeline(nil, config.Default())

	first, err := p.Run(context.Background(), inputs)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), inputs)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Transactions, second.Transactions)
	assert.Equal(t, first.Validation, second.Validation)
}

func TestPipelineRunFileErrorAttribution(t *testing.T) {
	dir := t.TempDir()
	inputs := []FileInput{
		{Path: filepath.Join(dir, "missing.xlsx"), Entity: "EntityA"},
		{Path: onlineFixture(t, dir), Entity: "EntityB"},
	}

	p := NewPipeline(nil, config.Default())
	result, err := p.Run(context.Background(), inputs)
	require.NoError(t, err, "a failed file must not abort the batch")

	require.Len(t, result.FileErrors, 1)
	assert.True(t, apperrors.IsCode(result.FileErrors[0], apperrors.CodeFileRead))
	assert.Contains(t, result.FileErrors[0].Error(), "missing.xlsx")

	// The surviving file's rows still process normally.
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "EntityB", result.Transactions[0].Entity)
}

func TestPipelineRunNoInputs(t *testing.T) {
	p := NewPipeline(nil, config.Default())
	_, err := p.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNoData))
}

func TestPipelineRunCanceledContext(t *testing.T) {
	dir := t.TempDir()
	inputs := []FileInput{{Path: onlineFixture(t, dir), Entity: "EntityA"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(nil, config.Default())
	_, err := p.Run(ctx, inputs)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
