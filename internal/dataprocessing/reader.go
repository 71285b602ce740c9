package dataprocessing

import (
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "databook/internal/errors"
)

// ReadRows opens an Excel workbook and returns the raw rows of the
// requested sheet. When sheet is empty the reader probes for the first
// sheet that looks like a GL export, falling back to the first sheet.
func ReadRows(path, sheet string) ([][]string, error) {
	file := filepath.Base(path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewFileError(apperrors.CodeFileRead, file, "failed to open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = findGLSheet(f)
	}
	if sheet == "" {
		return nil, apperrors.NewFileError(apperrors.CodeNoData, file, "workbook contains no sheets", nil)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewFileError(apperrors.CodeFileRead, file, "failed to read sheet "+sheet, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewFileError(apperrors.CodeNoData, file, "sheet "+sheet+" contains no rows", nil)
	}
	return rows, nil
}

// findGLSheet returns the name of the first sheet whose leading rows
// mention a date column next to an account or amount column. GL exports
// occasionally carry cover or summary sheets ahead of the data.
func findGLSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		limit := len(rows)
		if limit > 10 {
			limit = 10
		}
		for _, row := range rows[:limit] {
			text := strings.ToLower(strings.Join(row, " "))
			if strings.Contains(text, "date") &&
				(strings.Contains(text, "account") ||
					strings.Contains(text, "debit") ||
					strings.Contains(text, "credit")) {
				return name
			}
		}
	}
	if len(sheets) > 0 {
		return sheets[0]
	}
	return ""
}
