package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// formatFloat formats a monetary value with exactly 2 decimal places
// so 13.4 renders as 13.40 throughout the workbook.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatBool renders a boolean for sheet cells.
func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// colLetter converts a 1-based column number to its letter name.
func colLetter(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return ""
	}
	return name
}

// cellRef builds an A1-style reference from 1-based coordinates.
func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

// colRange builds an absolute single-column range reference, optionally
// qualified with a sheet name, e.g. GL_Clean!$J$2:$J$500.
func colRange(sheet string, col, firstRow, lastRow int) string {
	ref := fmt.Sprintf("$%s$%d:$%s$%d", colLetter(col), firstRow, colLetter(col), lastRow)
	if sheet != "" {
		ref = sheet + "!" + ref
	}
	return ref
}

// quoteFormulaString escapes a literal for embedding in a formula.
func quoteFormulaString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
