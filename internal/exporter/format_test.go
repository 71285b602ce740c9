package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "13.40", formatFloat(13.4))
	assert.Equal(t, "0.00", formatFloat(0))
	assert.Equal(t, "-950.68", formatFloat(-950.68))
}

func TestColLetter(t *testing.T) {
	assert.Equal(t, "A", colLetter(1))
	assert.Equal(t, "L", colLetter(12))
	assert.Equal(t, "AA", colLetter(27))
}

func TestCellRef(t *testing.T) {
	assert.Equal(t, "B2", cellRef(2, 2))
	assert.Equal(t, "L100", cellRef(12, 100))
}

func TestColRange(t *testing.T) {
	assert.Equal(t, "GL_Clean!$J$2:$J$500", colRange("GL_Clean", 10, 2, 500))
	assert.Equal(t, "$A$1:$A$3", colRange("", 1, 1, 3))
}

func TestQuoteFormulaString(t *testing.T) {
	assert.Equal(t, `"Revenue"`, quoteFormulaString("Revenue"))
	assert.Equal(t, `"say ""hi"""`, quoteFormulaString(`say "hi"`))
}
