package dataprocessing

import (
	"strings"

	"databook/pkg/contracts/domain"
)

// provisionalRow is a structurally-extracted row awaiting normalization.
// Amount and date cells keep their raw text so the normalizer can tally
// parse failures instead of the parser silently eating them.
type provisionalRow struct {
	sheetRow    int
	dateRaw     string
	accountRaw  string
	accountFlat string
	description string
	debitRaw    string
	creditRaw   string
}

// Summary-row markers. Subtotal is checked before total because the
// word contains it; opening balances cover both QuickBooks phrasings.
var (
	subtotalMarkers = []string{"subtotal"}
	openingMarkers  = []string{"opening balance", "beginning balance"}
	totalMarkers    = []string{"grand total", "period total", "total"}
)

type summaryKind int

const (
	summaryNone summaryKind = iota
	summarySubtotal
	summaryOpening
	summaryTotal
)

// ParseStructure extracts provisional rows from raw sheet rows under
// the detected dialect, producing a flattened account name per row and
// discarding account-group headers, total/subtotal rows, opening
// balance carry-forwards and blanks. Removal counts land on report.
func ParseStructure(rows [][]string, layout columnLayout, dialect domain.SourceSystem, sep string, indentWidth int, report *domain.FileReport) []provisionalRow {
	if sep == "" {
		sep = " : "
	}
	if indentWidth <= 0 {
		indentWidth = 4
	}

	var out []provisionalRow
	var stack []string // ancestor header chain, hierarchical dialect only

	for i := layout.headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		account := cellAt(row, layout.account)
		trimmedAccount := strings.TrimSpace(account)
		date := strings.TrimSpace(cellAt(row, layout.date))
		debit := strings.TrimSpace(cellAt(row, layout.debit))
		credit := strings.TrimSpace(cellAt(row, layout.credit))
		desc := strings.TrimSpace(cellAt(row, layout.description))
		hasAmount := debit != "" || credit != ""

		if trimmedAccount == "" && date == "" && !hasAmount && desc == "" {
			// blank row closes the current account section
			stack = nil
			continue
		}

		if kind := summaryMarker(trimmedAccount, desc); kind != summaryNone && (hasAmount || date == "") {
			switch kind {
			case summarySubtotal:
				report.RowsRemovedSubtotals++
			case summaryOpening:
				report.RowsRemovedOpening++
			default:
				report.RowsRemovedTotals++
			}
			continue
		}

		if dialect == domain.SourceQuickBooksDesktop {
			if trimmedAccount != "" && date == "" && !hasAmount {
				// account-group header: place it at the depth its
				// indentation implies, clamped to the chain seen so far
				// so unseen depths are never invented
				depth := indentDepth(account, indentWidth)
				if depth > len(stack) {
					depth = len(stack)
				}
				stack = append(stack[:depth], trimmedAccount)
				continue
			}
		}

		flat := flattenAccount(trimmedAccount, stack, dialect, sep)
		if flat == "" {
			// no account resolvable; residue, not a transaction
			continue
		}

		out = append(out, provisionalRow{
			sheetRow:    i,
			dateRaw:     date,
			accountRaw:  trimmedAccount,
			accountFlat: flat,
			description: desc,
			debitRaw:    debit,
			creditRaw:   credit,
		})
	}
	return out
}

// flattenAccount builds the single delimited account name. Hierarchical
// rows inherit the chain of ancestor headers above them; flat rows
// normalize any embedded QuickBooks ":" separators to the configured
// one. Casing is preserved for display.
func flattenAccount(leaf string, stack []string, dialect domain.SourceSystem, sep string) string {
	if dialect == domain.SourceQuickBooksDesktop {
		parts := make([]string, 0, len(stack)+1)
		parts = append(parts, stack...)
		if leaf != "" {
			parts = append(parts, leaf)
		}
		return strings.Join(parts, sep)
	}

	if leaf == "" {
		return ""
	}
	segments := strings.Split(leaf, ":")
	parts := segments[:0]
	for _, s := range segments {
		if t := strings.TrimSpace(s); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}

// summaryMarker classifies a row as total, subtotal or opening-balance
// residue by case-insensitive containment over account and description.
func summaryMarker(account, desc string) summaryKind {
	text := strings.ToLower(account + " " + desc)
	for _, m := range subtotalMarkers {
		if strings.Contains(text, m) {
			return summarySubtotal
		}
	}
	for _, m := range openingMarkers {
		if strings.Contains(text, m) {
			return summaryOpening
		}
	}
	for _, m := range totalMarkers {
		if strings.Contains(text, m) {
			return summaryTotal
		}
	}
	return summaryNone
}

// isSummaryText reports whether a cell carries any summary marker.
func isSummaryText(s string) bool {
	return summaryMarker(s, "") != summaryNone
}

// indentDepth derives the hierarchy level from leading whitespace.
// Tabs count as one level each.
func indentDepth(raw string, indentWidth int) int {
	spaces, tabs := 0, 0
	for _, r := range raw {
		if r == ' ' {
			spaces++
		} else if r == '\t' {
			tabs++
		} else {
			break
		}
	}
	return tabs + spaces/indentWidth
}
