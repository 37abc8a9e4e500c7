package google

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Columns written per transaction, A through G.
var header = []any{"ID", "Date", "Description", "Amount", "Category", "Kind", "Updated"}

const lastColumn = "G"

// toRow renders a transaction as sheet cells.
func toRow(tx core.Transaction) []any {
	category, kind := core.UncategorizedName, ""
	if tx.Category != nil {
		category, kind = tx.Category.Name, string(tx.Category.Kind)
	}
	if kind == "" {
		kind = string(core.KindExpense)
		if tx.IsIncome() {
			kind = string(core.KindIncome)
		}
	}
	return []any{
		tx.ID,
		tx.Date.String(),
		tx.Description,
		core.FormatAmount(tx.Amount),
		category,
		kind,
		tx.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// findRow returns the 1-based sheet row whose first cell equals id, or 0.
func findRow(colA [][]any, id string) int {
	for i, row := range colA {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, lastColumn, row)
}

func columnRange(sheet string) string {
	return fmt.Sprintf("%s!A:%s", quoteSheet(sheet), lastColumn)
}

// quoteSheet quotes sheet names that A1 notation would misread.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
