package google

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestFindRow(t *testing.T) {
	colA := [][]any{
		{"ID"},
		{"tx-1"},
		{},
		{" tx-3 "},
	}
	cases := map[string]int{
		"tx-1": 2,
		"tx-3": 4,
		"tx-9": 0,
		"ID":   1,
		"":     0,
	}
	for id, want := range cases {
		if got := findRow(colA, id); got != want {
			t.Fatalf("findRow(%q) = %d, want %d", id, got, want)
		}
	}
}

func TestToRow(t *testing.T) {
	tx := core.Transaction{
		ID:          "tx-1",
		Amount:      decimal.RequireFromString("-50.5"),
		Date:        core.NewDate(2024, 3, 5),
		Description: "Groceries",
		Category:    &core.Category{Name: "Food", Kind: core.KindExpense},
		UpdatedAt:   time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
	row := toRow(tx)
	want := []any{"tx-1", "2024-03-05", "Groceries", "-50.50", "Food", "expense", "2024-03-05T10:00:00Z"}
	if len(row) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("cell %d: expected %v, got %v", i, want[i], row[i])
		}
	}

	tx.Category = nil
	tx.Amount = decimal.RequireFromString("2000")
	row = toRow(tx)
	if row[4] != core.UncategorizedName || row[5] != "income" {
		t.Fatalf("uncategorized income row wrong: %v", row)
	}
	if len(header) != len(row) {
		t.Fatalf("header and row widths differ")
	}
}

func TestRanges(t *testing.T) {
	if got := rowRange("Transactions", 7); got != "Transactions!A7:G7" {
		t.Fatalf("unexpected range %s", got)
	}
	if got := columnRange("My Ledger"); got != "'My Ledger'!A:G" {
		t.Fatalf("unexpected range %s", got)
	}
	if got := quoteSheet("Bob's"); got != "'Bob''s'" {
		t.Fatalf("unexpected quoting %s", got)
	}
}
