// Package reports turns transaction lists into the aggregate views shown on
// the dashboard. Every function is pure: callers pass the transactions and,
// where it matters, the reference instant.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// MonthLabelLayout renders a month as "Mar 2024".
const MonthLabelLayout = "Jan 2006"

// MonthlyMonths is the number of calendar months covered by MonthlyTotals,
// the current one included.
const MonthlyMonths = 6

type (
	MonthlyRow struct {
		Month    string          `json:"month"`
		Year     int             `json:"year"`
		MonthNum int             `json:"monthNum"`
		Income   decimal.Decimal `json:"income"`
		Expenses decimal.Decimal `json:"expenses"`
		Net      decimal.Decimal `json:"net"`
	}

	ChartPoint struct {
		Month  string          `json:"month"`
		Amount decimal.Decimal `json:"amount"`
	}
)

type monthKey struct {
	year  int
	month time.Month
}

func keyOf(d core.Date) monthKey { return monthKey{d.Year(), d.Month()} }

func (k monthKey) before(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

func (k monthKey) label() string {
	return core.NewDate(k.year, k.month, 1).Format(MonthLabelLayout)
}

// MonthlyWindow returns the inclusive date range MonthlyTotals expects its
// input restricted to.
func MonthlyWindow(now time.Time) (start, end core.Date) {
	today := core.DateOf(now)
	return today.AddMonths(-(MonthlyMonths - 1)), today.MonthEnd()
}

// MonthlyTotals groups transactions by calendar month. Only months with at
// least one transaction produce a row; rows are in chronological order.
func MonthlyTotals(txs []core.Transaction) []MonthlyRow {
	rows := map[monthKey]*MonthlyRow{}
	for _, tx := range txs {
		k := keyOf(tx.Date)
		row, ok := rows[k]
		if !ok {
			row = &MonthlyRow{Month: k.label(), Year: k.year, MonthNum: int(k.month)}
			rows[k] = row
		}
		if tx.Amount.IsPositive() {
			row.Income = row.Income.Add(tx.Amount)
		} else {
			row.Expenses = row.Expenses.Add(tx.Amount.Abs())
		}
		row.Net = row.Net.Add(tx.Amount)
	}

	keys := sortedKeys(rows)
	out := make([]MonthlyRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, *rows[k])
	}
	return out
}

// MonthlyChart sums signed amounts per calendar month.
func MonthlyChart(txs []core.Transaction) []ChartPoint {
	sums := map[monthKey]decimal.Decimal{}
	for _, tx := range txs {
		k := keyOf(tx.Date)
		sums[k] = sums[k].Add(tx.Amount)
	}

	keys := sortedKeys(sums)
	out := make([]ChartPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, ChartPoint{Month: k.label(), Amount: sums[k]})
	}
	return out
}

func sortedKeys[V any](m map[monthKey]V) []monthKey {
	keys := make([]monthKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	return keys
}
