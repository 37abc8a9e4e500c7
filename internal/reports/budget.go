package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BudgetLimit is a monthly spending ceiling for one expense category.
type BudgetLimit struct {
	Category string
	Amount   decimal.Decimal
}

type (
	BudgetLine struct {
		Category    string          `json:"category"`
		Budgeted    decimal.Decimal `json:"budgeted"`
		Actual      decimal.Decimal `json:"actual"`
		Variance    decimal.Decimal `json:"variance"`
		PercentUsed float64         `json:"percentUsed"`
	}

	BudgetComparison struct {
		Categories     []BudgetLine    `json:"categories"`
		TotalBudgeted  decimal.Decimal `json:"totalBudgeted"`
		TotalSpent     decimal.Decimal `json:"totalSpent"`
		TotalRemaining decimal.Decimal `json:"totalRemaining"`
		PercentUsed    float64         `json:"percentUsed"`
	}
)

// DefaultBudget returns the built-in monthly ceilings.
func DefaultBudget() []BudgetLimit {
	return []BudgetLimit{
		{"Food", decimal.NewFromInt(500)},
		{"Rent", decimal.NewFromInt(1500)},
		{"Utilities", decimal.NewFromInt(300)},
		{"Transportation", decimal.NewFromInt(250)},
		{"Entertainment", decimal.NewFromInt(200)},
		{"Shopping", decimal.NewFromInt(300)},
		{"Healthcare", decimal.NewFromInt(200)},
		{"Travel", decimal.NewFromInt(500)},
		{"Education", decimal.NewFromInt(400)},
		{"Other Expenses", decimal.NewFromInt(300)},
	}
}

// CompareBudget compares an expense bucket against ceilings. Only categories
// with spending are listed, largest first; totals cover every ceiling.
func CompareBudget(expenses Bucket, limits []BudgetLimit) BudgetComparison {
	var out BudgetComparison
	out.Categories = []BudgetLine{}
	for _, l := range limits {
		actual := expenses.Value(l.Category)
		out.TotalBudgeted = out.TotalBudgeted.Add(l.Amount)
		out.TotalSpent = out.TotalSpent.Add(actual)
		if !actual.IsPositive() {
			continue
		}
		out.Categories = append(out.Categories, BudgetLine{
			Category:    l.Category,
			Budgeted:    l.Amount,
			Actual:      actual,
			Variance:    l.Amount.Sub(actual),
			PercentUsed: percentOf(actual, l.Amount),
		})
	}
	sort.SliceStable(out.Categories, func(i, j int) bool {
		return out.Categories[i].Actual.GreaterThan(out.Categories[j].Actual)
	})
	out.TotalRemaining = out.TotalBudgeted.Sub(out.TotalSpent)
	out.PercentUsed = percentOf(out.TotalSpent, out.TotalBudgeted)
	return out
}
