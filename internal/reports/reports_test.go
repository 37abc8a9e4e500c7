package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

var (
	food   = &core.Category{ID: "cat-food", Name: "Food", Color: "#10B981", Kind: core.KindExpense}
	rent   = &core.Category{ID: "cat-rent", Name: "Rent", Color: "#6366F1", Kind: core.KindExpense}
	travel = &core.Category{ID: "cat-travel", Name: "Travel", Kind: core.KindExpense}
	salary = &core.Category{ID: "cat-salary", Name: "Salary", Color: "#10B981", Kind: core.KindIncome}
)

func tx(amount string, y int, m time.Month, d int, cat *core.Category) core.Transaction {
	t := core.Transaction{
		Amount:      decimal.RequireFromString(amount),
		Date:        core.NewDate(y, m, d),
		Description: "test",
		Category:    cat,
	}
	if cat != nil {
		t.CategoryID = cat.ID
	}
	return t
}

func march() (core.Date, core.Date) {
	return core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31)
}

func TestMonthlyTotals(t *testing.T) {
	rows := MonthlyTotals([]core.Transaction{
		tx("-50", 2024, 3, 5, food),
		tx("2000", 2024, 3, 1, salary),
		tx("-1500", 2024, 1, 2, rent),
		tx("0", 2024, 1, 3, nil),
	})
	require.Len(t, rows, 2)

	assert.Equal(t, "Jan 2024", rows[0].Month)
	assert.Equal(t, 1, rows[0].MonthNum)
	assert.True(t, rows[0].Income.IsZero())
	assert.Equal(t, "1500", rows[0].Expenses.String())

	assert.Equal(t, "Mar 2024", rows[1].Month)
	assert.Equal(t, "2000", rows[1].Income.String())
	assert.Equal(t, "50", rows[1].Expenses.String())
	assert.Equal(t, "1950", rows[1].Net.String())

	for _, r := range rows {
		assert.True(t, r.Net.Equal(r.Income.Sub(r.Expenses)), "net mismatch for %s", r.Month)
	}
}

func TestMonthlyTotalsEmpty(t *testing.T) {
	rows := MonthlyTotals(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestMonthlyWindow(t *testing.T) {
	start, end := MonthlyWindow(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "2023-10-01", start.String())
	assert.Equal(t, "2024-03-31", end.String())
}

func TestMonthlyChart(t *testing.T) {
	points := MonthlyChart([]core.Transaction{
		tx("-50", 2024, 3, 5, food),
		tx("2000", 2024, 3, 1, salary),
		tx("-20", 2023, 12, 24, nil),
	})
	require.Len(t, points, 2)
	assert.Equal(t, "Dec 2023", points[0].Month)
	assert.Equal(t, "-20", points[0].Amount.String())
	assert.Equal(t, "Mar 2024", points[1].Month)
	assert.Equal(t, "1950", points[1].Amount.String())
}

func TestCategoryTotalsFor(t *testing.T) {
	start, end := march()
	got := CategoryTotalsFor(core.PeriodCurrentMonth, start, end, []core.Transaction{
		tx("-50", 2024, 3, 5, food),
		tx("2000", 2024, 3, 1, salary),
		tx("-999", 2024, 2, 28, food), // outside the window
	})

	assert.Equal(t, "2000", got.Income.Total.String())
	assert.Equal(t, "50", got.Expenses.Total.String())
	require.Len(t, got.Expenses.ByCategory, 1)
	foodRow := got.Expenses.ByCategory[0]
	assert.Equal(t, "Food", foodRow.Name)
	assert.Equal(t, "50", foodRow.Value.String())
	assert.InDelta(t, 100, foodRow.Percentage, 1e-9)
	assert.Equal(t, "#10B981", foodRow.Color)
	assert.Equal(t, 1, foodRow.Count)
	assert.Equal(t, 0, got.Expenses.Uncategorized.Count)
}

func TestCategoryTotalsForEmpty(t *testing.T) {
	start, end := march()
	got := CategoryTotalsFor(core.PeriodCurrentMonth, start, end, nil)
	assert.True(t, got.Income.Total.IsZero())
	assert.True(t, got.Expenses.Total.IsZero())
	assert.NotNil(t, got.Expenses.ByCategory)
	assert.Empty(t, got.Expenses.ByCategory)
	assert.Empty(t, got.Income.ByCategory)
}

func TestCategoryTotalsGrouping(t *testing.T) {
	start, end := march()
	got := CategoryTotalsFor(core.PeriodCurrentMonth, start, end, []core.Transaction{
		tx("-30", 2024, 3, 2, food),
		tx("-30", 2024, 3, 3, nil),
		tx("-15", 2024, 3, 4, nil),
		tx("-45", 2024, 3, 6, travel),
		tx("-80", 2024, 3, 7, rent),
	})

	names := make([]string, 0)
	var sum float64
	for _, c := range got.Expenses.ByCategory {
		names = append(names, c.Name)
		sum += c.Percentage
	}
	// value desc, name asc on ties
	assert.Equal(t, []string{"Rent", "Travel", "Uncategorized", "Food"}, names)
	assert.InDelta(t, 100, sum, 0.0001)

	assert.Equal(t, 2, got.Expenses.Uncategorized.Count)
	assert.Equal(t, "45", got.Expenses.Uncategorized.Amount.String())

	for _, c := range got.Expenses.ByCategory {
		switch c.Name {
		case "Travel", "Uncategorized":
			assert.Equal(t, DefaultColor, c.Color, c.Name)
		case "Rent":
			assert.Equal(t, "#6366F1", c.Color)
		}
	}
}

func TestCompareBudget(t *testing.T) {
	start, end := march()
	totals := CategoryTotalsFor(core.PeriodCurrentMonth, start, end, []core.Transaction{
		tx("-50", 2024, 3, 5, food),
		tx("-1400", 2024, 3, 1, rent),
		tx("-70", 2024, 3, 9, nil),
	})
	got := CompareBudget(totals.Expenses, DefaultBudget())

	require.Len(t, got.Categories, 2)
	assert.Equal(t, "Rent", got.Categories[0].Category)
	foodLine := got.Categories[1]
	assert.Equal(t, "Food", foodLine.Category)
	assert.InDelta(t, 10.0, foodLine.PercentUsed, 1e-9)
	assert.Equal(t, "450", foodLine.Variance.String())

	assert.Equal(t, "4450", got.TotalBudgeted.String())
	// uncategorized spend has no ceiling
	assert.Equal(t, "1450", got.TotalSpent.String())
	assert.Equal(t, "3000", got.TotalRemaining.String())
}

func TestCompareBudgetEmpty(t *testing.T) {
	got := CompareBudget(Bucket{}, nil)
	assert.Empty(t, got.Categories)
	assert.Zero(t, got.PercentUsed)
}

func TestInsights(t *testing.T) {
	start, end := march()
	current := CategoryTotalsFor(core.PeriodCurrentMonth, start, end, []core.Transaction{
		tx("-150", 2024, 3, 5, food),
		tx("-460", 2024, 3, 6, travel),
	})
	pStart, pEnd := core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29)
	last := CategoryTotalsFor(core.PeriodLastMonth, pStart, pEnd, []core.Transaction{
		tx("-100", 2024, 2, 5, food),
		tx("-400", 2024, 2, 6, travel),
	})
	budget := CompareBudget(current.Expenses, DefaultBudget())

	got := Insights(current, last, budget)
	assert.Equal(t, []Insight{
		{InsightWarning, "Your spending is up 22.0% compared to last month."},
		{InsightWarning, "Food spending increased by 50.0% from last month."},
		{InsightInfo, "Your highest spending category is Travel."},
		{InsightAlert, "You've used 92.0% of your Travel budget."},
	}, got)
}

func TestInsightsSpendingDown(t *testing.T) {
	start, end := march()
	current := CategoryTotalsFor(core.PeriodCurrentMonth, start, end, []core.Transaction{
		tx("-75", 2024, 3, 5, food),
	})
	last := CategoryTotalsFor(core.PeriodLastMonth, core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29), []core.Transaction{
		tx("-100", 2024, 2, 5, food),
	})

	got := Insights(current, last, CompareBudget(current.Expenses, DefaultBudget()))
	require.Len(t, got, 2)
	assert.Equal(t, Insight{InsightSuccess, "Your spending is down 25.0% compared to last month. Great job!"}, got[0])
	assert.Equal(t, InsightInfo, got[1].Type)
}

func TestInsightsEmpty(t *testing.T) {
	got := Insights(CategoryTotals{}, CategoryTotals{}, BudgetComparison{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
