package reports

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type InsightType string

const (
	InsightSuccess InsightType = "success"
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
	InsightAlert   InsightType = "alert"
	InsightError   InsightType = "error"
)

// Insight is a short observation about recent spending.
type Insight struct {
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
}

const (
	categoryIncreaseThreshold = 20
	budgetAlertThreshold      = 90
)

// ErrorInsight is returned in place of insights when they cannot be computed.
func ErrorInsight() []Insight {
	return []Insight{{Type: InsightError, Message: "Unable to generate spending insights."}}
}

// Insights compares this month's expenses with last month's and with the
// budget. Rules are applied in a fixed order and each yields at most one
// insight.
func Insights(current, last CategoryTotals, budget BudgetComparison) []Insight {
	out := []Insight{}
	cur, prev := current.Expenses.Total, last.Expenses.Total

	switch {
	case cur.GreaterThan(prev) && prev.IsPositive():
		out = append(out, Insight{
			Type:    InsightWarning,
			Message: fmt.Sprintf("Your spending is up %s%% compared to last month.", oneDecimal(change(cur, prev))),
		})
	case prev.GreaterThan(cur) && cur.IsPositive():
		out = append(out, Insight{
			Type:    InsightSuccess,
			Message: fmt.Sprintf("Your spending is down %s%% compared to last month. Great job!", oneDecimal(change(cur, prev).Neg())),
		})
	}

	var (
		bestName   string
		bestChange decimal.Decimal
		found      bool
	)
	threshold := decimal.NewFromInt(categoryIncreaseThreshold)
	for _, c := range current.Expenses.ByCategory {
		baseline := last.Expenses.Value(c.Name)
		if !baseline.IsPositive() {
			continue
		}
		ch := change(c.Value, baseline)
		if ch.GreaterThan(threshold) && (!found || ch.GreaterThan(bestChange)) {
			bestName, bestChange, found = c.Name, ch, true
		}
	}
	if found {
		out = append(out, Insight{
			Type:    InsightWarning,
			Message: fmt.Sprintf("%s spending increased by %s%% from last month.", bestName, oneDecimal(bestChange)),
		})
	}

	// ByCategory is sorted by value, largest first.
	if top := current.Expenses.ByCategory; len(top) > 0 && top[0].Value.IsPositive() {
		out = append(out, Insight{
			Type:    InsightInfo,
			Message: fmt.Sprintf("Your highest spending category is %s.", top[0].Name),
		})
	}

	var over *BudgetLine
	for i := range budget.Categories {
		line := &budget.Categories[i]
		if line.PercentUsed > budgetAlertThreshold && (over == nil || line.PercentUsed > over.PercentUsed) {
			over = line
		}
	}
	if over != nil {
		out = append(out, Insight{
			Type:    InsightAlert,
			Message: fmt.Sprintf("You've used %s%% of your %s budget.", oneDecimal(decimal.NewFromFloat(over.PercentUsed)), over.Category),
		})
	}
	return out
}

// change is (now-base)/base*100; base must be nonzero.
func change(now, base decimal.Decimal) decimal.Decimal {
	return now.Sub(base).Div(base).Mul(hundred)
}

func oneDecimal(d decimal.Decimal) string {
	return d.Round(1).StringFixed(1)
}
