package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// DefaultColor is used for categories without a display color and for the
// uncategorized group.
const DefaultColor = "#6366F1"

var hundred = decimal.NewFromInt(100)

type (
	CategoryAmount struct {
		Name       string          `json:"name"`
		Value      decimal.Decimal `json:"value"`
		Percentage float64         `json:"percentage"`
		Color      string          `json:"color"`
		Count      int             `json:"count"`
	}

	Uncategorized struct {
		Count  int             `json:"count"`
		Amount decimal.Decimal `json:"amount"`
	}

	Bucket struct {
		Total         decimal.Decimal  `json:"total"`
		ByCategory    []CategoryAmount `json:"byCategory"`
		Uncategorized Uncategorized    `json:"uncategorized"`
	}

	CategoryTotals struct {
		Period   core.Period `json:"period"`
		Start    core.Date   `json:"start"`
		End      core.Date   `json:"end"`
		Income   Bucket      `json:"income"`
		Expenses Bucket      `json:"expenses"`
	}
)

// Value returns the bucket amount for a category name, or zero.
func (b Bucket) Value(name string) decimal.Decimal {
	for _, c := range b.ByCategory {
		if c.Name == name {
			return c.Value
		}
	}
	return decimal.Zero
}

// CategoryTotalsFor splits the transactions dated within [start, end] into
// income and expense buckets grouped by category name.
func CategoryTotalsFor(p core.Period, start, end core.Date, txs []core.Transaction) CategoryTotals {
	income := newBucketBuilder()
	expenses := newBucketBuilder()
	for _, tx := range txs {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		if tx.IsIncome() {
			income.add(tx)
		} else {
			expenses.add(tx)
		}
	}
	return CategoryTotals{
		Period:   p,
		Start:    start,
		End:      end,
		Income:   income.build(),
		Expenses: expenses.build(),
	}
}

type bucketBuilder struct {
	total  decimal.Decimal
	groups map[string]*CategoryAmount
	uncat  Uncategorized
}

func newBucketBuilder() *bucketBuilder {
	return &bucketBuilder{groups: map[string]*CategoryAmount{}}
}

func (b *bucketBuilder) add(tx core.Transaction) {
	value := tx.Amount.Abs()
	name := tx.CategoryName()
	g, ok := b.groups[name]
	if !ok {
		g = &CategoryAmount{Name: name, Color: DefaultColor}
		if tx.Category != nil && tx.Category.Color != "" {
			g.Color = tx.Category.Color
		}
		b.groups[name] = g
	}
	g.Value = g.Value.Add(value)
	g.Count++
	b.total = b.total.Add(value)

	if tx.Category == nil {
		b.uncat.Count++
		b.uncat.Amount = b.uncat.Amount.Add(value)
	}
}

func (b *bucketBuilder) build() Bucket {
	list := make([]CategoryAmount, 0, len(b.groups))
	for _, g := range b.groups {
		g.Percentage = percentOf(g.Value, b.total)
		list = append(list, *g)
	}
	sort.Slice(list, func(i, j int) bool {
		if c := list[i].Value.Cmp(list[j].Value); c != 0 {
			return c > 0
		}
		return list[i].Name < list[j].Name
	})
	return Bucket{Total: b.total, ByCategory: list, Uncategorized: b.uncat}
}

// percentOf returns part/whole*100, or 0 when whole is zero.
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}
