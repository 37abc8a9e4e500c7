package core

import (
	"strings"
	"time"
)

// Period selects the date window of a category totals computation.
type Period string

const (
	PeriodCurrentMonth Period = "current-month"
	PeriodLastMonth    Period = "last-month"
	PeriodYearToDate   Period = "year-to-date"
)

// ParsePeriod maps a selector string to a Period. The empty string selects
// the current month.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.TrimSpace(s)); p {
	case "":
		return PeriodCurrentMonth, nil
	case PeriodCurrentMonth, PeriodLastMonth, PeriodYearToDate:
		return p, nil
	default:
		return "", NewValidationError(FieldErrors{
			FieldPeriod: "Period must be one of current-month, last-month, year-to-date",
		})
	}
}

// Window returns the inclusive first and last day covered by p at now.
func (p Period) Window(now time.Time) (start, end Date) {
	today := DateOf(now)
	switch p {
	case PeriodLastMonth:
		prev := today.AddMonths(-1)
		return prev, prev.MonthEnd()
	case PeriodYearToDate:
		return NewDate(today.Year(), time.January, 1), today.MonthEnd()
	default:
		return today.MonthStart(), today.MonthEnd()
	}
}

// Label is the human name of the period.
func (p Period) Label() string {
	switch p {
	case PeriodLastMonth:
		return "Last Month"
	case PeriodYearToDate:
		return "Year to Date"
	default:
		return "This Month"
	}
}
