package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/reports"
)

// DefaultRecentLimit is the number of transactions on the dashboard feed.
const DefaultRecentLimit = 5

// ReportStore is the read-only persistence the report service needs.
type ReportStore interface {
	ListTransactionsBetween(ctx context.Context, ownerID string, start, end core.Date) ([]core.Transaction, error)
	RecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error)
}

// Dashboard bundles every report shown on the overview page.
type Dashboard struct {
	Period     core.Period              `json:"period"`
	Label      string                   `json:"label"`
	Income     decimal.Decimal          `json:"income"`
	Expenses   decimal.Decimal          `json:"expenses"`
	Net        decimal.Decimal          `json:"net"`
	Monthly    []reports.MonthlyRow     `json:"monthly"`
	Categories reports.CategoryTotals   `json:"categories"`
	Budget     reports.BudgetComparison `json:"budget"`
	Insights   []reports.Insight        `json:"insights"`
	Recent     []core.Transaction       `json:"recent"`
}

// ReportService computes aggregate views straight from the store.
type ReportService struct {
	store   ReportStore
	ownerID string
	budget  []reports.BudgetLimit
	logger  *log.Logger
	now     func() time.Time
}

func NewReportService(store ReportStore, ownerID string, logger *log.Logger, now func() time.Time) *ReportService {
	if ownerID == "" {
		ownerID = DefaultOwnerID
	}
	if logger == nil {
		logger = log.FromSlog(nil, log.ComponentReports)
	}
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		store:   store,
		ownerID: ownerID,
		budget:  reports.DefaultBudget(),
		logger:  logger,
		now:     now,
	}
}

// MonthlyTotals reports income, expenses and net for the last six months.
func (s *ReportService) MonthlyTotals(ctx context.Context) ([]reports.MonthlyRow, error) {
	start, end := reports.MonthlyWindow(s.now())
	txs, err := s.store.ListTransactionsBetween(ctx, s.ownerID, start, end)
	if err != nil {
		return nil, core.Upstream("monthly totals", err)
	}
	return reports.MonthlyTotals(txs), nil
}

// CategoryTotals groups the period's transactions by category.
func (s *ReportService) CategoryTotals(ctx context.Context, p core.Period) (reports.CategoryTotals, error) {
	start, end := p.Window(s.now())
	txs, err := s.store.ListTransactionsBetween(ctx, s.ownerID, start, end)
	if err != nil {
		return reports.CategoryTotals{}, core.Upstream("category totals", err)
	}
	return reports.CategoryTotalsFor(p, start, end, txs), nil
}

// BudgetComparison compares this month's spending with the budget.
func (s *ReportService) BudgetComparison(ctx context.Context) (reports.BudgetComparison, error) {
	current, err := s.CategoryTotals(ctx, core.PeriodCurrentMonth)
	if err != nil {
		return reports.BudgetComparison{}, err
	}
	return reports.CompareBudget(current.Expenses, s.budget), nil
}

// Insights never fails: when the inputs cannot be loaded the single error
// insight is returned and the cause logged.
func (s *ReportService) Insights(ctx context.Context) []reports.Insight {
	current, err := s.CategoryTotals(ctx, core.PeriodCurrentMonth)
	if err != nil {
		return s.insightsFailed(ctx, err)
	}
	last, err := s.CategoryTotals(ctx, core.PeriodLastMonth)
	if err != nil {
		return s.insightsFailed(ctx, err)
	}
	return reports.Insights(current, last, reports.CompareBudget(current.Expenses, s.budget))
}

func (s *ReportService) insightsFailed(ctx context.Context, err error) []reports.Insight {
	s.logger.LogError(ctx, "Failed to generate spending insights", err, log.OpRead, nil)
	return reports.ErrorInsight()
}

// RecentTransactions returns the newest limit transactions.
func (s *ReportService) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	txs, err := s.store.RecentTransactions(ctx, s.ownerID, limit)
	if err != nil {
		return nil, core.Upstream("recent transactions", err)
	}
	return txs, nil
}

// Dashboard loads every report for period concurrently.
func (s *ReportService) Dashboard(ctx context.Context, p core.Period) (Dashboard, error) {
	d := Dashboard{Period: p, Label: p.Label()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Monthly, err = s.MonthlyTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Categories, err = s.CategoryTotals(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		d.Budget, err = s.BudgetComparison(gctx)
		return err
	})
	g.Go(func() error {
		d.Insights = s.Insights(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		d.Recent, err = s.RecentTransactions(gctx, DefaultRecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Income = d.Categories.Income.Total
	d.Expenses = d.Categories.Expenses.Total
	d.Net = d.Income.Sub(d.Expenses)
	return d, nil
}
