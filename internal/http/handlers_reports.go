package http

import (
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.MonthlyTotals(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	totals, err := s.reports.CategoryTotals(r.Context(), p)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleBudgetComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.reports.BudgetComparison(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// Insights never fail; the service substitutes an error insight.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.Insights(r.Context()))
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, services.DefaultRecentLimit)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	txs, err := s.reports.RecentTransactions(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	d, err := s.reports.Dashboard(r.Context(), p)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
