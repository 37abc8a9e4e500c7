package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.transactions.List(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	points, err := s.transactions.MonthlyChart(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := decodeTransactionRequest(w, r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	in, err := core.ParseForm(req.form(), s.now())
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}

	tx, err := s.transactions.Create(ctx, in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	s.appMetrics.transactionsWrites.Add(1)
	w.Header().Set("Location", "/api/transactions/"+tx.ID)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req patchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	patch, err := req.toPatch(s.now())
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}

	tx, err := s.transactions.Update(ctx, id, patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	s.appMetrics.transactionsWrites.Add(1)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := s.transactions.Delete(ctx, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}

	s.appMetrics.transactionsWrites.Add(1)
	w.WriteHeader(http.StatusNoContent)
}

type fieldValidation struct {
	Valid bool   `json:"valid"`
	Field string `json:"field"`
	Error string `json:"error,omitempty"`
}

type formValidation struct {
	Valid  bool             `json:"valid"`
	Errors core.FieldErrors `json:"errors"`
}

// handleValidateTransaction checks input without saving it. With ?field= only
// that field is checked. Results are always 200; the body says whether the
// input is valid.
func (s *Server) handleValidateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransactionRequest(w, r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	form := req.form()
	now := s.now()

	if field := r.URL.Query().Get("field"); field != "" {
		if !core.IsFormField(field) {
			writeBadRequest(w, "unknown field "+field)
			return
		}
		msg := core.ValidateField(field, fieldValue(form, field), now)
		writeJSON(w, http.StatusOK, fieldValidation{Valid: msg == "", Field: field, Error: msg})
		return
	}

	errs := core.ValidateForm(form, now)
	writeJSON(w, http.StatusOK, formValidation{Valid: len(errs) == 0, Errors: errs})
}

func fieldValue(f core.TransactionForm, field string) string {
	switch field {
	case core.FieldAmount:
		return f.Amount
	case core.FieldDescription:
		return f.Description
	case core.FieldDate:
		return f.Date
	case core.FieldCategory:
		return f.CategoryID
	}
	return ""
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.transactions.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}
