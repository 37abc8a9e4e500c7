package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const codeFutureDate = "future_date"

type errorBody struct {
	Error  string           `json:"error"`
	Code   string           `json:"code,omitempty"`
	Fields core.FieldErrors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its status code. Unexpected errors are logged
// with their cause and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		body := errorBody{Error: "Validation failed", Fields: verr.Fields}
		if errors.Is(err, core.ErrFutureDate) {
			body.Code = codeFutureDate
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	default:
		errorType := log.ErrorTypeInternal
		var uerr *core.UpstreamError
		if errors.As(err, &uerr) {
			errorType = log.ErrorTypeDatabase
		}
		fields := log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
			WithErrorType(errorType)
		log.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, op, fields)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
