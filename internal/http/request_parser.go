package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	maxBodyBytes = 1 << 20

	fieldLimit  = "limit"
	maxRecent   = 50
	msgLimitBad = "Limit must be a whole number between 1 and 50"
)

var errBadBody = errors.New("request body must be a JSON object or a form")

// flexString accepts a JSON string or number. Amounts arrive either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// transactionRequest is the create and validate body.
type transactionRequest struct {
	Amount      flexString `json:"amount"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	CategoryID  string     `json:"categoryId"`
}

func (t transactionRequest) form() core.TransactionForm {
	return core.TransactionForm{
		Amount:      string(t.Amount),
		Description: t.Description,
		Date:        t.Date,
		CategoryID:  t.CategoryID,
	}
}

// patchRequest is the partial update body. Absent fields stay nil.
type patchRequest struct {
	Amount      *flexString `json:"amount"`
	Description *string     `json:"description"`
	Date        *string     `json:"date"`
	CategoryID  *string     `json:"categoryId"`
}

// decodeTransactionRequest reads a JSON or form-encoded transaction body.
func decodeTransactionRequest(w http.ResponseWriter, r *http.Request) (transactionRequest, error) {
	var req transactionRequest
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return req, errBadBody
		}
		req.Amount = flexString(r.PostForm.Get(core.FieldAmount))
		req.Description = r.PostForm.Get(core.FieldDescription)
		req.Date = r.PostForm.Get(core.FieldDate)
		req.CategoryID = r.PostForm.Get(core.FieldCategory)
		return req, nil
	}
	err := decodeJSON(w, r, &req)
	return req, err
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errBadBody
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data")
}

// toPatch checks every present field with the form rules and converts the
// request into a typed patch.
func (p patchRequest) toPatch(now time.Time) (core.TransactionPatch, error) {
	var patch core.TransactionPatch
	errs := core.FieldErrors{}

	if p.Amount != nil {
		if msg := core.ValidateField(core.FieldAmount, string(*p.Amount), now); msg != "" {
			errs[core.FieldAmount] = msg
		} else {
			amount, _ := core.ParseAmount(string(*p.Amount))
			patch.Amount = &amount
		}
	}
	if p.Description != nil {
		if msg := core.ValidateField(core.FieldDescription, *p.Description, now); msg != "" {
			errs[core.FieldDescription] = msg
		} else {
			desc := strings.TrimSpace(*p.Description)
			patch.Description = &desc
		}
	}
	if p.Date != nil {
		if msg := core.ValidateField(core.FieldDate, *p.Date, now); msg != "" {
			errs[core.FieldDate] = msg
		} else {
			date, _ := core.ParseDate(*p.Date)
			patch.Date = &date
		}
	}
	if p.CategoryID != nil {
		id := strings.TrimSpace(*p.CategoryID)
		patch.CategoryID = &id
	}

	if len(errs) > 0 {
		return core.TransactionPatch{}, core.NewValidationError(errs)
	}
	return patch, nil
}

// parseLimit reads ?limit=, defaulting to def.
func parseLimit(r *http.Request, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(fieldLimit))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxRecent {
		return 0, core.NewValidationError(core.FieldErrors{fieldLimit: msgLimitBad})
	}
	return n, nil
}

func parsePeriod(r *http.Request) (core.Period, error) {
	return core.ParsePeriod(r.URL.Query().Get(core.FieldPeriod))
}
