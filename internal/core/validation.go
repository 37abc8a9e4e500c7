package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Transaction input fields as they appear in forms and JSON bodies.
const (
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldDate        = "date"
	FieldCategory    = "categoryId"
	FieldPeriod      = "period"
	FieldForm        = "form"
)

const (
	DescriptionMinLen = 3
	DescriptionMaxLen = 255
)

const (
	MsgAmountRequired     = "Amount is required"
	MsgAmountNotNumber    = "Amount must be a number"
	MsgAmountZero         = "Amount cannot be zero"
	MsgDescriptionMissing = "Description is required"
	MsgDescriptionShort   = "Description must be at least 3 characters"
	MsgDescriptionLong    = "Description cannot exceed 255 characters"
	MsgDateRequired       = "Date is required"
	MsgDateInvalid        = "Date must be a valid date"
	MsgDateInFuture       = "Date cannot be in the future"
	MsgPatchEmpty         = "At least one field must be provided"
)

// TransactionForm is raw, untrusted transaction input as typed by a user.
type TransactionForm struct {
	Amount      string
	Description string
	Date        string
	CategoryID  string
}

// TransactionInput is typed transaction input checked again right before
// persistence.
type TransactionInput struct {
	Amount      decimal.Decimal
	Description string
	Date        Date
	CategoryID  string
}

// TransactionPatch holds the fields of a partial update. A nil field is left
// unchanged; an empty CategoryID clears the category.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Description *string
	Date        *Date
	CategoryID  *string
}

// IsFormField reports whether name is a validatable transaction field.
func IsFormField(name string) bool {
	switch name {
	case FieldAmount, FieldDescription, FieldDate, FieldCategory:
		return true
	default:
		return false
	}
}

// ValidateField checks a single raw field and returns the first failing
// rule's message, or "" when the value is acceptable.
func ValidateField(field, value string, now time.Time) string {
	switch field {
	case FieldAmount:
		return amountRule(value)
	case FieldDescription:
		return descriptionRule(value)
	case FieldDate:
		return dateRule(value, now)
	default:
		return ""
	}
}

// ValidateForm checks every field of a raw form.
func ValidateForm(f TransactionForm, now time.Time) FieldErrors {
	errs := FieldErrors{}
	if msg := amountRule(f.Amount); msg != "" {
		errs[FieldAmount] = msg
	}
	if msg := descriptionRule(f.Description); msg != "" {
		errs[FieldDescription] = msg
	}
	if msg := dateRule(f.Date, now); msg != "" {
		errs[FieldDate] = msg
	}
	return errs
}

// ParseForm validates a raw form and converts it to typed input.
func ParseForm(f TransactionForm, now time.Time) (TransactionInput, error) {
	if errs := ValidateForm(f, now); len(errs) > 0 {
		return TransactionInput{}, NewValidationError(errs)
	}
	amount, _ := ParseAmount(f.Amount)
	date, _ := ParseDate(f.Date)
	return TransactionInput{
		Amount:      amount,
		Description: strings.TrimSpace(f.Description),
		Date:        date,
		CategoryID:  strings.TrimSpace(f.CategoryID),
	}, nil
}

// Validate applies the canonical rules to typed input.
func (in TransactionInput) Validate(now time.Time) error {
	errs := FieldErrors{}
	// Stored amounts are rounded, so anything that rounds to zero is zero.
	if in.Amount.Round(AmountPlaces).IsZero() {
		errs[FieldAmount] = MsgAmountZero
	}
	if msg := descriptionRule(in.Description); msg != "" {
		errs[FieldDescription] = msg
	}
	switch {
	case in.Date.IsZero():
		errs[FieldDate] = MsgDateRequired
	case in.Date.After(DateOf(now)):
		errs[FieldDate] = MsgDateInFuture
	}
	if len(errs) > 0 {
		return NewValidationError(errs)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Description == nil && p.Date == nil && p.CategoryID == nil
}

// Apply overlays the patch on an existing transaction.
func (p TransactionPatch) Apply(t Transaction) TransactionInput {
	in := TransactionInput{
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date,
		CategoryID:  t.CategoryID,
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Description != nil {
		in.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.CategoryID != nil {
		in.CategoryID = strings.TrimSpace(*p.CategoryID)
	}
	return in
}

func amountRule(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return MsgAmountRequired
	}
	amount, err := ParseAmount(value)
	if err != nil {
		return MsgAmountNotNumber
	}
	if amount.IsZero() {
		return MsgAmountZero
	}
	return ""
}

func descriptionRule(value string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n == 0:
		return MsgDescriptionMissing
	case n < DescriptionMinLen:
		return MsgDescriptionShort
	case n > DescriptionMaxLen:
		return MsgDescriptionLong
	}
	return ""
}

func dateRule(value string, now time.Time) string {
	if strings.TrimSpace(value) == "" {
		return MsgDateRequired
	}
	d, err := ParseDate(value)
	if err != nil {
		return MsgDateInvalid
	}
	if d.After(DateOf(now)) {
		return MsgDateInFuture
	}
	return ""
}
