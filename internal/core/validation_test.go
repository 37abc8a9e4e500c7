package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestValidateField(t *testing.T) {
	cases := []struct {
		field string
		value string
		want  string
	}{
		{FieldAmount, "", MsgAmountRequired},
		{FieldAmount, "ten", MsgAmountNotNumber},
		{FieldAmount, "0", MsgAmountZero},
		{FieldAmount, "-50", ""},
		{FieldDescription, "", MsgDescriptionMissing},
		{FieldDescription, "ab", MsgDescriptionShort},
		{FieldDescription, "abc", ""},
		{FieldDescription, "  ab  ", MsgDescriptionShort},
		{FieldDescription, strings.Repeat("x", 256), MsgDescriptionLong},
		{FieldDescription, strings.Repeat("x", 255), ""},
		{FieldDate, "", MsgDateRequired},
		{FieldDate, "not-a-date", MsgDateInvalid},
		{FieldDate, "2024-03-16", MsgDateInFuture},
		{FieldDate, "2024-03-15", ""},
		{FieldCategory, "anything", ""},
	}
	for _, tc := range cases {
		if got := ValidateField(tc.field, tc.value, testNow); got != tc.want {
			t.Fatalf("%s=%q: expected %q, got %q", tc.field, tc.value, tc.want, got)
		}
	}
}

func TestParseForm(t *testing.T) {
	in, err := ParseForm(TransactionForm{
		Amount:      "-50,5",
		Description: "  Groceries ",
		Date:        "2024-03-10",
		CategoryID:  "cat-food",
	}, testNow)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if FormatAmount(in.Amount) != "-50.50" || in.Description != "Groceries" || in.Date.String() != "2024-03-10" || in.CategoryID != "cat-food" {
		t.Fatalf("unexpected input %+v", in)
	}

	_, err = ParseForm(TransactionForm{Amount: "x", Description: "ab", Date: ""}, testNow)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", ve.Fields)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Amount:      decimal.RequireFromString("2000"),
		Description: "Salary",
		Date:        NewDate(2024, 3, 1),
	}
	if err := good.Validate(testNow); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	future := good
	future.Date = NewDate(2024, 4, 1)
	err := future.Validate(testNow)
	if !errors.Is(err, ErrFutureDate) {
		t.Fatalf("expected ErrFutureDate, got %v", err)
	}

	both := future
	both.Amount = decimal.Zero
	err = both.Validate(testNow)
	if err == nil || errors.Is(err, ErrFutureDate) {
		t.Fatalf("mixed failures should be a plain validation error, got %v", err)
	}

	tiny := good
	tiny.Amount = decimal.RequireFromString("-0.004")
	var tinyErr *ValidationError
	if !errors.As(tiny.Validate(testNow), &tinyErr) || tinyErr.Fields[FieldAmount] != MsgAmountZero {
		t.Fatalf("an amount that rounds to zero should be rejected")
	}

	noDate := good
	noDate.Date = Date{}
	var ve *ValidationError
	if !errors.As(noDate.Validate(testNow), &ve) || ve.Fields[FieldDate] != MsgDateRequired {
		t.Fatalf("expected date required")
	}
}

func TestTransactionPatchApply(t *testing.T) {
	base := Transaction{
		Amount:      decimal.RequireFromString("-20"),
		Description: "Lunch",
		Date:        NewDate(2024, 3, 2),
		CategoryID:  "cat-food",
	}
	if !(TransactionPatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}

	amount := decimal.RequireFromString("-25")
	none := ""
	p := TransactionPatch{Amount: &amount, CategoryID: &none}
	if p.IsEmpty() {
		t.Fatalf("patch with fields is not empty")
	}
	in := p.Apply(base)
	if !in.Amount.Equal(amount) || in.Description != "Lunch" || in.CategoryID != "" || in.Date != base.Date {
		t.Fatalf("unexpected patched input %+v", in)
	}
}

func TestUpstream(t *testing.T) {
	if Upstream("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if !errors.Is(Upstream("op", ErrNotFound), ErrNotFound) {
		t.Fatalf("not found should pass through")
	}
	err := Upstream("list transactions", errors.New("disk full"))
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Op != "list transactions" {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if Upstream("outer", err) != err {
		t.Fatalf("already wrapped errors should not be re-wrapped")
	}
}
