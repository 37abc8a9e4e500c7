package http

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestFlexString(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{`{"amount":"12,34"}`, "12,34", false},
		{`{"amount":-12.5}`, "-12.5", false},
		{`{"amount":null}`, "", false},
		{`{}`, "", false},
		{`{"amount":true}`, "", true},
	}
	for _, tt := range tests {
		var req transactionRequest
		err := json.Unmarshal([]byte(tt.in), &req)
		if (err != nil) != tt.err {
			t.Fatalf("%s: err = %v, wantErr %v", tt.in, err, tt.err)
		}
		if !tt.err && string(req.Amount) != tt.want {
			t.Errorf("%s: amount = %q, want %q", tt.in, req.Amount, tt.want)
		}
	}
}

func TestPatchRequestToPatch(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	str := func(s string) *string { return &s }
	amt := func(s string) *flexString { f := flexString(s); return &f }

	patch, err := patchRequest{Amount: amt("-7.255"), Description: str("  Taxi home  ")}.toPatch(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.Amount.String() != "-7.26" || *patch.Description != "Taxi home" {
		t.Errorf("unexpected patch %+v", patch)
	}
	if patch.Date != nil || patch.CategoryID != nil {
		t.Error("absent fields must stay nil")
	}

	_, err = patchRequest{Date: str("2024-03-16"), Amount: amt("abc")}.toPatch(now)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if verr.Fields[core.FieldDate] != core.MsgDateInFuture || verr.Fields[core.FieldAmount] != core.MsgAmountNotNumber {
		t.Errorf("unexpected fields %v", verr.Fields)
	}
	if errors.Is(err, core.ErrFutureDate) {
		t.Error("future date is not the only problem, so it must not match ErrFutureDate")
	}

	patch, err = patchRequest{CategoryID: str(" ")}.toPatch(now)
	if err != nil || patch.CategoryID == nil || *patch.CategoryID != "" {
		t.Errorf("blank category should clear it: %+v, %v", patch, err)
	}
}
