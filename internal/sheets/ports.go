// Package sheets defines the outbound port of the spreadsheet ledger mirror.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// LedgerMirror keeps a copy of the ledger outside the database, one row per
// transaction keyed by id. Both operations are idempotent.
type LedgerMirror interface {
	UpsertTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}
