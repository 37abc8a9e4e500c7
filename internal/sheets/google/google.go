// Package google mirrors the ledger into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.LedgerMirror = (*Client)(nil)

// Config selects the spreadsheet and service account credentials.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx, cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// newSheetsService initializes a Sheets service from inline JSON or a key
// file, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credentialsJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		raw = []byte(credentialsJSON)
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", credentialsFile)
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", quoteSheet(c.sheetName))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read ids from %s: %w", c.sheetName, err)
	}
	return resp.Values, nil
}

// UpsertTransaction rewrites the transaction's row, appending one when the
// id is not in the sheet yet.
func (c *Client) UpsertTransaction(ctx context.Context, tx core.Transaction) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}

	if row := findRow(ids, tx.ID); row > 0 {
		vr := &gsheet.ValueRange{Values: [][]any{toRow(tx)}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(c.sheetName, row), vr).
			ValueInputOption(valueInputOption).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d in %s: %w", row, c.sheetName, err)
		}
		slog.InfoContext(ctx, "Updated transaction row", "id", tx.ID, "row", row)
		return nil
	}

	values := [][]any{toRow(tx)}
	if len(ids) == 0 {
		values = append([][]any{header}, values...)
	}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, columnRange(c.sheetName), &gsheet.ValueRange{Values: values}).
		ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", c.sheetName, err)
	}
	slog.InfoContext(ctx, "Appended transaction row", "id", tx.ID)
	return nil
}

// DeleteTransaction clears the transaction's row. A missing row is not an
// error.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		slog.InfoContext(ctx, "Transaction row already absent", "id", id)
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rowRange(c.sheetName, row), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d in %s: %w", row, c.sheetName, err)
	}
	slog.InfoContext(ctx, "Cleared transaction row", "id", id, "row", row)
	return nil
}
