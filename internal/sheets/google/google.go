package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/sheets"
)

const valueInputOption = "USER_ENTERED"

// Client writes snapshots to one tab of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ sheets.SnapshotWriter = (*Client)(nil)

type Config struct {
	SpreadsheetID string
	SheetName     string
	// Exactly one of CredentialsJSON or CredentialsFile is used, JSON first.
	CredentialsJSON string
	CredentialsFile string
}

// New builds a client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service, e.g. one aimed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if sheetName == "" {
		sheetName = "Entries"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func loadCredentials(cfg Config) ([]byte, error) {
	if j := strings.TrimSpace(cfg.CredentialsJSON); j != "" {
		return []byte(j), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// quotedSheet renders the tab name for A1 notation.
func (c *Client) quotedSheet() string {
	return "'" + strings.ReplaceAll(c.sheetName, "'", "''") + "'"
}

// WriteSnapshot clears the tab and writes the snapshot from A1.
func (c *Client) WriteSnapshot(ctx context.Context, s sheets.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	tab := c.quotedSheet()

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, tab, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", c.sheetName, err)
	}

	rows := sheets.Rows(s)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, tab+"!A1", vr).
		ValueInputOption(valueInputOption).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Wrote spreadsheet snapshot",
		"sheet", c.sheetName,
		"entries", len(s.Entries),
		"rows", len(rows))
	return nil
}
