// Package google writes expense rows to a Google spreadsheet.
//
// Sheets are year-scoped: rows land on "<year> <base>" (e.g. "2026
// Expenses") so a spreadsheet survives January without manual cleanup.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetshop/internal/sheets"
)

type Config struct {
	SpreadsheetID string
	// SheetBase is the sheet name without the year prefix.
	SheetBase string

	// OAuth user credentials. When no client is configured the client
	// falls back to Application Default Credentials, which covers
	// service accounts via GOOGLE_APPLICATION_CREDENTIALS.
	OAuthClientFile string
	OAuthClientJSON string
	OAuthTokenFile  string
	OAuthTokenJSON  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ sheets.ExpenseWriter = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(cfg.SheetBase)
	if base == "" {
		base = "Expenses"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetBase:     base,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	clientJSON, err := readCredential(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}

	if clientJSON == nil {
		// Application Default Credentials: service account file, GCE
		// metadata, or gcloud user credentials.
		return gsheet.NewService(ctx, goption.WithScopes(gsheet.SpreadsheetsScope))
	}

	conf, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenJSON, err := readCredential(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	if tokenJSON == nil {
		return nil, errors.New("oauth client configured without a token (run oauth-init)")
	}

	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	return gsheet.NewService(ctx, goption.WithHTTPClient(conf.Client(ctx, &tok)))
}

// readCredential resolves inline JSON over a file path; both empty
// means the credential is not configured.
func readCredential(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		return b, nil
	}
	return nil, nil
}

func (c *Client) Append(ctx context.Context, r sheets.Row) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetName := yearPrefixedName(c.sheetBase, r.Date.Year())

	// Find the next empty row by getting the sheet dimensions first
	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", sheetName, err)
	}

	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:E%d", sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(r)}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to append to sheet %s: %w", sheetName, err)
	}

	return dataRange, nil
}

// rowValues lays a row out as Date, Description, Amount, Category, Note.
func rowValues(r sheets.Row) []any {
	return []any{
		r.Date.String(),
		r.Description,
		float64(r.Amount.Cents) / 100.0,
		r.Category,
		r.Note,
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
