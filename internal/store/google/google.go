// Package google implements the storage adapter against a Google Sheets
// spreadsheet. Rows are read unformatted, so dates arrive as serial
// numbers and amounts as plain numbers; both are handed to the ledger
// core untouched and normalized there.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"cashflow/internal/core"
	ports "cashflow/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Worksheet layout: row 1 is the header, data starts at row 2.
// A=ID, B=Date, C=Category, D=Description, E=Amount, F=Type, G=Usage, H=CreatedBy.
const (
	firstDataRow = 2
	dataColumns  = "A:H"
)

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	transactionsTab string
	categoriesTab   string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// Ensure interface conformance
var (
	_ ports.TransactionSource  = (*Client)(nil)
	_ ports.TransactionWriter  = (*Client)(nil)
	_ ports.TransactionUpdater = (*Client)(nil)
	_ ports.TransactionDeleter = (*Client)(nil)
	_ ports.CategoryStore      = (*Client)(nil)
)

// Config carries everything the adapter needs. Exactly one credential
// source is required: inline service-account JSON or a file path.
type Config struct {
	SpreadsheetID      string
	TransactionsTab    string
	CategoriesTab      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client from explicit configuration.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	transactionsTab := strings.TrimSpace(cfg.TransactionsTab)
	if transactionsTab == "" {
		transactionsTab = "Transactions"
	}
	categoriesTab := strings.TrimSpace(cfg.CategoriesTab)
	if categoriesTab == "" {
		categoriesTab = "Categories"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:             svc,
		spreadsheetID:   spreadsheetID,
		transactionsTab: transactionsTab,
		categoriesTab:   categoriesTab,
		sheetIDs:        map[string]int64{},
	}, nil
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service-account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional tab names: GOOGLE_SHEET_NAME (default "Transactions"),
// GOOGLE_CATEGORIES_SHEET_NAME (default "Categories").
func NewFromEnv(ctx context.Context) (*Client, error) {
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, Config{
		SpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		TransactionsTab:    os.Getenv("GOOGLE_SHEET_NAME"),
		CategoriesTab:      os.Getenv("GOOGLE_CATEGORIES_SHEET_NAME"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: file,
	})
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// LoadAll reads the full transactions tab and returns rows newest-first.
// Values are fetched unformatted so serial dates and numeric amounts pass
// through for the core to normalize.
func (c *Client) LoadAll(ctx context.Context) ([]core.RawRecord, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", c.transactionsTab, dataColumns)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) < firstDataRow {
		return nil, nil
	}
	return rowsToRecords(resp.Values[firstDataRow-1:], firstDataRow), nil
}

// Insert appends the transaction and returns the sheet row number as the
// row reference.
func (c *Client) Insert(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	id := tx.ID
	if id == 0 {
		// The sheet has no auto-increment; a millisecond timestamp is
		// unique enough for a two-user ledger and stays sortable.
		id = time.Now().UnixMilli()
	}

	// Find the next empty row from the ID column, as appends against
	// partially-formatted sheets can land in surprising places.
	colRange := fmt.Sprintf("%s!A:A", c.transactionsTab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, colRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.transactionsTab, err)
	}
	nextRow := len(resp.Values) + 1
	if nextRow < firstDataRow {
		nextRow = firstDataRow
	}

	rng := fmt.Sprintf("%s!A%d:H%d", c.transactionsTab, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		id, tx.Date, tx.Category, tx.Description,
		tx.Amount.Units(), string(tx.Type), string(tx.Usage), tx.CreatedBy,
	}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write row %d in %s: %w", nextRow, c.transactionsTab, err)
	}

	slog.InfoContext(ctx, "Transaction appended to sheet",
		"id", id, "row", nextRow, "sheet", c.transactionsTab)
	return strconv.Itoa(nextRow), nil
}

// Update rewrites the editable columns (C:H minus Date/Type) of the given
// sheet row.
func (c *Client) Update(ctx context.Context, rowRef string, fields core.TransactionUpdate) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := strconv.Atoi(rowRef)
	if err != nil || row < firstDataRow {
		return fmt.Errorf("invalid row reference %q", rowRef)
	}

	// C:E (category, description, amount)
	rng1 := fmt.Sprintf("%s!C%d:E%d", c.transactionsTab, row, row)
	vr1 := &gsheet.ValueRange{Values: [][]any{{fields.Category, fields.Description, fields.Amount.Units()}}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng1, vr1).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update C:E row %d: %w", row, err)
	}

	// G:H (usage, editor); F keeps the original type.
	rng2 := fmt.Sprintf("%s!G%d:H%d", c.transactionsTab, row, row)
	vr2 := &gsheet.ValueRange{Values: [][]any{{string(fields.Usage), fields.EditedBy}}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng2, vr2).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update G:H row %d: %w", row, err)
	}
	return nil
}

// Delete finds the row whose ID column matches id and removes it.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	colRange := fmt.Sprintf("%s!A:A", c.transactionsTab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, colRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", colRange, err)
	}
	row := -1
	for i, cells := range resp.Values {
		if len(cells) > 0 && strings.TrimSpace(fmt.Sprint(cells[0])) == id {
			row = i + 1
			break
		}
	}
	if row < firstDataRow {
		return fmt.Errorf("transaction %s not found", id)
	}
	return c.deleteRow(ctx, c.transactionsTab, row)
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	return c.readCol(ctx, c.categoriesTab, "A:A")
}

func (c *Client) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyCategory
	}
	existing, err := c.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, cat := range existing {
		if cat == name {
			return nil
		}
	}
	rng := fmt.Sprintf("%s!A:A", c.categoriesTab)
	vr := &gsheet.ValueRange{Values: [][]any{{name}}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append category: %w", err)
	}
	return nil
}

func (c *Client) RenameCategory(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return core.ErrEmptyCategory
	}
	row, err := c.findCategoryRow(ctx, oldName)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d", c.categoriesTab, row)
	vr := &gsheet.ValueRange{Values: [][]any{{newName}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

func (c *Client) DeleteCategory(ctx context.Context, name string) error {
	row, err := c.findCategoryRow(ctx, name)
	if err != nil {
		return err
	}
	return c.deleteRow(ctx, c.categoriesTab, row)
}

func (c *Client) findCategoryRow(ctx context.Context, name string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.categoriesTab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, cells := range resp.Values {
		if len(cells) > 0 && strings.TrimSpace(fmt.Sprint(cells[0])) == name {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("category %q not found", name)
}

// deleteRow removes a single row from the named tab via a DeleteDimension
// batch request.
func (c *Client) deleteRow(ctx context.Context, tab string, row int) error {
	sheetID, err := c.sheetID(ctx, tab)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", row, tab, err)
	}
	return nil
}

// sheetID resolves a tab title to its numeric sheet id, cached per client.
func (c *Client) sheetID(ctx context.Context, tab string) (int64, error) {
	c.mu.Lock()
	if id, ok := c.sheetIDs[tab]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			c.mu.Lock()
			c.sheetIDs[tab] = sh.Properties.SheetId
			c.mu.Unlock()
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("tab %q not found in spreadsheet", tab)
}

func (c *Client) readCol(ctx context.Context, tab, col string) ([]string, error) {
	rng := fmt.Sprintf("%s!%s", tab, col)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []string
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		out = append(out, v)
	}
	// Dedup while preserving order
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(out))
	for _, v := range out {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		uniq = append(uniq, v)
	}
	return uniq, nil
}
