package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"finsheet/internal/core"
	ports "finsheet/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// Credentials selects the service account used to talk to the Sheets API.
// The first non-empty source wins.
type Credentials struct {
	JSON    string // inline service account JSON
	File    string // path to a service account JSON file
	ADCPath string // GOOGLE_APPLICATION_CREDENTIALS
}

type Client struct {
	svc *gsheet.Service

	mu       sync.Mutex
	sheetIDs map[string]int64 // spreadsheetID + "\x00" + sheet title
}

// Ensure interface conformance
var _ ports.RowStore = (*Client)(nil)

// New creates a client using service account credentials.
func New(ctx context.Context, creds Credentials, appName string) (*Client, error) {
	svc, err := newSheetsService(ctx, creds, appName)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service) *Client {
	return &Client{svc: svc, sheetIDs: map[string]int64{}}
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(strings.TrimSpace(c.JSON)), nil
	case strings.TrimSpace(c.File) != "":
		data, err := os.ReadFile(strings.TrimSpace(c.File))
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	case strings.TrimSpace(c.ADCPath) != "":
		data, err := os.ReadFile(strings.TrimSpace(c.ADCPath))
		if err != nil {
			return nil, fmt.Errorf("read application credentials: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// ServiceAccountEmail returns the client_email of the configured service
// account, or "" when it can not be read.
func ServiceAccountEmail(creds Credentials) string {
	data, err := creds.load()
	if err != nil {
		return ""
	}
	var sa struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &sa); err != nil {
		return ""
	}
	return sa.ClientEmail
}

func newSheetsService(ctx context.Context, creds Credentials, appName string) (*gsheet.Service, error) {
	credentialsJSON, err := creds.load()
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	opts := []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}
	if appName != "" {
		opts = append(opts, goption.WithUserAgent(appName))
	}
	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) ReadAll(ctx context.Context, t ports.Target) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := t.A1()
	resp, err := c.svc.Spreadsheets.Values.Get(t.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if resp.Values == nil {
		return [][]any{}, nil
	}
	return resp.Values, nil
}

func (c *Client) Append(ctx context.Context, t ports.Target, r core.Record) (string, error) {
	return c.appendValues(ctx, t, r.Values())
}

func (c *Client) appendValues(ctx context.Context, t ports.Target, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := t.A1()
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(t.SpreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (c *Client) CloneRow(ctx context.Context, t ports.Target, index int) (string, error) {
	if err := core.ValidateRowIndex(index); err != nil {
		return "", err
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A%d:H%d", ports.QuoteSheet(t.SheetName), index, index)
	resp, err := c.svc.Spreadsheets.Values.Get(t.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", fmt.Errorf("row %d: %w", index, core.ErrRowNotFound)
	}
	return c.appendValues(ctx, t, resp.Values[0])
}

func (c *Client) DeleteRow(ctx context.Context, t ports.Target, index int) error {
	return c.DeleteRows(ctx, t, []int{index})
}

// DeleteRows sends one batchUpdate with a DeleteDimension request per index,
// in the order given.
func (c *Client) DeleteRows(ctx context.Context, t ports.Target, indices []int) error {
	if len(indices) == 0 {
		return nil
	}
	for _, idx := range indices {
		if err := core.ValidateRowIndex(idx); err != nil {
			return fmt.Errorf("row %d: %w", idx, err)
		}
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetID, err := c.sheetID(ctx, t)
	if err != nil {
		return err
	}

	reqs := make([]*gsheet.Request, 0, len(indices))
	for _, idx := range indices {
		reqs = append(reqs, &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(idx - 1),
					EndIndex:        int64(idx),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(t.SpreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete rows %v from %s: %w", indices, t.SheetName, err)
	}
	return nil
}

// sheetID resolves the numeric id of the target's tab. Ids never change for
// a tab, so they are cached per client.
func (c *Client) sheetID(ctx context.Context, t ports.Target) (int64, error) {
	key := t.SpreadsheetID + "\x00" + t.SheetName
	c.mu.Lock()
	id, ok := c.sheetIDs[key]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	ss, err := c.svc.Spreadsheets.Get(t.SpreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet %s: %w", t.SpreadsheetID, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		if s.Properties.Title == t.SheetName || (t.SheetName == "" && s.Properties.Index == 0) {
			c.mu.Lock()
			c.sheetIDs[key] = s.Properties.SheetId
			c.mu.Unlock()
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet %s", t.SheetName, t.SpreadsheetID)
}
