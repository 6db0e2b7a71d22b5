// Package storage is the SQLite persistence layer: the sheet-config registry
// and the activity log the worker fills from AMQP.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finsheet/internal/core"
	"finsheet/internal/log"
	"finsheet/internal/sheetconfig"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultEventLimit caps ListEvents when the caller passes no limit.
const DefaultEventLimit = 100

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

var _ sheetconfig.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Save(ctx context.Context, c sheetconfig.SheetConfig) (sheetconfig.SheetConfig, error) {
	row, err := r.queries.UpsertSheetConfig(ctx, UpsertSheetConfigParams{
		ID:              c.ID,
		UserID:          c.UserID,
		SpreadsheetID:   c.SpreadsheetID,
		SpreadsheetName: c.SpreadsheetName,
		SheetName:       c.SheetName,
		RangeA1:         c.Range,
		Month:           int64(c.Month),
		Year:            int64(c.Year),
		CreatedAt:       formatTime(c.CreatedAt),
		UpdatedAt:       formatTime(c.UpdatedAt),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return sheetconfig.SheetConfig{}, sheetconfig.ErrDuplicateSpreadsheet
		}
		return sheetconfig.SheetConfig{}, fmt.Errorf("save sheet config: %w", err)
	}

	r.logger.InfoContext(ctx, "Sheet config saved",
		log.FieldConfigID, row.ID,
		log.FieldSpreadsheetID, row.SpreadsheetID)
	return toSheetConfig(row)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (sheetconfig.SheetConfig, error) {
	row, err := r.queries.GetSheetConfig(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return sheetconfig.SheetConfig{}, sheetconfig.ErrNotFound
	}
	if err != nil {
		return sheetconfig.SheetConfig{}, fmt.Errorf("get sheet config %s: %w", id, err)
	}
	return toSheetConfig(row)
}

func (r *SQLiteRepository) FindBySpreadsheetID(ctx context.Context, spreadsheetID string) (sheetconfig.SheetConfig, error) {
	row, err := r.queries.GetSheetConfigBySpreadsheetID(ctx, spreadsheetID)
	if errors.Is(err, sql.ErrNoRows) {
		return sheetconfig.SheetConfig{}, sheetconfig.ErrNotFound
	}
	if err != nil {
		return sheetconfig.SheetConfig{}, fmt.Errorf("find sheet config by spreadsheet: %w", err)
	}
	return toSheetConfig(row)
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]sheetconfig.SheetConfig, error) {
	rows, err := r.queries.ListSheetConfigsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sheet configs: %w", err)
	}
	out := make([]sheetconfig.SheetConfig, 0, len(rows))
	for _, row := range rows {
		c, err := toSheetConfig(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// RecordEvent stores an activity event. It reports false when the event id
// was already stored.
func (r *SQLiteRepository) RecordEvent(ctx context.Context, e core.ActivityEvent) (bool, error) {
	params := InsertTransactionEventParams{
		EventID:    e.ID,
		Kind:       string(e.Kind),
		ConfigID:   e.ConfigID,
		RowIndices: joinIndices(e.RowIndices),
		SheetsRef:  e.SheetsRef,
		OccurredAt: formatTime(e.OccurredAt),
		RecordedAt: formatTime(r.now()),
	}
	if e.Record != nil {
		params.Description = e.Record.Transaction
		params.Category = e.Record.Category
		params.Amount = e.Record.Amount
	}

	n, err := r.queries.InsertTransactionEvent(ctx, params)
	if err != nil {
		return false, fmt.Errorf("insert transaction event: %w", err)
	}
	return n > 0, nil
}

// ListEvents returns the newest events recorded for a config.
func (r *SQLiteRepository) ListEvents(ctx context.Context, configID string, limit int) ([]core.ActivityEvent, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	rows, err := r.queries.ListTransactionEvents(ctx, ListTransactionEventsParams{
		ConfigID: configID,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list transaction events: %w", err)
	}

	out := make([]core.ActivityEvent, 0, len(rows))
	for _, row := range rows {
		e, err := toActivityEvent(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// CountEvents returns the number of stored activity events.
func (r *SQLiteRepository) CountEvents(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactionEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transaction events: %w", err)
	}
	return n, nil
}

func toSheetConfig(row SheetConfig) (sheetconfig.SheetConfig, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return sheetconfig.SheetConfig{}, fmt.Errorf("sheet config %s created_at: %w", row.ID, err)
	}
	updated, err := parseTime(row.UpdatedAt)
	if err != nil {
		return sheetconfig.SheetConfig{}, fmt.Errorf("sheet config %s updated_at: %w", row.ID, err)
	}
	return sheetconfig.SheetConfig{
		ID:              row.ID,
		UserID:          row.UserID,
		SpreadsheetID:   row.SpreadsheetID,
		SpreadsheetName: row.SpreadsheetName,
		SheetName:       row.SheetName,
		Range:           row.RangeA1,
		Month:           int(row.Month),
		Year:            int(row.Year),
		CreatedAt:       created,
		UpdatedAt:       updated,
	}, nil
}

func toActivityEvent(row TransactionEvent) (core.ActivityEvent, error) {
	occurred, err := parseTime(row.OccurredAt)
	if err != nil {
		return core.ActivityEvent{}, fmt.Errorf("event %s occurred_at: %w", row.EventID, err)
	}
	indices, err := splitIndices(row.RowIndices)
	if err != nil {
		return core.ActivityEvent{}, fmt.Errorf("event %s row_indices: %w", row.EventID, err)
	}
	e := core.ActivityEvent{
		ID:         row.EventID,
		Kind:       core.EventKind(row.Kind),
		ConfigID:   row.ConfigID,
		RowIndices: indices,
		SheetsRef:  row.SheetsRef,
		OccurredAt: occurred,
	}
	if row.Description != "" || row.Category != "" || row.Amount != "" {
		e.Record = &core.Record{Transaction: row.Description, Category: row.Category, Amount: row.Amount}
	}
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func joinIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, n := range indices {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitIndices(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
