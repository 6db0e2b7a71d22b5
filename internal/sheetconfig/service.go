package sheetconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsheet/internal/log"
	ports "finsheet/internal/sheets"
)

// Service validates and registers sheet configs.
type Service struct {
	store  Store
	rows   ports.RowReader
	logger *log.Logger
	now    func() time.Time
}

func NewService(store Store, rows ports.RowReader, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{store: store, rows: rows, logger: logger.WithComponent(log.ComponentStorage), now: time.Now}
}

// ValidateAndSave registers the spreadsheet in req for userID after checking
// it is new and readable with the service account.
func (s *Service) ValidateAndSave(ctx context.Context, req Request, userID string) (SheetConfig, error) {
	spreadsheetID := ExtractSpreadsheetID(strings.TrimSpace(req.SpreadsheetURL))
	if spreadsheetID == "" {
		return SheetConfig{}, &ValidationError{Msg: "Invalid Google Sheets URL"}
	}

	existing, err := s.store.FindBySpreadsheetID(ctx, spreadsheetID)
	switch {
	case err == nil:
		return SheetConfig{}, &ValidationError{
			Msg: fmt.Sprintf("A configuration for this spreadsheet already exists (ID: %s)", existing.ID),
			Err: ErrDuplicateSpreadsheet,
		}
	case !errors.Is(err, ErrNotFound):
		return SheetConfig{}, fmt.Errorf("find spreadsheet %s: %w", spreadsheetID, err)
	}

	cfg := SheetConfig{
		UserID:          userID,
		SpreadsheetID:   spreadsheetID,
		SpreadsheetName: strings.TrimSpace(req.SpreadsheetName),
		SheetName:       strings.TrimSpace(req.SheetName),
		Range:           strings.TrimSpace(req.Range),
	}

	testRead, err := s.rows.ReadAll(ctx, cfg.Target())
	if err != nil {
		s.logger.ErrorContext(ctx, "Test read failed",
			log.FieldSpreadsheetID, spreadsheetID, log.FieldRange, cfg.FullRange(), log.FieldError, err)
		return SheetConfig{}, &ValidationError{
			Msg: "Failed to connect to the specified Google Sheet.\n" +
				"Make sure you have granted edit permission for this account \n" +
				"If still error though permission has been granted, please check the URL, sheet name, and range.\n" +
				"Underlying error: " + err.Error(),
			Err: err,
		}
	}
	s.logger.InfoContext(ctx, "Connection successful",
		log.FieldSpreadsheetID, spreadsheetID, log.FieldRowCount, len(testRead))

	cfg.Month, cfg.Year, err = ExtractMonthYear(cfg.SpreadsheetName)
	if err != nil {
		return SheetConfig{}, err
	}

	now := s.now()
	cfg.ID = uuid.NewString()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	saved, err := s.store.Save(ctx, cfg)
	if errors.Is(err, ErrDuplicateSpreadsheet) {
		return SheetConfig{}, &ValidationError{Msg: "Spreadsheet ID already exists in another configuration.", Err: err}
	}
	if err != nil {
		return SheetConfig{}, fmt.Errorf("save sheet config: %w", err)
	}
	s.logger.InfoContext(ctx, "Sheet config saved",
		log.FieldConfigID, saved.ID, log.FieldSpreadsheetID, saved.SpreadsheetID, "period", saved.DisplayPeriod())
	return saved, nil
}

// Get returns the config with id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (SheetConfig, error) {
	if strings.TrimSpace(id) == "" {
		return SheetConfig{}, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// List returns the user's configs, newest period first.
func (s *Service) List(ctx context.Context, userID string) ([]SheetConfig, error) {
	return s.store.ListByUser(ctx, userID)
}
