package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"finsheet/internal/core"
	"finsheet/internal/idempotency"
	"finsheet/internal/log"
	"finsheet/internal/sheetconfig"
)

const maxBodyBytes = 64 << 10

// resolveConfig loads the sheet config named by ?configId=. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) resolveConfig(w http.ResponseWriter, r *http.Request) (sheetconfig.SheetConfig, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("configId"))
	if id == "" {
		writeText(w, http.StatusBadRequest, "Missing configId")
		return sheetconfig.SheetConfig{}, false
	}
	cfg, err := s.configs.Get(r.Context(), id)
	switch {
	case errors.Is(err, sheetconfig.ErrNotFound):
		writeText(w, http.StatusNotFound, "Sheet configuration not found: "+id)
		return sheetconfig.SheetConfig{}, false
	case err != nil:
		s.structuredLogger.LogError(r.Context(), "Failed to load sheet config", err, log.OpRead,
			log.NewFields().WithConfig(id))
		writeText(w, http.StatusInternalServerError, "Failed to load sheet configuration: "+err.Error())
		return sheetconfig.SheetConfig{}, false
	}
	return cfg, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// handleAppend writes one transaction. Requests repeating an
// Idempotency-Key within the TTL get the first response back without a
// second write.
func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.resolveConfig(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var rec core.Record
	if err := decodeJSON(w, r, &rec); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := rec.Validate(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid transaction: "+err.Error())
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotency.Header))
	scoped := ""
	if key != "" {
		scoped = cfg.ID + ":" + key
	}

	var ref string
	msg, duplicate, err := s.idem.Do(ctx, scoped, func(ctx context.Context) (string, error) {
		var err error
		ref, err = s.rows.Append(ctx, cfg.Target(), rec)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Row added successfully: %s on %s %s", rec.Transaction, rec.Date, rec.Time), nil
	})
	if err != nil {
		s.structuredLogger.LogError(ctx, "Failed to append transaction", err, log.OpAppend,
			log.NewFields().
				WithConfig(cfg.ID).
				WithTransaction(rec.Transaction, rec.Group, rec.Subgroup, rec.Category, rec.Amount))
		writeText(w, http.StatusInternalServerError, "Error saving to Google Sheets: "+err.Error())
		return
	}

	if duplicate {
		s.metrics.duplicates.Add(1)
		s.logger.InfoContext(ctx, "Duplicate request detected",
			log.FieldConfigID, cfg.ID,
			log.FieldIdempotency, key)
		writeText(w, http.StatusOK, "Duplicate request detected. Returning cached response: "+msg)
		return
	}

	s.metrics.appended.Add(1)
	s.structuredLogger.LogTransactionAppended(ctx, cfg.ID,
		rec.Transaction, rec.Group, rec.Subgroup, rec.Category, rec.Amount, ref)

	e := core.NewActivityEvent(core.EventAppended, cfg.ID)
	e.Record = &rec
	e.SheetsRef = ref
	s.publish(ctx, e)

	writeText(w, http.StatusOK, msg)
}

// handleReadSheet returns every row of the configured range, header first,
// as an array of arrays.
func (s *Server) handleReadSheet(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.resolveConfig(w, r)
	if !ok {
		return
	}
	values, err := s.rows.ReadAll(r.Context(), cfg.Target())
	if err != nil {
		s.structuredLogger.LogError(r.Context(), "Failed to read sheet", err, log.OpRead,
			log.NewFields().WithConfig(cfg.ID))
		writeText(w, http.StatusInternalServerError, "Error reading from Google Sheets: "+err.Error())
		return
	}
	if values == nil {
		values = [][]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(values)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.resolveConfig(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("rowIndex"))
	if err != nil || core.ValidateRowIndex(index) != nil {
		writeText(w, http.StatusBadRequest, "Invalid row index: "+r.PathValue("rowIndex"))
		return
	}

	if err := s.rows.DeleteRow(r.Context(), cfg.Target(), index); err != nil {
		s.writeRowError(w, r, cfg.ID, log.OpDelete, "Error deleting row: ", err)
		return
	}
	s.afterDelete(r, cfg.ID, []int{index})
	writeText(w, http.StatusOK, fmt.Sprintf("Row %d deleted successfully", index))
}

// handleDeleteRows removes a batch of rows. Indices are applied highest
// first whatever order the client sent, so earlier deletions never shift
// later ones.
func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.resolveConfig(w, r)
	if !ok {
		return
	}
	var indices []int
	if err := decodeJSON(w, r, &indices); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(indices) == 0 {
		writeText(w, http.StatusBadRequest, "No row indices provided")
		return
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if core.ValidateRowIndex(idx) != nil {
			writeText(w, http.StatusBadRequest, fmt.Sprintf("Invalid row index: %d", idx))
			return
		}
		if seen[idx] {
			writeText(w, http.StatusBadRequest, fmt.Sprintf("Duplicate row index: %d", idx))
			return
		}
		seen[idx] = true
	}
	indices = core.SortDescending(indices)

	if err := s.rows.DeleteRows(r.Context(), cfg.Target(), indices); err != nil {
		s.writeRowError(w, r, cfg.ID, log.OpDelete, "Error deleting rows: ", err)
		return
	}
	s.afterDelete(r, cfg.ID, indices)
	writeText(w, http.StatusOK, fmt.Sprintf("%d rows deleted successfully", len(indices)))
}

func (s *Server) afterDelete(r *http.Request, configID string, indices []int) {
	s.metrics.deleted.Add(int64(len(indices)))
	s.structuredLogger.LogRowsDeleted(r.Context(), configID, indices)

	e := core.NewActivityEvent(core.EventDeleted, configID)
	e.RowIndices = indices
	s.publish(r.Context(), e)
}

type cloneRequest struct {
	RowIndex int `json:"rowIndex"`
}

func (s *Server) handleCloneRow(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.resolveConfig(w, r)
	if !ok {
		return
	}
	var req cloneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if core.ValidateRowIndex(req.RowIndex) != nil {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("Invalid row index: %d", req.RowIndex))
		return
	}

	ref, err := s.rows.CloneRow(r.Context(), cfg.Target(), req.RowIndex)
	if err != nil {
		s.writeRowError(w, r, cfg.ID, log.OpClone, "Error cloning row: ", err)
		return
	}
	s.metrics.cloned.Add(1)
	s.logger.InfoContext(r.Context(), "Row cloned",
		log.FieldConfigID, cfg.ID,
		log.FieldRowIndex, req.RowIndex,
		log.FieldSheetsRef, ref,
		log.FieldOperation, log.OpClone)

	e := core.NewActivityEvent(core.EventCloned, cfg.ID)
	e.RowIndices = []int{req.RowIndex}
	e.SheetsRef = ref
	s.publish(r.Context(), e)

	writeText(w, http.StatusOK, fmt.Sprintf("Row %d cloned successfully", req.RowIndex))
}

// writeRowError maps row store failures to a status: missing rows are 404,
// everything else 500.
func (s *Server) writeRowError(w http.ResponseWriter, r *http.Request, configID, op, prefix string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrRowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidRowIndex):
		status = http.StatusBadRequest
	}
	s.structuredLogger.LogError(r.Context(), "Row operation failed", err, op,
		log.NewFields().WithConfig(configID))
	writeText(w, status, prefix+err.Error())
}
