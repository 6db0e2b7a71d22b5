package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"finsheet/internal/log"
	"finsheet/internal/sheetconfig"
)

type setupResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	ConfigID       string `json:"configId,omitempty"`
	DisplayPeriod  string `json:"displayPeriod,omitempty"`
	ServiceAccount string `json:"serviceAccount,omitempty"`
	Error          string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleSetupSheet registers a spreadsheet for the configured user. Bad
// input is a 400, anything else a 500 asking the user to check access.
func (s *Server) handleSetupSheet(w http.ResponseWriter, r *http.Request) {
	var req sheetconfig.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, setupResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	cfg, err := s.configs.ValidateAndSave(r.Context(), req, s.userID)
	switch {
	case sheetconfig.IsValidation(err):
		s.logger.WarnContext(r.Context(), "Sheet setup rejected",
			log.FieldError, err,
			log.FieldOperation, log.OpValidate)
		writeJSON(w, http.StatusBadRequest, setupResponse{Error: err.Error()})
		return
	case err != nil:
		s.structuredLogger.LogError(r.Context(), "Sheet setup failed", err, log.OpCreate, nil)
		writeJSON(w, http.StatusInternalServerError, setupResponse{Error: "Failed to connect: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, setupResponse{
		Success:        true,
		Message:        "Sheet configured successfully",
		ConfigID:       cfg.ID,
		DisplayPeriod:  cfg.DisplayPeriod(),
		ServiceAccount: s.serviceAccount,
	})
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.configs.List(r.Context(), s.userID)
	if err != nil {
		s.structuredLogger.LogError(r.Context(), "Failed to list sheet configs", err, log.OpList, nil)
		writeText(w, http.StatusInternalServerError, "Failed to list sheet configurations: "+err.Error())
		return
	}
	if configs == nil {
		configs = []sheetconfig.SheetConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cfg, err := s.configs.Get(r.Context(), id)
	switch {
	case errors.Is(err, sheetconfig.ErrNotFound):
		writeText(w, http.StatusNotFound, "Sheet configuration not found: "+id)
		return
	case err != nil:
		s.structuredLogger.LogError(r.Context(), "Failed to load sheet config", err, log.OpRead,
			log.NewFields().WithConfig(id))
		writeText(w, http.StatusInternalServerError, "Failed to load sheet configuration: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
