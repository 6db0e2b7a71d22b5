package http

import (
	"net/http"
	"strings"

	"finsheet/internal/log"
	"finsheet/internal/sheetconfig"
	"finsheet/internal/ui"
)

const (
	missingConfigLocation = "/?missing=1"
	missingConfigMessage  = "Please choose a sheet first."
)

type configView struct {
	ID              string
	SpreadsheetName string
	SheetName       string
	Period          string
}

type homeData struct {
	Configs []configView
	Error   string
	Missing string
}

type setupData struct {
	ServiceAccount string
	Result         setupResultData
}

type setupResultData struct {
	Success        bool
	Message        string
	Error          string
	ConfigID       string
	DisplayPeriod  string
	ServiceAccount string
}

// pageData is shared by the form and list pages.
type pageData struct {
	ConfigID  string
	SessionID string
	SheetName string
	Form      ui.FormState
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := homeData{}
	if r.URL.Query().Get("missing") != "" {
		data.Missing = missingConfigMessage
	}

	configs, err := s.backend.ListConfigs(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list sheet configs",
			log.FieldError, err,
			log.FieldOperation, log.OpList)
		data.Error = "Error loading sheet configurations: " + err.Error()
	}
	for _, c := range configs {
		data.Configs = append(data.Configs, configView{
			ID:              c.ID,
			SpreadsheetName: c.SpreadsheetName,
			SheetName:       c.SheetName,
			Period:          c.DisplayPeriod(),
		})
	}
	s.render(w, r, NewHTMXResponse(), "home.html", data)
}

func (s *Server) handleSetupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, NewHTMXResponse(), "setup.html", setupData{ServiceAccount: s.serviceAccount})
}

// handleSetupSubmit forwards the setup form to the API and renders the
// outcome in place. Rejections are rendered too, so the swap always happens.
func (s *Server) handleSetupSubmit(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request").Write(w)
		return
	}
	req := sheetconfig.Request{
		SpreadsheetURL:  p.Get("spreadSheetUrl"),
		SpreadsheetName: p.Get("spreadsheetName"),
		SheetName:       p.Get("sheetName"),
		Range:           p.Get("range"),
	}

	res, err := s.backend.SetupSheet(r.Context(), req)
	b := NewHTMXResponse()
	if err != nil {
		s.logger.WarnContext(r.Context(), "Sheet setup failed",
			log.FieldError, err,
			log.FieldOperation, log.OpCreate)
		b.TriggerErrorNotification(err.Error())
		s.render(w, r, b, "setup_result", setupResultData{Error: err.Error(), ServiceAccount: s.serviceAccount})
		return
	}

	s.logger.InfoContext(r.Context(), "Sheet configured",
		log.FieldConfigID, res.ConfigID,
		log.FieldOperation, log.OpCreate)
	account := res.ServiceAccount
	if account == "" {
		account = s.serviceAccount
	}
	b.TriggerSuccessNotification(res.Message)
	s.render(w, r, b, "setup_result", setupResultData{
		Success:        true,
		Message:        res.Message,
		ConfigID:       res.ConfigID,
		DisplayPeriod:  res.DisplayPeriod,
		ServiceAccount: account,
	})
}

// requireConfigID redirects home when the page was opened without a sheet.
func (s *Server) requireConfigID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("configId"))
	if id == "" {
		s.logger.WarnContext(r.Context(), "Page opened without configId", log.FieldPath, r.URL.Path)
		NewHTMXResponse().Redirect(r, missingConfigLocation).Write(w)
		return "", false
	}
	return id, true
}

// sheetName looks up a display name for the page title. The page works
// without it.
func (s *Server) sheetName(r *http.Request, configID string) string {
	cfg, err := s.backend.GetConfig(r.Context(), configID)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Sheet config lookup failed",
			log.FieldConfigID, configID,
			log.FieldError, err)
		return ""
	}
	return cfg.SheetName
}

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	configID, ok := s.requireConfigID(w, r)
	if !ok {
		return
	}
	sid := ui.NewSessionID()
	ctrl, _ := s.forms.Get(sessionKey(configID, sid), s.newForm(configID))

	s.render(w, r, NewHTMXResponse(), "add.html", pageData{
		ConfigID:  configID,
		SessionID: sid,
		SheetName: s.sheetName(r, configID),
		Form:      ctrl.State(),
	})
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	configID, ok := s.requireConfigID(w, r)
	if !ok {
		return
	}
	sid := ui.NewSessionID()
	s.render(w, r, NewHTMXResponse(), "transactions.html", pageData{
		ConfigID:  configID,
		SessionID: sid,
		SheetName: s.sheetName(r, configID),
	})
}
