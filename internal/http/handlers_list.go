package http

import (
	"errors"
	"net/http"

	"finsheet/internal/log"
	"finsheet/internal/ui"
)

type tableData struct {
	SessionID string
	ui.ListState
}

func (s *Server) listFor(pp PageParams) *ui.ListController {
	ctrl, _ := s.lists.Get(sessionKey(pp.ConfigID, pp.SessionID), func() *ui.ListController {
		// configId is checked by every caller, so this can not fail.
		c, _ := ui.NewListController(pp.ConfigID, s.backend, ui.Confirmed{}, s.logger)
		return c
	})
	return ctrl
}

// listAction parses a list action. The browser has already asked the user
// to confirm, so controllers get ui.Confirmed.
func (s *Server) listAction(w http.ResponseWriter, r *http.Request) (*ui.ListController, *RequestBodyParser, PageParams, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request").Write(w)
		return nil, nil, PageParams{}, false
	}
	pp, err := p.Page()
	switch {
	case pp.ConfigID == "":
		NewHTMXResponse().Redirect(r, missingConfigLocation).Write(w)
		return nil, nil, pp, false
	case err != nil:
		BadRequestError(err.Error()).Write(w)
		return nil, nil, pp, false
	}
	return s.listFor(pp), p, pp, true
}

func (s *Server) renderTable(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, pp PageParams, ctrl *ui.ListController) {
	s.render(w, r, b, "table", tableData{SessionID: pp.SessionID, ListState: ctrl.State()})
}

// handleTable loads the sheet and renders the table. A failed load renders
// the error in place of the rows.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	pp := pageQuery(r)
	if pp.ConfigID == "" {
		NewHTMXResponse().Redirect(r, missingConfigLocation).Write(w)
		return
	}
	if pp.SessionID == "" {
		BadRequestError(errMissingSession.Error()).Write(w)
		return
	}
	ctrl := s.listFor(pp)
	if err := ctrl.Load(r.Context(), &ui.Recorder{}); err != nil {
		s.logger.WarnContext(r.Context(), "Transaction table shows load error",
			log.FieldConfigID, pp.ConfigID,
			log.FieldError, err)
	}
	s.renderTable(w, r, NewHTMXResponse(), pp, ctrl)
}

// finishAction answers a list mutation. Failures keep the table as it is.
func (s *Server) finishAction(w http.ResponseWriter, r *http.Request, pp PageParams, ctrl *ui.ListController, rec *ui.Recorder, err error, onSuccess func(*HTMXResponseBuilder)) {
	if errors.Is(err, ui.ErrBusy) {
		ConflictError("Another operation is in progress").Write(w)
		return
	}
	b := notify(NewHTMXResponse(), rec)
	if err != nil {
		b.KeepContent().Write(w)
		return
	}
	b.TriggerTransactionsChanged(pp.ConfigID)
	if onSuccess != nil {
		onSuccess(b)
	}
	s.renderTable(w, r, b, pp, ctrl)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.listAction(w, r)
	if !ok {
		return
	}
	idx, err := p.RowIndex()
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec := &ui.Recorder{}
	err = ctrl.Delete(r.Context(), rec, idx)
	s.finishAction(w, r, pp, ctrl, rec, err, nil)
}

// handleDeleteSelected deletes every checked row in one request and clears
// the master checkbox on success.
func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.listAction(w, r)
	if !ok {
		return
	}
	sel, err := ui.ParseSelection(p.GetAll("selected"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec := &ui.Recorder{}
	err = ctrl.DeleteSelected(r.Context(), rec, sel)
	s.finishAction(w, r, pp, ctrl, rec, err, func(b *HTMXResponseBuilder) {
		b.TriggerSelectionCleared()
	})
}

// handleClone copies a row. Controllers recreated after a session expired
// load first so the row can be found.
func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.listAction(w, r)
	if !ok {
		return
	}
	idx, err := p.RowIndex()
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec := &ui.Recorder{}
	if err := ctrl.EnsureLoaded(r.Context(), rec); err != nil {
		NewHTMXResponse().KeepContent().TriggerErrorNotification("Error loading transactions: " + err.Error()).Write(w)
		return
	}
	err = ctrl.Clone(r.Context(), rec, idx)
	s.finishAction(w, r, pp, ctrl, rec, err, nil)
}
