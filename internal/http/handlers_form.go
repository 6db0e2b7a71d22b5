package http

import (
	"errors"
	"net/http"

	"finsheet/internal/log"
	"finsheet/internal/ui"
)

type formData struct {
	ConfigID  string
	SessionID string
	Form      ui.FormState
}

func (s *Server) newForm(configID string) func() *ui.FormController {
	return func() *ui.FormController {
		return ui.NewFormController(ui.FormOptions{
			ConfigID: configID,
			Index:    s.index,
			API:      s.backend,
			Scheme:   s.scheme,
			Logger:   s.logger,
			Now:      s.now,
		})
	}
}

// formFor parses a form partial request and returns the page's controller.
// It writes the error response itself when the request can not be served.
func (s *Server) formFor(w http.ResponseWriter, r *http.Request) (*ui.FormController, *RequestBodyParser, PageParams, bool) {
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
	ctrl, created := s.forms.Get(sessionKey(pp.ConfigID, pp.SessionID), s.newForm(pp.ConfigID))
	if created {
		s.logger.DebugContext(r.Context(), "Form session started",
			log.FieldConfigID, pp.ConfigID)
	}
	return ctrl, p, pp, true
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, pp PageParams, st ui.FormState) {
	s.render(w, r, b, name, formData{ConfigID: pp.ConfigID, SessionID: pp.SessionID, Form: st})
}

// handleGroupChanged repopulates the subgroup selector and clears the category.
func (s *Server) handleGroupChanged(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.formFor(w, r)
	if !ok {
		return
	}
	st := ctrl.GroupChanged(p.Get("group"))
	s.renderForm(w, r, NewHTMXResponse(), "classification", pp, st)
}

func (s *Server) handleSubgroupChanged(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.formFor(w, r)
	if !ok {
		return
	}
	subgroup := p.Get("subgroup")
	ctrl.Sync(p.Get("group"), subgroup, "")
	st := ctrl.SubgroupChanged(subgroup)
	s.renderForm(w, r, NewHTMXResponse(), "classification", pp, st)
}

// handleSuggest recomputes the category datalist for the typed text.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.formFor(w, r)
	if !ok {
		return
	}
	category := p.Get("category")
	ctrl.Sync(p.Get("group"), p.Get("subgroup"), category)
	ctrl.Suggest(category)
	s.renderForm(w, r, NewHTMXResponse(), "suggestions", pp, ctrl.State())
}

// handleResolve runs when a category is chosen. A known category fills in
// group and subgroup. An unknown one leaves the page untouched.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.formFor(w, r)
	if !ok {
		return
	}
	category := p.Get("category")
	ctrl.Sync(p.Get("group"), p.Get("subgroup"), category)
	st, resolved := ctrl.SelectCategory(r.Context(), category)
	if !resolved {
		NewHTMXResponse().KeepContent().Write(w)
		return
	}
	s.renderForm(w, r, NewHTMXResponse(), "classification", pp, st)
}

func (s *Server) handleAmount(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.formFor(w, r)
	if !ok {
		return
	}
	ctrl.FormatAmount(p.Get("amount"))
	s.renderForm(w, r, NewHTMXResponse(), "amount", pp, ctrl.State())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctrl, _, pp, ok := s.formFor(w, r)
	if !ok {
		return
	}
	st := ctrl.Reset()
	s.renderForm(w, r, NewHTMXResponse().TriggerFormReset(), "form", pp, st)
}

// handleSubmit sends the form to the API once. On failure nothing is
// swapped so the user keeps what they typed.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, p, pp, ok := s.formFor(w, r)
	if !ok {
		return
	}
	in := p.Form()
	ctrl.Fill(in.Date, in.Time, in.Transaction, in.Amount, in.Note)
	ctrl.Sync(in.Group, in.Subgroup, in.Category)

	rec := &ui.Recorder{}
	_, err := ctrl.Submit(r.Context(), rec)
	switch {
	case errors.Is(err, ui.ErrSubmitInFlight):
		ConflictError("A submission is already in progress").Write(w)
		return
	case err != nil:
		s.appMetrics.submitFails.Add(1)
		notify(NewHTMXResponse().KeepContent(), rec).Write(w)
		return
	}

	s.appMetrics.submitted.Add(1)
	b := notify(NewHTMXResponse(), rec).
		TriggerTransactionCreated(pp.ConfigID).
		TriggerFormReset()
	s.renderForm(w, r, b, "form", pp, ctrl.State())
}
