package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"finsheet/internal/core"
	"finsheet/internal/format"
	"finsheet/internal/idempotency"
	"finsheet/internal/log"
	"finsheet/internal/taxonomy"
)

// DefaultSuccessMessage is shown when the API confirms a submit with an empty body.
const DefaultSuccessMessage = "Transaction saved!"

// Submitter posts a transaction to the API.
type Submitter interface {
	Append(ctx context.Context, configID, key string, rec core.Record) (string, error)
}

// FormState is everything the transaction form shows.
type FormState struct {
	Date        string
	Time        string
	Transaction string
	Group       string
	Subgroup    string
	Category    string
	Amount      string // as displayed, digit grouped
	Note        string

	Groups          []string
	SubgroupOptions []string
	Suggestions     []string
}

// FormOptions configures a FormController.
type FormOptions struct {
	ConfigID string
	Index    *taxonomy.Index
	API      Submitter
	Scheme   idempotency.Scheme
	Logger   *log.Logger
	Now      func() time.Time
}

// FormController drives one instance of the transaction form.
type FormController struct {
	configID string
	index    *taxonomy.Index
	api      Submitter
	scheme   idempotency.Scheme
	logger   *log.Logger
	now      func() time.Time
	guard    Guard

	mu    sync.Mutex
	state FormState
}

func NewFormController(opts FormOptions) *FormController {
	if opts.Index == nil {
		opts.Index = taxonomy.Build(taxonomy.Default())
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scheme == "" {
		opts.Scheme = idempotency.SchemeSHA256
	}
	c := &FormController{
		configID: opts.ConfigID,
		index:    opts.Index,
		api:      opts.API,
		scheme:   opts.Scheme,
		logger:   opts.Logger.WithComponent(log.ComponentForm),
		now:      opts.Now,
	}
	c.state = c.blank()
	return c
}

func (c *FormController) ConfigID() string { return c.configID }

// Guard exposes the submission guard state.
func (c *FormController) Guard() State { return c.guard.State() }

// Defaults returns the current local date (YYYY-MM-DD) and time (HH:MM).
func (c *FormController) Defaults() (date, clock string) {
	return format.Defaults(c.now())
}

func (c *FormController) blank() FormState {
	date, clock := c.Defaults()
	return FormState{
		Date:        date,
		Time:        clock,
		Groups:      c.index.Groups(),
		Suggestions: c.index.CategoryList("", ""),
	}
}

// State returns a copy of the form state.
func (c *FormController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Groups = append([]string(nil), s.Groups...)
	s.SubgroupOptions = append([]string(nil), s.SubgroupOptions...)
	s.Suggestions = append([]string(nil), s.Suggestions...)
	return s
}

// Fill copies the free-text fields a browser posts with every request.
// Group, subgroup and category go through their own handlers.
func (c *FormController) Fill(date, clock, transaction, amount, note string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Date = date
	c.state.Time = clock
	c.state.Transaction = transaction
	c.state.Amount = format.Amount(amount)
	c.state.Note = note
}

// GroupChanged repopulates subgroup options for group, resets the subgroup
// selection and clears the category.
func (c *FormController) GroupChanged(group string) FormState {
	c.mu.Lock()
	c.state.Group = group
	c.state.Subgroup = ""
	c.state.SubgroupOptions = c.index.Subgroups(group)
	c.state.Category = ""
	c.state.Suggestions = c.index.CategoryList(group, "")
	c.mu.Unlock()
	return c.State()
}

// Sync takes group, subgroup and category as posted by the browser, which
// holds the authoritative field values on submit.
func (c *FormController) Sync(group, subgroup, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Group = group
	c.state.SubgroupOptions = c.index.Subgroups(group)
	c.state.Subgroup = subgroup
	c.state.Category = strings.TrimSpace(category)
	c.state.Suggestions = c.index.CategoryList(group, subgroup)
}

// SubgroupChanged clears the category and narrows suggestions.
func (c *FormController) SubgroupChanged(subgroup string) FormState {
	c.mu.Lock()
	c.state.Subgroup = subgroup
	c.state.Category = ""
	c.state.Suggestions = c.index.CategoryList(c.state.Group, subgroup)
	c.mu.Unlock()
	return c.State()
}

// Suggest records the typed category text and returns matching categories
// within the current group and subgroup.
func (c *FormController) Suggest(query string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Category = query
	c.state.Suggestions = c.index.Suggest(query, c.state.Group, c.state.Subgroup, taxonomy.DefaultSuggestionLimit)
	return append([]string(nil), c.state.Suggestions...)
}

// SelectCategory handles a completed autocomplete selection. A known
// category sets group and subgroup. An unknown one changes nothing else.
func (c *FormController) SelectCategory(ctx context.Context, category string) (FormState, bool) {
	category = strings.TrimSpace(category)
	c.mu.Lock()
	c.state.Category = category
	loc, ok := c.index.Resolve(category)
	if ok {
		c.state.Group = loc.Group
		c.state.SubgroupOptions = c.index.Subgroups(loc.Group)
		c.state.Subgroup = loc.Subgroup
		c.state.Suggestions = c.index.CategoryList(loc.Group, loc.Subgroup)
	}
	c.mu.Unlock()

	if ok {
		c.logger.InfoContext(ctx, "Category resolved",
			log.FieldCategory, category, log.FieldGroup, loc.Group, log.FieldSubgroup, loc.Subgroup)
	}
	return c.State(), ok
}

// FormatAmount regroups the amount field as the user types.
func (c *FormController) FormatAmount(raw string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Amount = format.Amount(raw)
	return c.state.Amount
}

// Collect builds the record to submit. The amount is sent as plain digits.
func (c *FormController) Collect() core.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.Record{
		Date:        c.state.Date,
		Time:        c.state.Time,
		Transaction: c.state.Transaction,
		Group:       c.state.Group,
		Subgroup:    c.state.Subgroup,
		Category:    c.state.Category,
		Amount:      format.DigitsOnly(c.state.Amount),
		Note:        c.state.Note,
	}
}

// Submit sends the form once. While a submit is outstanding further calls
// return ErrSubmitInFlight without side effects. On success the form is
// reset. On failure it keeps its values.
func (c *FormController) Submit(ctx context.Context, view FormView) (string, error) {
	if !c.guard.TryAcquire() {
		return "", ErrSubmitInFlight
	}
	view.ShowLoading("Saving transaction...")
	view.SetControlsDisabled(true)
	defer func() {
		c.guard.Release()
		view.HideLoading()
		view.SetControlsDisabled(false)
	}()

	rec := c.Collect()
	key, err := idempotency.KeyWith(c.scheme, rec)
	if err != nil {
		view.NotifyFailure("Failed to save transaction: " + err.Error())
		return "", fmt.Errorf("idempotency key: %w", err)
	}

	msg, err := c.api.Append(ctx, c.configID, key, rec)
	if err != nil {
		c.logger.ErrorContext(ctx, "Submit failed",
			log.FieldConfigID, c.configID, log.FieldIdempotency, key, log.FieldError, err)
		view.NotifyFailure("Failed to save transaction: " + err.Error())
		return "", err
	}
	if strings.TrimSpace(msg) == "" {
		msg = DefaultSuccessMessage
	}
	c.logger.InfoContext(ctx, "Transaction submitted",
		log.FieldConfigID, c.configID, log.FieldIdempotency, key, log.FieldCategory, rec.Category)
	view.NotifySuccess(msg)
	c.Reset()
	return msg, nil
}

// Reset clears every field and restores the date and time defaults. It does
// not touch the guard.
func (c *FormController) Reset() FormState {
	c.mu.Lock()
	c.state = c.blank()
	c.mu.Unlock()
	return c.State()
}
