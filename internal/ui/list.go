package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"finsheet/internal/core"
	"finsheet/internal/format"
	"finsheet/internal/log"
)

const (
	DeletePrompt         = "Are you sure you want to delete this transaction?"
	EmptyListMessage     = "No transactions found"
	LoadingListMessage   = "Loading transactions..."
	NoSelectionMessage   = "Please select at least one transaction to delete."
	RowNotFoundMessage   = "Transaction not found!"
	DeletedMessage       = "Transaction deleted successfully!"
	ClonedMessage        = "Transaction cloned successfully!"
	loadErrorPrefix      = "Error loading transactions: "
	deleteFailurePrefix  = "Failed to delete transaction: "
	deleteSelectedPrefix = "Failed to delete transactions: "
	cloneFailurePrefix   = "Failed to clone transaction: "
)

var (
	ErrMissingConfigID = errors.New("missing configId")
	ErrNotConfirmed    = errors.New("not confirmed")
	ErrNoSelection     = errors.New("no transactions selected")
)

// DeleteSelectedPrompt asks to confirm a bulk delete of n rows.
func DeleteSelectedPrompt(n int) string {
	return fmt.Sprintf("Are you sure you want to delete %d selected transaction(s)?", n)
}

// RowsAPI is the part of the API the list uses.
type RowsAPI interface {
	ReadSheet(ctx context.Context, configID string) ([][]any, error)
	DeleteRow(ctx context.Context, configID string, rowIndex int) (string, error)
	DeleteRows(ctx context.Context, configID string, rowIndices []int) (string, error)
	CloneRow(ctx context.Context, configID string, rowIndex int) (string, error)
}

// RowView is one rendered table row. Fields are display text; escaping is
// left to the template.
type RowView struct {
	Index       int
	Order       int
	Date        string
	Time        string
	Transaction string
	Group       string
	Subgroup    string
	Category    string
	Amount      string
	Note        string
}

// ListState is what the table shows: an error, the empty placeholder, or rows.
type ListState struct {
	ConfigID string
	Error    string
	Empty    bool
	Rows     []RowView
}

// ListController drives one transaction list. Mutations are serialized by a
// guard so a double click can not fire the same delete or clone twice.
type ListController struct {
	configID string
	api      RowsAPI
	confirm  Confirmer
	logger   *log.Logger
	guard    Guard

	mu      sync.RWMutex
	rows    []core.Row
	loadErr error
	loaded  bool
}

// NewListController fails with ErrMissingConfigID when configID is empty.
// Callers send the user home in that case.
func NewListController(configID string, api RowsAPI, confirm Confirmer, logger *log.Logger) (*ListController, error) {
	if configID == "" {
		return nil, ErrMissingConfigID
	}
	if confirm == nil {
		confirm = Confirmed{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ListController{
		configID: configID,
		api:      api,
		confirm:  confirm,
		logger:   logger.WithComponent(log.ComponentList),
	}, nil
}

func (c *ListController) ConfigID() string { return c.configID }

// Guard exposes the mutation guard state.
func (c *ListController) Guard() State { return c.guard.State() }

// Load fetches every row and rebuilds the list. On failure the previous rows
// are kept but the table shows the error.
func (c *ListController) Load(ctx context.Context, view View) error {
	view.ShowLoading(LoadingListMessage)
	defer view.HideLoading()

	values, err := c.api.ReadSheet(ctx, c.configID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	if err != nil {
		c.loadErr = err
		c.logger.ErrorContext(ctx, "Error loading transactions", log.FieldConfigID, c.configID, log.FieldError, err)
		return err
	}
	c.loadErr = nil
	c.rows = core.RowsFromValues(values)
	c.logger.DebugContext(ctx, "Transactions loaded", log.FieldConfigID, c.configID, log.FieldRowCount, len(c.rows))
	return nil
}

// EnsureLoaded loads once for a controller that has never loaded.
func (c *ListController) EnsureLoaded(ctx context.Context, view View) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Load(ctx, view)
}

// Rows returns the rows of the last successful load.
func (c *ListController) Rows() []core.Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]core.Row(nil), c.rows...)
}

// shownRows returns the rows the table currently shows. A failed load shows
// none.
func (c *ListController) shownRows() []core.Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadErr != nil {
		return nil
	}
	return c.rows
}

// State renders the current list.
func (c *ListController) State() ListState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := ListState{ConfigID: c.configID}
	if c.loadErr != nil {
		st.Error = loadErrorPrefix + c.loadErr.Error()
		return st
	}
	if len(c.rows) == 0 {
		st.Empty = true
		return st
	}
	st.Rows = make([]RowView, 0, len(c.rows))
	for i, r := range c.rows {
		st.Rows = append(st.Rows, RowView{
			Index:       r.Index,
			Order:       i + 1,
			Date:        format.Date(r.Date),
			Time:        format.Time(r.Time),
			Transaction: r.Transaction,
			Group:       r.Group,
			Subgroup:    r.Subgroup,
			Category:    r.Category,
			Amount:      format.Amount(r.Amount),
			Note:        r.Note,
		})
	}
	return st
}

// Delete removes one row after confirmation and reloads.
func (c *ListController) Delete(ctx context.Context, view View, rowIndex int) error {
	if !c.guard.TryAcquire() {
		return ErrBusy
	}
	defer c.guard.Release()

	if !c.confirm.Confirm(DeletePrompt) {
		return ErrNotConfirmed
	}

	view.ShowLoading("Deleting transaction...")
	defer view.HideLoading()
	if _, err := c.api.DeleteRow(ctx, c.configID, rowIndex); err != nil {
		c.logger.ErrorContext(ctx, "Delete failed", log.FieldConfigID, c.configID, log.FieldRowIndex, rowIndex, log.FieldError, err)
		view.NotifyFailure(deleteFailurePrefix + err.Error())
		return err
	}
	c.logger.InfoContext(ctx, "Transaction deleted", log.FieldConfigID, c.configID, log.FieldRowIndex, rowIndex)
	view.NotifySuccess(DeletedMessage)
	_ = c.Load(ctx, view)
	return nil
}

// DeleteSelected removes the selected rows in one request, highest index
// first, and reloads. The caller clears the master checkbox on success.
func (c *ListController) DeleteSelected(ctx context.Context, view View, sel Selection) error {
	indices := sel.Indices()
	if len(indices) == 0 {
		view.NotifyFailure(NoSelectionMessage)
		return ErrNoSelection
	}
	if !c.guard.TryAcquire() {
		return ErrBusy
	}
	defer c.guard.Release()

	if !c.confirm.Confirm(DeleteSelectedPrompt(len(indices))) {
		return ErrNotConfirmed
	}

	view.ShowLoading("Deleting transactions...")
	defer view.HideLoading()
	if _, err := c.api.DeleteRows(ctx, c.configID, indices); err != nil {
		c.logger.ErrorContext(ctx, "Bulk delete failed", log.FieldConfigID, c.configID, log.FieldRowCount, len(indices), log.FieldError, err)
		view.NotifyFailure(deleteSelectedPrefix + err.Error())
		return err
	}
	c.logger.InfoContext(ctx, "Transactions deleted", log.FieldConfigID, c.configID, log.FieldRowCount, len(indices))
	view.NotifySuccess(fmt.Sprintf("%d transaction(s) deleted successfully!", len(indices)))
	_ = c.Load(ctx, view)
	return nil
}

// Clone copies a row the table shows. An unknown index, or any index while
// the table shows a load error, fails locally without calling the API.
func (c *ListController) Clone(ctx context.Context, view View, rowIndex int) error {
	if _, err := core.FindRow(c.shownRows(), rowIndex); err != nil {
		view.NotifyFailure(RowNotFoundMessage)
		return err
	}
	if !c.guard.TryAcquire() {
		return ErrBusy
	}
	defer c.guard.Release()

	view.ShowLoading("Cloning transaction...")
	defer view.HideLoading()
	if _, err := c.api.CloneRow(ctx, c.configID, rowIndex); err != nil {
		c.logger.ErrorContext(ctx, "Clone failed", log.FieldConfigID, c.configID, log.FieldRowIndex, rowIndex, log.FieldError, err)
		view.NotifyFailure(cloneFailurePrefix + err.Error())
		return err
	}
	c.logger.InfoContext(ctx, "Transaction cloned", log.FieldConfigID, c.configID, log.FieldRowIndex, rowIndex)
	view.NotifySuccess(ClonedMessage)
	_ = c.Load(ctx, view)
	return nil
}

// Selection is the set of checked rows.
type Selection map[int]bool

// ParseSelection reads checkbox values. Non-numeric values are rejected.
func ParseSelection(values []string) (Selection, error) {
	sel := Selection{}
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid row index %q", v)
		}
		sel[n] = true
	}
	return sel, nil
}

// SetAll checks or clears every row, as the master checkbox does.
func (s Selection) SetAll(rows []RowView, checked bool) {
	for _, r := range rows {
		if checked {
			s[r.Index] = true
		} else {
			delete(s, r.Index)
		}
	}
}

// Any reports whether bulk delete should be enabled.
func (s Selection) Any() bool {
	for _, v := range s {
		if v {
			return true
		}
	}
	return false
}

// Indices returns the checked rows, highest first.
func (s Selection) Indices() []int {
	out := make([]int, 0, len(s))
	for idx, v := range s {
		if v {
			out = append(out, idx)
		}
	}
	return core.SortDescending(out)
}
