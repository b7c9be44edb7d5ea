// Package console holds the approval page's state and the transitions that change it.
//
// A Controller is the single owner of one browser session's state: the active tab,
// the fetched documents, the selection, and the approve/reject dialog. Views only ever
// see a Snapshot. Network calls run outside the controller's lock so a slow API never
// blocks other transitions on the same session.
package console

import (
	"context"
	"errors"
	"strings"
	"sync"

	"approval-console/internal/model"
)

// API is the subset of the documents API the controller drives.
type API interface {
	ListDocuments(ctx context.Context) (*model.ListResponse, error)
	ApproveDocuments(ctx context.Context, ids []string, reason string) (*model.ApprovalResponse, error)
	RejectDocuments(ctx context.Context, ids []string, reason string) (*model.RejectionResponse, error)
}

var (
	ErrUnknownStatus   = errors.New("unknown document status")
	ErrUnknownAction   = errors.New("unknown action")
	ErrNothingSelected = errors.New("no pending documents selected")
	ErrReasonRequired  = errors.New("reason is required")
	ErrModalClosed     = errors.New("no action dialog is open")
	ErrBusy            = errors.New("an action is already being saved")
)

// State is everything the approval page shows.
type State struct {
	Tab       model.DocumentStatus `json:"tab"`
	Documents []model.DocumentItem `json:"documents"`
	Selected  map[string]bool      `json:"selected"`
	Loaded    bool                 `json:"loaded"`
	Loading   bool                 `json:"loading"`
	ModalOpen bool                 `json:"modal_open"`
	Action    model.Action         `json:"action,omitempty"`
	Reason    string               `json:"reason"`
	Saving    bool                 `json:"saving"`
	// Notice is the last error surfaced to the user, nil once dismissed.
	Notice error `json:"-"`
}

type Controller struct {
	api API

	mu    sync.Mutex
	state State

	mounted  bool
	inflight int
	issued   uint64 // sequence of the newest refresh started
	applied  uint64 // sequence of the newest refresh whose result is shown
}

func NewController(api API) *Controller {
	return &Controller{
		api: api,
		state: State{
			Tab:       model.StatusPending,
			Documents: []model.DocumentItem{},
			Selected:  map[string]bool{},
		},
	}
}

// Mount loads the document list the first time a session's page is shown.
// Later calls do nothing.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh fetches the full document list. Overlapping refreshes all run; a response
// older than the one already applied is dropped, whether it succeeded or failed.
// On failure the previous list stays.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.inflight++
	c.state.Loading = true
	c.mu.Unlock()

	res, err := c.api.ListDocuments(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	c.state.Loading = c.inflight > 0
	// Anything older than the list on screen is discarded, failures included.
	if seq < c.applied {
		return nil
	}
	if err != nil {
		c.state.Notice = err
		return err
	}
	c.applied = seq
	c.state.Documents = append([]model.DocumentItem{}, res.Data...)
	c.state.Loaded = true
	return nil
}

// SetTab switches the status filter. The selection is cleared and any open dialog closed.
// While an action is being saved the tab cannot change and ErrBusy is returned.
func (c *Controller) SetTab(tab model.DocumentStatus) error {
	if _, ok := model.ParseStatus(string(tab)); !ok {
		return ErrUnknownStatus
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Saving {
		return ErrBusy
	}
	c.state.Tab = tab
	c.state.Selected = map[string]bool{}
	c.closeModal()
	return nil
}

// ToggleOne marks a single visible pending document as checked or unchecked.
// Outside the pending tab, or for an id that is not visible, it does nothing.
func (c *Controller) ToggleOne(id string, checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canSelect() {
		return
	}
	for _, d := range c.filtered() {
		if d.ID == id {
			c.state.Selected[id] = checked
			return
		}
	}
}

// ToggleAll replaces the selection with every visible document set to checked.
func (c *Controller) ToggleAll(checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canSelect() {
		return
	}
	next := make(map[string]bool)
	for _, d := range c.filtered() {
		next[d.ID] = checked
	}
	c.state.Selected = next
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Saving {
		return
	}
	c.state.Selected = map[string]bool{}
}

// Open shows the dialog for action with an empty reason.
func (c *Controller) Open(action model.Action) error {
	if _, ok := model.ParseAction(string(action)); !ok {
		return ErrUnknownAction
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Saving {
		return ErrBusy
	}
	if !c.canBulkAction() {
		return ErrNothingSelected
	}
	c.state.Action = action
	c.state.Reason = ""
	c.state.ModalOpen = true
	return nil
}

// SetReason updates the reason draft of the open dialog.
func (c *Controller) SetReason(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.ModalOpen {
		return ErrModalClosed
	}
	if c.state.Saving {
		return ErrBusy
	}
	c.state.Reason = reason
	return nil
}

// Confirm submits the open dialog's action for the selected documents.
// On success the dialog closes, the selection is cleared and the list is refreshed.
// On failure the error becomes the notice and the dialog, draft and selection are kept.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.ModalOpen {
		c.mu.Unlock()
		return ErrModalClosed
	}
	if c.state.Saving {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.canBulkAction() {
		c.mu.Unlock()
		return ErrNothingSelected
	}
	reason := strings.TrimSpace(c.state.Reason)
	if reason == "" {
		c.mu.Unlock()
		return ErrReasonRequired
	}
	ids := SelectedIDs(c.filtered(), c.state.Selected)
	action := c.state.Action
	c.state.Saving = true
	c.mu.Unlock()

	var err error
	if action == model.ActionReject {
		_, err = c.api.RejectDocuments(ctx, ids, reason)
	} else {
		_, err = c.api.ApproveDocuments(ctx, ids, reason)
	}

	c.mu.Lock()
	c.state.Saving = false
	if err != nil {
		c.state.Notice = err
		c.mu.Unlock()
		return err
	}
	c.closeModal()
	c.state.Selected = map[string]bool{}
	c.state.Notice = nil
	c.mu.Unlock()

	// A failed refresh is already surfaced as the notice; the action itself succeeded.
	_ = c.Refresh(ctx)
	return nil
}

// Cancel closes the dialog and drops the draft. The selection is kept.
// A dialog whose action is being saved stays open.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Saving {
		return
	}
	c.closeModal()
}

func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Notice = nil
}

func (c *Controller) closeModal() {
	c.state.ModalOpen = false
	c.state.Reason = ""
}

func (c *Controller) filtered() []model.DocumentItem {
	return model.FilterByStatus(c.state.Documents, c.state.Tab)
}

// canSelect also freezes the selection while an action is in flight, so a failed
// save leaves it as it was submitted.
func (c *Controller) canSelect() bool {
	return c.state.Tab == model.StatusPending && !c.state.Saving
}

func (c *Controller) canBulkAction() bool {
	return c.canSelect() && len(SelectedIDs(c.filtered(), c.state.Selected)) > 0
}
