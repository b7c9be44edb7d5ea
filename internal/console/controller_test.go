package console

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approval-console/internal/model"
)

type decision struct {
	action model.Action
	ids    []string
	reason string
}

type fakeAPI struct {
	mu        sync.Mutex
	docs      []model.DocumentItem
	listErr   error
	decideErr error
	lists     int
	decisions []decision
	// listHook, when set, runs inside ListDocuments before it returns.
	listHook func(call int)
	// decideHook, when set, runs inside approve/reject before they return.
	decideHook func()
}

func (f *fakeAPI) ListDocuments(ctx context.Context) (*model.ListResponse, error) {
	f.mu.Lock()
	f.lists++
	call := f.lists
	docs := append([]model.DocumentItem{}, f.docs...)
	err := f.listErr
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	return &model.ListResponse{StatusCode: 200, Data: docs}, nil
}

func (f *fakeAPI) record(action model.Action, ids []string, reason string) error {
	f.mu.Lock()
	f.decisions = append(f.decisions, decision{action: action, ids: ids, reason: reason})
	hook := f.decideHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decideErr
}

func (f *fakeAPI) ApproveDocuments(ctx context.Context, ids []string, reason string) (*model.ApprovalResponse, error) {
	if err := f.record(model.ActionApprove, ids, reason); err != nil {
		return nil, err
	}
	return &model.ApprovalResponse{StatusCode: 200, Message: "approved", Requested: len(ids), Approved: int64(len(ids))}, nil
}

func (f *fakeAPI) RejectDocuments(ctx context.Context, ids []string, reason string) (*model.RejectionResponse, error) {
	if err := f.record(model.ActionReject, ids, reason); err != nil {
		return nil, err
	}
	return &model.RejectionResponse{StatusCode: 200, Message: "rejected", Requested: len(ids), Rejected: int64(len(ids))}, nil
}

func doc(id string, status model.DocumentStatus) model.DocumentItem {
	return model.DocumentItem{ID: id, DocNo: "IT03-" + id, Title: "Request " + id, Status: status}
}

func mountedController(t *testing.T, docs ...model.DocumentItem) (*Controller, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{docs: docs}
	c := NewController(api)
	require.NoError(t, c.Mount(context.Background()))
	return c, api
}

func TestMountLoadsOnce(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusPending))
	require.NoError(t, c.Mount(context.Background()))

	v := c.Snapshot()
	assert.Equal(t, 1, api.lists)
	assert.True(t, v.Loaded)
	assert.False(t, v.Loading)
	assert.Equal(t, model.StatusPending, v.Tab)
	assert.Len(t, v.Documents, 1)
}

func TestApproveScenario(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusPending), doc("2", model.StatusApproved))

	v := c.Snapshot()
	require.Len(t, v.Filtered, 1)
	assert.Equal(t, "1", v.Filtered[0].ID)

	c.ToggleAll(true)
	assert.Equal(t, map[string]bool{"1": true}, c.Snapshot().Selected)

	require.NoError(t, c.Open(model.ActionApprove))
	require.NoError(t, c.SetReason("ok"))
	require.NoError(t, c.Confirm(context.Background()))

	require.Len(t, api.decisions, 1)
	assert.Equal(t, decision{action: model.ActionApprove, ids: []string{"1"}, reason: "ok"}, api.decisions[0])

	v = c.Snapshot()
	assert.Empty(t, v.Selected)
	assert.False(t, v.ModalOpen)
	assert.False(t, v.Saving)
	assert.Equal(t, 2, api.lists, "list is fetched again after the action")
}

func TestRejectSendsTrimmedReason(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusPending), doc("2", model.StatusPending))

	c.ToggleOne("2", true)
	require.NoError(t, c.Open(model.ActionReject))
	require.NoError(t, c.SetReason("  not compliant \n"))
	require.NoError(t, c.Confirm(context.Background()))

	require.Len(t, api.decisions, 1)
	assert.Equal(t, model.ActionReject, api.decisions[0].action)
	assert.Equal(t, []string{"2"}, api.decisions[0].ids)
	assert.Equal(t, "not compliant", api.decisions[0].reason)
}

func TestTabSwitchClearsSelectionAndClosesModal(t *testing.T) {
	c, _ := mountedController(t, doc("1", model.StatusPending), doc("2", model.StatusRejected))

	for _, tab := range []model.DocumentStatus{model.StatusApproved, model.StatusRejected, model.StatusPending} {
		require.NoError(t, c.SetTab(model.StatusPending))
		c.ToggleAll(true)
		require.NoError(t, c.Open(model.ActionApprove))
		require.NoError(t, c.SetReason("draft"))

		require.NoError(t, c.SetTab(tab))
		v := c.Snapshot()
		assert.Empty(t, v.Selected, "tab %s", tab)
		assert.False(t, v.ModalOpen, "tab %s", tab)
		assert.Empty(t, v.Reason, "tab %s", tab)
	}
}

func TestSetTabRejectsUnknownStatus(t *testing.T) {
	c, _ := mountedController(t)
	assert.ErrorIs(t, c.SetTab("ARCHIVED"), ErrUnknownStatus)
	assert.Equal(t, model.StatusPending, c.Snapshot().Tab)
}

func TestSetTabDoesNotFetch(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusApproved))
	require.NoError(t, c.SetTab(model.StatusApproved))
	assert.Equal(t, 1, api.lists)
	assert.Len(t, c.Snapshot().Filtered, 1)
}

func TestToggleAll(t *testing.T) {
	c, _ := mountedController(t,
		doc("1", model.StatusPending),
		doc("2", model.StatusApproved),
		doc("3", model.StatusPending),
		doc("4", model.StatusPending),
	)

	c.ToggleAll(true)
	v := c.Snapshot()
	assert.Equal(t, []string{"1", "3", "4"}, v.SelectedIDs)
	assert.True(t, v.AllChecked)

	c.ToggleOne("3", false)
	assert.False(t, c.Snapshot().AllChecked)

	c.ToggleAll(false)
	v = c.Snapshot()
	assert.Empty(t, v.SelectedIDs)
	assert.False(t, v.CanBulkAction)
}

func TestSelectionOnlyOnPendingTab(t *testing.T) {
	c, _ := mountedController(t, doc("1", model.StatusApproved))
	require.NoError(t, c.SetTab(model.StatusApproved))

	c.ToggleOne("1", true)
	c.ToggleAll(true)

	v := c.Snapshot()
	assert.Empty(t, v.Selected)
	assert.False(t, v.CanSelect)
	assert.ErrorIs(t, c.Open(model.ActionApprove), ErrNothingSelected)
}

func TestToggleOneIgnoresInvisibleIDs(t *testing.T) {
	c, _ := mountedController(t, doc("1", model.StatusPending), doc("2", model.StatusApproved))
	c.ToggleOne("2", true)
	c.ToggleOne("missing", true)
	assert.Empty(t, c.Snapshot().Selected)
}

func TestOpenRequiresSelection(t *testing.T) {
	c, _ := mountedController(t, doc("1", model.StatusPending))
	assert.ErrorIs(t, c.Open(model.ActionApprove), ErrNothingSelected)
	assert.ErrorIs(t, c.Open("archive"), ErrUnknownAction)
	assert.False(t, c.Snapshot().ModalOpen)
}

func TestOpenResetsReason(t *testing.T) {
	c, _ := mountedController(t, doc("1", model.StatusPending))
	c.ToggleOne("1", true)
	require.NoError(t, c.Open(model.ActionApprove))
	require.NoError(t, c.SetReason("first"))
	c.Cancel()

	require.NoError(t, c.Open(model.ActionReject))
	v := c.Snapshot()
	assert.Equal(t, model.ActionReject, v.Action)
	assert.Empty(t, v.Reason)
}

func TestConfirmNeedsReason(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusPending))
	c.ToggleOne("1", true)
	require.NoError(t, c.Open(model.ActionApprove))
	require.NoError(t, c.SetReason("   \t "))

	assert.False(t, c.Snapshot().CanConfirm)
	assert.ErrorIs(t, c.Confirm(context.Background()), ErrReasonRequired)
	assert.Empty(t, api.decisions)
	assert.True(t, c.Snapshot().ModalOpen)
}

func TestConfirmNeedsSelection(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusPending))
	c.ToggleOne("1", true)
	require.NoError(t, c.Open(model.ActionApprove))
	require.NoError(t, c.SetReason("ok"))
	c.ClearSelection()

	assert.False(t, c.Snapshot().CanConfirm)
	assert.ErrorIs(t, c.Confirm(context.Background()), ErrNothingSelected)
	assert.Empty(t, api.decisions)
}

func TestConfirmWithoutModal(t *testing.T) {
	c, _ := mountedController(t, doc("1", model.StatusPending))
	c.ToggleOne("1", true)
	assert.ErrorIs(t, c.Confirm(context.Background()), ErrModalClosed)
	assert.ErrorIs(t, c.SetReason("x"), ErrModalClosed)
}

func TestConfirmFailureKeepsModal(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusPending), doc("2", model.StatusPending))
	api.decideErr = errors.New("failed to approve: document locked")

	c.ToggleAll(true)
	require.NoError(t, c.Open(model.ActionApprove))
	require.NoError(t, c.SetReason("ok"))

	err := c.Confirm(context.Background())
	require.Error(t, err)

	v := c.Snapshot()
	assert.True(t, v.ModalOpen)
	assert.Equal(t, "ok", v.Reason)
	assert.False(t, v.Saving)
	assert.Equal(t, map[string]bool{"1": true, "2": true}, v.Selected)
	assert.Equal(t, "failed to approve: document locked", v.NoticeText)
	assert.Equal(t, 1, api.lists, "no refresh after a failed action")

	// Retry succeeds with the same draft.
	api.decideErr = nil
	require.NoError(t, c.Confirm(context.Background()))
	assert.False(t, c.Snapshot().ModalOpen)

	c.DismissNotice()
	assert.Empty(t, c.Snapshot().NoticeText)
}

func TestCancelKeepsSelection(t *testing.T) {
	c, _ := mountedController(t, doc("1", model.StatusPending))
	c.ToggleOne("1", true)
	require.NoError(t, c.Open(model.ActionReject))
	require.NoError(t, c.SetReason("draft"))

	c.Cancel()

	v := c.Snapshot()
	assert.False(t, v.ModalOpen)
	assert.Empty(t, v.Reason)
	assert.Equal(t, []string{"1"}, v.SelectedIDs)
}

func TestRefreshFailureKeepsList(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusPending))
	api.listErr = errors.New("failed to fetch documents")

	require.Error(t, c.Refresh(context.Background()))

	v := c.Snapshot()
	assert.False(t, v.Loading)
	assert.Len(t, v.Documents, 1)
	assert.Equal(t, "failed to fetch documents", v.NoticeText)
}

func TestFilterPreservesServerOrder(t *testing.T) {
	docs := []model.DocumentItem{
		doc("5", model.StatusRejected),
		doc("3", model.StatusPending),
		doc("9", model.StatusRejected),
		doc("1", model.StatusApproved),
		doc("2", model.StatusRejected),
	}
	c, _ := mountedController(t, docs...)

	for _, status := range model.Statuses {
		require.NoError(t, c.SetTab(status))
		var want []string
		for _, d := range docs {
			if d.Status == status {
				want = append(want, d.ID)
			}
		}
		var got []string
		for _, d := range c.Snapshot().Filtered {
			assert.Equal(t, status, d.Status)
			got = append(got, d.ID)
		}
		assert.Equal(t, want, got, "status %s", status)
	}
}

func TestStaleRefreshIsDropped(t *testing.T) {
	api := &fakeAPI{docs: []model.DocumentItem{doc("old", model.StatusPending)}}
	c := NewController(api)

	release := make(chan struct{})
	started := make(chan struct{})
	api.listHook = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}

	done := make(chan error)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started

	// A newer refresh sees the updated list and finishes first.
	api.mu.Lock()
	api.docs = []model.DocumentItem{doc("new", model.StatusPending)}
	api.mu.Unlock()
	require.NoError(t, c.Refresh(context.Background()))
	assert.True(t, c.Snapshot().Loading, "older refresh still in flight")

	close(release)
	require.NoError(t, <-done)

	v := c.Snapshot()
	assert.False(t, v.Loading)
	require.Len(t, v.Documents, 1)
	assert.Equal(t, "new", v.Documents[0].ID)
}

func TestStaleFailedRefreshIsDropped(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("connection reset")}
	c := NewController(api)

	release := make(chan struct{})
	started := make(chan struct{})
	api.listHook = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}

	done := make(chan error)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started

	api.mu.Lock()
	api.listErr = nil
	api.docs = []model.DocumentItem{doc("new", model.StatusPending)}
	api.mu.Unlock()
	require.NoError(t, c.Refresh(context.Background()))

	close(release)
	require.NoError(t, <-done, "an outdated failure is not reported")

	v := c.Snapshot()
	assert.False(t, v.Loading)
	assert.Nil(t, v.Notice)
	assert.Empty(t, v.NoticeText)
	require.Len(t, v.Documents, 1)
	assert.Equal(t, "new", v.Documents[0].ID)
}

func TestSavingFreezesTabSelectionAndDialog(t *testing.T) {
	c, api := mountedController(t, doc("1", model.StatusPending), doc("2", model.StatusPending))
	c.ToggleOne("1", true)
	require.NoError(t, c.Open(model.ActionApprove))
	require.NoError(t, c.SetReason("ok"))

	release := make(chan struct{})
	started := make(chan struct{})
	api.mu.Lock()
	api.decideErr = errors.New("server down")
	api.decideHook = func() {
		close(started)
		<-release
	}
	api.mu.Unlock()

	done := make(chan error)
	go func() { done <- c.Confirm(context.Background()) }()
	<-started

	assert.ErrorIs(t, c.SetTab(model.StatusApproved), ErrBusy)
	c.Cancel()
	c.ClearSelection()
	c.ToggleAll(true)
	c.ToggleOne("1", false)

	v := c.Snapshot()
	assert.True(t, v.Saving)
	assert.Equal(t, model.StatusPending, v.Tab)
	assert.True(t, v.ModalOpen)
	assert.Equal(t, []string{"1"}, v.SelectedIDs)

	close(release)
	require.Error(t, <-done)

	v = c.Snapshot()
	assert.False(t, v.Saving)
	assert.True(t, v.ModalOpen, "dialog stays open for a retry")
	assert.Equal(t, "ok", v.Reason)
	assert.Equal(t, []string{"1"}, v.SelectedIDs)
	assert.NotNil(t, v.Notice)
}

func TestSnapshotIsACopy(t *testing.T) {
	c, _ := mountedController(t, doc("1", model.StatusPending))
	c.ToggleOne("1", true)

	v := c.Snapshot()
	v.Selected["1"] = false
	v.Documents[0].Title = "changed"

	again := c.Snapshot()
	assert.True(t, again.Selected["1"])
	assert.Equal(t, "Request 1", again.Documents[0].Title)
}
