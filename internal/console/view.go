package console

import (
	"maps"
	"strings"

	"approval-console/internal/model"
)

// View is a read-only copy of a controller's state plus the values derived from it.
type View struct {
	State

	Filtered      []model.DocumentItem `json:"filtered"`
	SelectedIDs   []string             `json:"selected_ids"`
	CanSelect     bool                 `json:"can_select"`
	CanBulkAction bool                 `json:"can_bulk_action"`
	CanConfirm    bool                 `json:"can_confirm"`
	AllChecked    bool                 `json:"all_checked"`
	NoticeText    string               `json:"notice,omitempty"`
}

// Snapshot copies the current state. The result shares nothing with the controller.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	st.Documents = append([]model.DocumentItem{}, c.state.Documents...)
	st.Selected = maps.Clone(c.state.Selected)

	filtered := model.FilterByStatus(st.Documents, st.Tab)
	ids := SelectedIDs(filtered, st.Selected)
	v := View{
		State:         st,
		Filtered:      filtered,
		SelectedIDs:   ids,
		CanSelect:     st.Tab == model.StatusPending,
		CanBulkAction: st.Tab == model.StatusPending && len(ids) > 0,
		CanConfirm:    st.ModalOpen && len(ids) > 0 && CanConfirm(st.Reason, st.Saving),
		AllChecked:    AllChecked(filtered, st.Selected),
	}
	if st.Notice != nil {
		v.NoticeText = st.Notice.Error()
	}
	return v
}

// SelectedIDs returns the ids of docs checked in selected, in list order.
// Entries for documents not in docs are ignored.
func SelectedIDs(docs []model.DocumentItem, selected map[string]bool) []string {
	ids := []string{}
	for _, d := range docs {
		if selected[d.ID] {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// AllChecked reports whether docs is non-empty and every one of them is checked.
func AllChecked(docs []model.DocumentItem, selected map[string]bool) bool {
	if len(docs) == 0 {
		return false
	}
	for _, d := range docs {
		if !selected[d.ID] {
			return false
		}
	}
	return true
}

// CanConfirm reports whether a dialog with this reason draft may be submitted.
func CanConfirm(reason string, saving bool) bool {
	return !saving && strings.TrimSpace(reason) != ""
}
