// Package view renders the approval console's HTML. Every function here is a pure
// function of its arguments: state lives in the console controller.
package view

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"

	"approval-console/internal/console"
	"approval-console/internal/documents"
	"approval-console/internal/i18n"
	"approval-console/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var base = template.Must(template.New("").Funcs(template.FuncMap{
	"t":    func(string, ...any) string { return "" },
	"pill": pillClass,
}).ParseFS(templateFS, "templates/*.html"))

// TableProps is everything the document table needs.
type TableProps struct {
	Documents []model.DocumentItem
	Selected  map[string]bool
	CanSelect bool
}

// AllChecked is the select-all box state, derived from the rows.
func (p TableProps) AllChecked() bool {
	return console.AllChecked(p.Documents, p.Selected)
}

// Columns is the number of table columns, used by the empty placeholder row.
func (p TableProps) Columns() int {
	if p.CanSelect {
		return 5
	}
	return 4
}

// ModalProps is everything the approval dialog needs.
type ModalProps struct {
	Open         bool
	Action       model.Action
	Title        string
	ConfirmLabel string
	Reason       string
	Saving       bool
}

// ConfirmDisabled reports whether the confirm button must be disabled.
func (p ModalProps) ConfirmDisabled() bool {
	return !console.CanConfirm(p.Reason, p.Saving)
}

// PageData is the input of the full page.
type PageData struct {
	View    console.View
	Table   TableProps
	Modal   ModalProps
	Notice  string
	Tabs    []model.DocumentStatus
	Locale  string
	Locales []string
}

// NewPageData derives the page, table and dialog inputs from a controller snapshot.
func NewPageData(ctx context.Context, v console.View) PageData {
	modal := ModalProps{
		Open:   v.ModalOpen,
		Action: v.Action,
		Reason: v.Reason,
		Saving: v.Saving,
	}
	if v.Action == model.ActionReject {
		modal.Title = i18n.T(ctx, "modal.reject_title")
		modal.ConfirmLabel = i18n.T(ctx, "btn.reject")
	} else {
		modal.Title = i18n.T(ctx, "modal.approve_title")
		modal.ConfirmLabel = i18n.T(ctx, "btn.approve")
	}

	return PageData{
		View: v,
		Table: TableProps{
			Documents: v.Filtered,
			Selected:  v.Selected,
			CanSelect: v.CanSelect,
		},
		Modal:   modal,
		Notice:  NoticeMessage(ctx, v.Notice),
		Tabs:    model.Statuses,
		Locale:  i18n.LocaleFromContext(ctx),
		Locales: i18n.Locales(),
	}
}

// NoticeMessage turns an error surfaced by the controller into text for the user.
// Server messages from approve/reject are shown verbatim after the localized summary.
func NoticeMessage(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}
	var summary string
	switch {
	case errors.Is(err, documents.ErrListFailed):
		summary = i18n.T(ctx, "err.list_failed")
	case errors.Is(err, documents.ErrApproveFailed):
		summary = i18n.T(ctx, "err.approve_failed")
	case errors.Is(err, documents.ErrRejectFailed):
		summary = i18n.T(ctx, "err.reject_failed")
	case errors.Is(err, console.ErrReasonRequired):
		return i18n.T(ctx, "err.reason_required")
	case errors.Is(err, console.ErrNothingSelected):
		return i18n.T(ctx, "err.nothing_selected")
	case errors.Is(err, console.ErrBusy):
		return i18n.T(ctx, "err.busy")
	default:
		return i18n.T(ctx, "err.generic")
	}

	var apiErr *documents.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return summary + ": " + apiErr.Message
	}
	return summary
}

func Page(ctx context.Context, w io.Writer, data PageData) error {
	return render(ctx, w, "page", data)
}

func Table(ctx context.Context, w io.Writer, props TableProps) error {
	return render(ctx, w, "table", props)
}

func Modal(ctx context.Context, w io.Writer, props ModalProps) error {
	return render(ctx, w, "modal", props)
}

func render(ctx context.Context, w io.Writer, name string, data any) error {
	tmpl, err := base.Clone()
	if err != nil {
		return fmt.Errorf("clone templates: %w", err)
	}
	tmpl.Funcs(template.FuncMap{
		"t": func(id string, kv ...any) string {
			return i18n.T(ctx, id, templateData(kv))
		},
	})
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// templateData turns alternating key/value arguments into i18n template data.
func templateData(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	data := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			data[k] = kv[i+1]
		}
	}
	return data
}

func pillClass(status model.DocumentStatus) string {
	switch status {
	case model.StatusPending:
		return "pill pill-pending"
	case model.StatusApproved:
		return "pill pill-approved"
	default:
		return "pill pill-rejected"
	}
}
