package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"approval-console/internal/console"
	"approval-console/internal/i18n"
	"approval-console/internal/model"
	"approval-console/internal/view"
)

const (
	sessionCookie = "approval_session"
	localeCookie  = "approval_locale"
)

// ConsoleHandler serves the approval page. Every POST route runs one controller
// transition and redirects back to the page.
type ConsoleHandler struct {
	sessions *console.Registry
}

func NewConsoleHandler(sessions *console.Registry) *ConsoleHandler {
	return &ConsoleHandler{sessions: sessions}
}

// controller returns the caller's controller, starting a session if needed.
func (h *ConsoleHandler) controller(w http.ResponseWriter, r *http.Request) *console.Controller {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if ctrl, ok := h.sessions.Get(c.Value); ok {
			return ctrl
		}
	}
	id, ctrl := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return ctrl
}

// localeCtx returns the request context with the negotiated UI locale set.
func localeCtx(r *http.Request) context.Context {
	preferred := ""
	if c, err := r.Cookie(localeCookie); err == nil {
		preferred = c.Value
	}
	return i18n.WithLocale(r.Context(), i18n.Negotiate(preferred, r.Header.Get("Accept-Language")))
}

func backToPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandlePage renders the console, loading the documents on a session's first visit.
func (h *ConsoleHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if err := ctrl.Mount(r.Context()); err != nil {
		log.Printf("ERROR load documents: %v", err)
	}

	ctx := localeCtx(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := view.Page(ctx, w, view.NewPageData(ctx, ctrl.Snapshot())); err != nil {
		log.Printf("ERROR render page: %v", err)
	}
}

// HandleState returns the session's state as JSON.
func (h *ConsoleHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.controller(w, r).Snapshot())
}

func (h *ConsoleHandler) HandleTab(w http.ResponseWriter, r *http.Request) {
	err := h.controller(w, r).SetTab(model.DocumentStatus(r.FormValue("tab")))
	if errors.Is(err, console.ErrUnknownStatus) {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Tab switch ignored: %v", err)
	}
	backToPage(w, r)
}

func (h *ConsoleHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.controller(w, r).Refresh(r.Context()); err != nil {
		log.Printf("ERROR refresh documents: %v", err)
	}
	backToPage(w, r)
}

func (h *ConsoleHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.controller(w, r).ClearSelection()
	backToPage(w, r)
}

func (h *ConsoleHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	h.controller(w, r).ToggleOne(id, r.FormValue("checked") == "true")
	backToPage(w, r)
}

func (h *ConsoleHandler) HandleSelectAll(w http.ResponseWriter, r *http.Request) {
	h.controller(w, r).ToggleAll(r.FormValue("checked") == "true")
	backToPage(w, r)
}

func (h *ConsoleHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	err := h.controller(w, r).Open(model.Action(r.FormValue("action")))
	if errors.Is(err, console.ErrUnknownAction) {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Open action ignored: %v", err)
	}
	backToPage(w, r)
}

// HandleConfirm stores the submitted reason and runs the open dialog's action.
func (h *ConsoleHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if err := ctrl.SetReason(r.FormValue("reason")); err != nil {
		log.Printf("Confirm ignored: %v", err)
		backToPage(w, r)
		return
	}
	err := ctrl.Confirm(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, console.ErrReasonRequired), errors.Is(err, console.ErrNothingSelected),
		errors.Is(err, console.ErrModalClosed), errors.Is(err, console.ErrBusy):
		log.Printf("Confirm ignored: %v", err)
	default:
		log.Printf("ERROR confirm action: %v", err)
	}
	backToPage(w, r)
}

func (h *ConsoleHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.controller(w, r).Cancel()
	backToPage(w, r)
}

func (h *ConsoleHandler) HandleDismissNotice(w http.ResponseWriter, r *http.Request) {
	h.controller(w, r).DismissNotice()
	backToPage(w, r)
}

// HandleLocale remembers the chosen UI language in a cookie.
func (h *ConsoleHandler) HandleLocale(w http.ResponseWriter, r *http.Request) {
	locale := i18n.Negotiate(r.FormValue("locale"), "")
	http.SetCookie(w, &http.Cookie{Name: localeCookie, Value: locale, Path: "/", MaxAge: 365 * 24 * 3600, SameSite: http.SameSiteLaxMode})
	backToPage(w, r)
}

// RegisterRoutes registers all console routes on the given mux.
func (h *ConsoleHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandlePage)
	mux.HandleFunc("GET /state", h.HandleState)

	mux.HandleFunc("POST /tab", h.HandleTab)
	mux.HandleFunc("POST /refresh", h.HandleRefresh)
	mux.HandleFunc("POST /clear", h.HandleClear)
	mux.HandleFunc("POST /select", h.HandleSelect)
	mux.HandleFunc("POST /select-all", h.HandleSelectAll)

	// Approve/reject dialog
	mux.HandleFunc("POST /open", h.HandleOpen)
	mux.HandleFunc("POST /confirm", h.HandleConfirm)
	mux.HandleFunc("POST /cancel", h.HandleCancel)

	mux.HandleFunc("POST /notice/dismiss", h.HandleDismissNotice)
	mux.HandleFunc("POST /locale", h.HandleLocale)
}
