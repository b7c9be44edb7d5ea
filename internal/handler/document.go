package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"approval-console/internal/model"
	"approval-console/internal/service"
)

// maxBodyBytes caps approve/reject request bodies.
const maxBodyBytes = 1 << 20

type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// HandleList lists documents, optionally filtered by ?status=.
func (h *DocumentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, "list documents", err)
		return
	}
	writeJSON(w, model.ListResponse{StatusCode: http.StatusOK, Data: items})
}

// HandleApprove approves the pending documents in the request body.
func (h *DocumentHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	res, ok := h.decide(w, r, model.ActionApprove)
	if !ok {
		return
	}
	writeJSON(w, model.ApprovalResponse{
		StatusCode: http.StatusOK,
		Message:    "approved",
		Requested:  res.Requested,
		Approved:   res.Modified,
	})
}

// HandleReject rejects the pending documents in the request body.
func (h *DocumentHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	res, ok := h.decide(w, r, model.ActionReject)
	if !ok {
		return
	}
	writeJSON(w, model.RejectionResponse{
		StatusCode: http.StatusOK,
		Message:    "rejected",
		Requested:  res.Requested,
		Rejected:   res.Modified,
	})
}

func (h *DocumentHandler) decide(w http.ResponseWriter, r *http.Request, action model.Action) (*service.Decision, bool) {
	var req model.BulkDecisionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid body")
		return nil, false
	}
	res, err := h.svc.Decide(r.Context(), action, req)
	if err != nil {
		writeServiceError(w, string(action)+" documents", err)
		return nil, false
	}
	log.Printf("Documents %s: requested=%d modified=%d", action.TargetStatus(), res.Requested, res.Modified)
	return res, true
}

// HandleSeed inserts mock documents. With ?reset=true the collection is emptied first.
func (h *DocumentHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Seed(r.Context(), r.URL.Query().Get("reset") == "true")
	if err != nil {
		log.Printf("ERROR seed documents: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to seed documents")
		return
	}
	writeJSON(w, model.SeedResponse{
		StatusCode: http.StatusOK,
		Message:    "mock data seeded successfully",
		Inserted:   n,
	})
}

// RegisterRoutes registers the documents API on the given mux.
// The seed route is only registered when seed is true.
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux, seed bool) {
	mux.HandleFunc("GET /api/documents", h.HandleList)
	mux.HandleFunc("POST /api/documents/approval", h.HandleApprove)
	mux.HandleFunc("POST /api/documents/rejection", h.HandleReject)
	if seed {
		mux.HandleFunc("POST /api/documents/seed", h.HandleSeed)
	}
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	log.Printf("ERROR %s: %v", op, err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(model.ErrorResponse{StatusCode: code, Message: message}); err != nil {
		log.Printf("ERROR encoding response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR encoding response: %v", err)
	}
}
