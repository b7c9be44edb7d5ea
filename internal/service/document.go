package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/bson"

	"approval-console/internal/model"
)

// DocumentStore is the persistence the documents API needs.
type DocumentStore interface {
	List(ctx context.Context, status model.DocumentStatus) ([]*model.Document, error)
	DecidePending(ctx context.Context, ids []bson.ObjectID, status model.DocumentStatus, reason string, at time.Time) (int64, error)
	InsertMany(ctx context.Context, docs []*model.Document) (int, error)
	DeleteAll(ctx context.Context) error
}

// ValidationError is a client mistake; the API answers it with 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

type DocumentService struct {
	store DocumentStore
	now   func() time.Time
}

func NewDocumentService(store DocumentStore) *DocumentService {
	return &DocumentService{store: store, now: time.Now}
}

// List returns the documents with the given status, or all of them when status is empty.
func (s *DocumentService) List(ctx context.Context, status string) ([]model.DocumentItem, error) {
	var st model.DocumentStatus
	if status != "" {
		var ok bool
		if st, ok = model.ParseStatus(status); !ok {
			return nil, invalid("invalid status (PENDING, APPROVED, REJECTED)")
		}
	}

	docs, err := s.store.List(ctx, st)
	if err != nil {
		return nil, err
	}
	items := make([]model.DocumentItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.Item())
	}
	return items, nil
}

// Decision is the outcome of a bulk approve or reject.
type Decision struct {
	Requested int
	Modified  int64
}

// Decide applies action to the pending documents among req.DocumentIDs.
func (s *DocumentService) Decide(ctx context.Context, action model.Action, req model.BulkDecisionRequest) (*Decision, error) {
	ids := uniqueTrimmed(req.DocumentIDs)
	reason := strings.TrimSpace(req.Reason)

	if len(ids) == 0 {
		return nil, invalid("document_ids is required")
	}
	if reason == "" {
		return nil, invalid("reason is required")
	}
	if n := utf8.RuneCountInString(reason); n < model.MinReasonLen {
		return nil, invalid(fmt.Sprintf("reason must be at least %d characters", model.MinReasonLen))
	} else if n > model.MaxReasonLen {
		return nil, invalid(fmt.Sprintf("reason must be <= %d characters", model.MaxReasonLen))
	}

	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return nil, invalid("invalid document_ids")
		}
		oids = append(oids, oid)
	}

	modified, err := s.store.DecidePending(ctx, oids, action.TargetStatus(), reason, s.now())
	if err != nil {
		return nil, err
	}
	return &Decision{Requested: len(ids), Modified: modified}, nil
}

// Seed inserts a fixed set of mock documents: 15 pending, 5 approved and 5 rejected.
// With reset the collection is emptied first.
func (s *DocumentService) Seed(ctx context.Context, reset bool) (int, error) {
	if reset {
		if err := s.store.DeleteAll(ctx); err != nil {
			return 0, fmt.Errorf("reset documents: %w", err)
		}
	}
	return s.store.InsertMany(ctx, mockDocuments(s.now()))
}

func mockDocuments(now time.Time) []*model.Document {
	docs := make([]*model.Document, 0, 25)
	add := func(i int, title string, status model.DocumentStatus, reason string) {
		docs = append(docs, &model.Document{
			DocNo:     fmt.Sprintf("IT03-%04d", i),
			Title:     fmt.Sprintf("%s %d", title, i),
			Status:    status,
			Reason:    reason,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	for i := 1; i <= 15; i++ {
		add(i, "IT Equipment Request", model.StatusPending, "")
	}
	for i := 16; i <= 20; i++ {
		add(i, "Approved Request", model.StatusApproved, "Approved by IT manager")
	}
	for i := 21; i <= 25; i++ {
		add(i, "Rejected Request", model.StatusRejected, "Not compliant with IT policy")
	}
	return docs
}

// uniqueTrimmed trims every id, drops empty ones and keeps the first occurrence of each.
func uniqueTrimmed(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
