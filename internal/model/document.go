package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type DocumentStatus string

const (
	StatusPending  DocumentStatus = "PENDING"
	StatusApproved DocumentStatus = "APPROVED"
	StatusRejected DocumentStatus = "REJECTED"
)

// Statuses lists every status in tab order.
var Statuses = []DocumentStatus{StatusPending, StatusApproved, StatusRejected}

// ParseStatus returns the status named by s, or false if s is not one of the three statuses.
func ParseStatus(s string) (DocumentStatus, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

const DocumentsCollection = "documents"

// Reason length bounds enforced by the documents API.
const (
	MinReasonLen = 3
	MaxReasonLen = 500
)

// Document is the stored form of a document.
type Document struct {
	ID        bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	DocNo     string         `bson:"doc_no" json:"doc_no"`
	Title     string         `bson:"title" json:"title"`
	Status    DocumentStatus `bson:"status" json:"status"`
	Reason    string         `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updated_at"`
}

// Item converts a stored document to its wire shape.
func (d *Document) Item() DocumentItem {
	return DocumentItem{
		ID:        d.ID.Hex(),
		DocNo:     d.DocNo,
		Title:     d.Title,
		Status:    d.Status,
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// DocumentItem is a document as it travels over the documents API.
type DocumentItem struct {
	ID        string         `json:"id"`
	DocNo     string         `json:"doc_no"`
	Title     string         `json:"title"`
	Status    DocumentStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// HasReason reports whether the document carries a non-blank reason.
func (d DocumentItem) HasReason() bool {
	return strings.TrimSpace(d.Reason) != ""
}

// FilterByStatus keeps the items whose status equals status, preserving order.
func FilterByStatus(items []DocumentItem, status DocumentStatus) []DocumentItem {
	out := make([]DocumentItem, 0, len(items))
	for _, d := range items {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out
}

type ListResponse struct {
	StatusCode int            `json:"statusCode"`
	Data       []DocumentItem `json:"data"`
}

type BulkDecisionRequest struct {
	DocumentIDs []string `json:"document_ids"`
	Reason      string   `json:"reason"`
}

type ApprovalResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Requested  int    `json:"requested"`
	Approved   int64  `json:"approved"`
}

type RejectionResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Requested  int    `json:"requested"`
	Rejected   int64  `json:"rejected"`
}

// ErrorResponse is the body of every non-2xx documents API response.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type SeedResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Inserted   int    `json:"inserted"`
}
