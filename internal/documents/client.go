// Package documents is the HTTP client for the documents API.
package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"approval-console/internal/model"
	"approval-console/internal/tracing"
)

var (
	ErrListFailed    = errors.New("failed to fetch documents")
	ErrApproveFailed = errors.New("failed to approve")
	ErrRejectFailed  = errors.New("failed to reject")
)

// APIError is returned when the documents API answers with a non-success status.
// Message holds the server's message when the body carried one.
type APIError struct {
	Op         error
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%v: status %d", e.Op, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Op }

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListDocuments fetches every document regardless of status.
func (c *Client) ListDocuments(ctx context.Context) (*model.ListResponse, error) {
	return c.list(ctx, "")
}

// ListDocumentsByStatus fetches the documents with the given status using the server-side filter.
func (c *Client) ListDocumentsByStatus(ctx context.Context, status model.DocumentStatus) (*model.ListResponse, error) {
	return c.list(ctx, status)
}

func (c *Client) list(ctx context.Context, status model.DocumentStatus) (*model.ListResponse, error) {
	path := "/api/documents"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}

	ctx, span := tracing.StartSpan(ctx, "documents.list", trace.SpanKindClient)
	var result model.ListResponse
	code, err := c.doJSON(ctx, http.MethodGet, path, nil, &result)
	span.SetHTTPStatus(code)
	if err != nil {
		// The list path never surfaces server detail.
		if apiErr, ok := err.(*APIError); ok {
			apiErr.Message = ""
		}
		err = wrap(ErrListFailed, err)
	}
	span.End(err)
	if err != nil {
		return nil, err
	}
	if result.Data == nil {
		result.Data = []model.DocumentItem{}
	}
	return &result, nil
}

// ApproveDocuments approves ids with reason in a single request.
func (c *Client) ApproveDocuments(ctx context.Context, ids []string, reason string) (*model.ApprovalResponse, error) {
	var result model.ApprovalResponse
	if err := c.decide(ctx, "documents.approve", "/api/documents/approval", ErrApproveFailed, ids, reason, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectDocuments rejects ids with reason in a single request.
func (c *Client) RejectDocuments(ctx context.Context, ids []string, reason string) (*model.RejectionResponse, error) {
	var result model.RejectionResponse
	if err := c.decide(ctx, "documents.reject", "/api/documents/rejection", ErrRejectFailed, ids, reason, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) decide(ctx context.Context, spanName, path string, op error, ids []string, reason string, result any) error {
	ctx, span := tracing.StartSpan(ctx, spanName, trace.SpanKindClient)
	span.SetAttributes(map[string]string{"documents.count": fmt.Sprintf("%d", len(ids))})

	body := model.BulkDecisionRequest{DocumentIDs: ids, Reason: reason}
	code, err := c.doJSON(ctx, http.MethodPost, path, body, result)
	span.SetHTTPStatus(code)
	if err != nil {
		err = wrap(op, err)
	}
	span.End(err)
	return err
}

// wrap attaches the operation sentinel to err so errors.Is(err, op) holds.
func wrap(op, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		apiErr.Op = op
		return apiErr
	}
	return fmt.Errorf("%w: %w", op, err)
}

// doJSON performs the request and decodes a success body into result.
// The returned status code is 0 when no response was received.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) (int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody model.ErrorResponse
		if data, _ := io.ReadAll(resp.Body); json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Message
		}
		return resp.StatusCode, apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
