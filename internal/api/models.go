package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/service"
)

// UserID accepts a user identifier given either as a JSON string or as a
// JSON integer.
type UserID string

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("user_id must be a string or an integer")
	}
	*u = UserID(strconv.FormatInt(n, 10))
	return nil
}

// GenerateRequest is the body of POST /api/documents/generate/async.
type GenerateRequest struct {
	UserID      UserID `json:"user_id"      validate:"required"`
	DocType     string `json:"doc_type"     validate:"required,oneof=pdf docx doc"`
	CallbackURL string `json:"callback_url" validate:"required,url"`
}

// toSubmitRequest converts the DTO to the service request.
func (r GenerateRequest) toSubmitRequest() service.SubmitRequest {
	return service.SubmitRequest{
		UserID:      string(r.UserID),
		DocType:     r.DocType,
		CallbackURL: r.CallbackURL,
	}
}

// GenerateSyncRequest is the body of POST /api/documents/generate/sync.
type GenerateSyncRequest struct {
	UserID  UserID `json:"user_id"  validate:"required"`
	DocType string `json:"doc_type" validate:"required,oneof=pdf docx doc"`
}

// GeneratedResponse is returned once a document has been rendered.
type GeneratedResponse struct {
	Message     string `json:"message"`
	DocumentURL string `json:"document_url"`
}

// AcceptedResponse is returned with 202 once a request is queued.
type AcceptedResponse struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// ResultResponse is the cached outcome of a finished attempt.
type ResultResponse struct {
	Status      string `json:"status"`
	DocType     string `json:"doc_type"`
	DocumentURL string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// LogEntryResponse is one generation log row.
type LogEntryResponse struct {
	RequestID   string          `json:"request_id"`
	UserID      string          `json:"user_id"`
	DocType     string          `json:"doc_type"`
	Status      string          `json:"status"`
	RequestTime time.Time       `json:"request_time"`
	DurationMS  *int64          `json:"duration_ms"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	ResultURL   *string         `json:"result_url"`
}

// StatusResponse is returned by GET /api/documents/{request_id}.
type StatusResponse struct {
	LogEntryResponse
	Result *ResultResponse `json:"result,omitempty"`
}

// LogListResponse is returned by GET /api/admin/logs.
type LogListResponse struct {
	Logs  []LogEntryResponse `json:"logs"`
	Count int                `json:"count"`
}

func logEntryToResponse(e *domain.LogEntry) LogEntryResponse {
	resp := LogEntryResponse{
		RequestID:   e.RequestID,
		UserID:      e.UserID,
		DocType:     string(e.DocType),
		Status:      string(e.Status),
		RequestTime: e.RequestTime,
		DurationMS:  e.DurationMS,
		ResultURL:   e.ResultURL,
	}
	if len(e.RequestBody) > 0 && json.Valid(e.RequestBody) {
		resp.RequestBody = e.RequestBody
	}
	return resp
}

func statusToResponse(s *service.RequestStatus) StatusResponse {
	resp := StatusResponse{LogEntryResponse: logEntryToResponse(s.Entry)}
	if s.Result != nil {
		resp.Result = &ResultResponse{
			Status:      string(s.Result.Status),
			DocType:     string(s.Result.DocType),
			DocumentURL: s.Result.DocumentURL,
			Error:       s.Result.Error,
		}
	}
	return resp
}
