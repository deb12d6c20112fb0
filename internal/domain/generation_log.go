package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// LogStatus represents the lifecycle state recorded in the generation log
type LogStatus string

// Possible log status values
const (
	LogStatusPending   LogStatus = "PENDING"
	LogStatusCompleted LogStatus = "COMPLETED"
	LogStatusFailed    LogStatus = "FAILED"
)

// ErrInvalidLogStatus is returned when a log status is not valid.
var ErrInvalidLogStatus = errors.New("invalid log status")

// IsTerminal reports whether the status is COMPLETED or FAILED.
func (s LogStatus) IsTerminal() bool {
	return s == LogStatusCompleted || s == LogStatusFailed
}

// LogEntry is the permanent audit record of one submitted generation request.
// It is created PENDING at submission and moves to a terminal status once.
type LogEntry struct {
	RequestID   string          `json:"request_id"`
	UserID      string          `json:"user_id"`
	DocType     DocType         `json:"doc_type"`
	Status      LogStatus       `json:"status"`
	RequestTime time.Time       `json:"request_time"`
	DurationMS  *int64          `json:"duration_ms,omitempty"`
	RequestBody json.RawMessage `json:"request_body"`
	ResultURL   *string         `json:"result_url,omitempty"`
}

// NewPendingLogEntry creates the PENDING entry written at submission time.
func NewPendingLogEntry(key TaskKey, userID string, body json.RawMessage, at time.Time) *LogEntry {
	return &LogEntry{
		RequestID:   key.RequestID,
		UserID:      userID,
		DocType:     key.DocType,
		Status:      LogStatusPending,
		RequestTime: at.UTC(),
		RequestBody: body,
	}
}

// LogCompletion carries the terminal update applied to a LogEntry.
type LogCompletion struct {
	RequestID  string
	Status     LogStatus
	DurationMS int64
	ResultURL  *string
}

// Validate checks that the completion moves the entry to a terminal status.
func (c LogCompletion) Validate() error {
	if !c.Status.IsTerminal() {
		return ErrInvalidLogStatus
	}
	return nil
}
