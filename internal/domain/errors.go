// Package domain defines the core business entities and errors.
package domain

import "errors"

// Pipeline errors. Synchronous intake errors surface to the submitting caller;
// asynchronous ones are only ever recorded in the log and the callback payload.
var (
	// ErrInvalidRequest is returned when a generation request carries an
	// unsupported document type or a malformed callback URL. Such requests are
	// rejected before anything is written.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUserNotFound is returned when the requested user does not exist in the
	// user registry.
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable is returned when the task store cannot be reached.
	// Callers may retry the submission.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrCorruptTask marks a task whose key or payload cannot be decoded.
	// Corrupt tasks are discarded at poll time and never retried.
	ErrCorruptTask = errors.New("corrupt task")

	// ErrRenderFailure marks a terminal failure of one rendering attempt.
	ErrRenderFailure = errors.New("render failure")

	// ErrCallbackDelivery marks a failed webhook delivery. It is logged only.
	ErrCallbackDelivery = errors.New("callback delivery failed")

	// ErrRequestNotFound is returned when no log entry exists for a request ID.
	ErrRequestNotFound = errors.New("request not found")
)
