package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/docgen-api/internal/api/shared"
	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, store.ErrLogEntryNotFound):
		return http.StatusNotFound

	// Retriable
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Rendering failed for a valid request
	case errors.Is(err, domain.ErrRenderFailure):
		return http.StatusInternalServerError

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return invalidRequestMessage(err)

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, store.ErrLogEntryNotFound):
		return "Request not found"

	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, store.ErrUnavailable):
		return "Service temporarily unavailable, please retry"

	case errors.Is(err, domain.ErrRenderFailure):
		return "Document generation failed"

	default:
		return "An unexpected error occurred"
	}
}

// invalidRequestMessage names the offending field of an ErrInvalidRequest
// without echoing the submitted value.
func invalidRequestMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "doc_type"):
		return "Invalid doc_type: must be one of pdf, docx, doc"
	case strings.Contains(msg, "callback_url"):
		return "Invalid callback_url: must be an absolute http or https URL"
	default:
		return "Invalid request"
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// message overrides the derived one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := jsonFieldName(fe.Field())
		return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// jsonFieldName maps DTO struct field names to their JSON names.
func jsonFieldName(field string) string {
	switch field {
	case "UserID":
		return "user_id"
	case "DocType":
		return "doc_type"
	case "CallbackURL":
		return "callback_url"
	default:
		return strings.ToLower(field)
	}
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "url", "http_url":
		return "invalid URL"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
