package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/store"
)

// ServiceError wraps unexpected failures with the operation that produced them.
// Expected conditions are returned as domain sentinels instead.
type ServiceError struct {
	// Service is the service that failed (e.g., "generation")
	Service string
	// Operation is the operation that failed (e.g., "submit")
	Operation string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service %s failed: %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Service: service, Operation: operation, Err: err}
}

// mapStoreError translates store errors into domain sentinels where one
// applies. notFound is the sentinel for a missing entity; anything left is
// wrapped in a ServiceError.
func mapStoreError(operation string, err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, store.ErrUnavailable):
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	default:
		return NewServiceError("generation", operation, err)
	}
}
