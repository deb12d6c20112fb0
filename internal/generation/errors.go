package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrUnsupportedType is returned when asked to render a document type the
	// renderer does not know
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrMissingUser is returned when the user snapshot has no ID
	ErrMissingUser = errors.New("user snapshot has no id")

	// ErrInvalidConfig is returned when the renderer configuration is invalid
	ErrInvalidConfig = errors.New("invalid renderer configuration")
)
