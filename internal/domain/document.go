package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DocType is a supported output format for generated documents.
type DocType string

// Supported document types
const (
	DocTypePDF  DocType = "pdf"
	DocTypeDOCX DocType = "docx"
	DocTypeDOC  DocType = "doc"
)

// ParseDocType converts a raw string to a DocType.
// Returns ErrInvalidRequest for anything outside the supported set.
func ParseDocType(s string) (DocType, error) {
	switch DocType(s) {
	case DocTypePDF, DocTypeDOCX, DocTypeDOC:
		return DocType(s), nil
	default:
		return "", fmt.Errorf("%w: unsupported doc_type %q", ErrInvalidRequest, s)
	}
}

// Valid reports whether d is one of the supported document types.
func (d DocType) Valid() bool {
	_, err := ParseDocType(string(d))
	return err == nil
}

// TaskKey is the composite identity of a generation task.
type TaskKey struct {
	RequestID string  `json:"request_id"`
	DocType   DocType `json:"doc_type"`
}

// String returns the canonical "{request_id}:{doc_type}" form of the key.
// Request IDs never contain ':' (see Validate), so the form is unambiguous.
func (k TaskKey) String() string {
	return k.RequestID + ":" + string(k.DocType)
}

// Validate checks that both parts of the key are present and well-formed.
func (k TaskKey) Validate() error {
	if k.RequestID == "" || strings.Contains(k.RequestID, ":") {
		return fmt.Errorf("%w: bad request id %q", ErrCorruptTask, k.RequestID)
	}
	if !k.DocType.Valid() {
		return fmt.Errorf("%w: bad doc type %q", ErrCorruptTask, k.DocType)
	}
	return nil
}

// ParseTaskKey parses the canonical form produced by TaskKey.String.
func ParseTaskKey(s string) (TaskKey, error) {
	id, docType, ok := strings.Cut(s, ":")
	if !ok {
		return TaskKey{}, fmt.Errorf("%w: malformed key %q", ErrCorruptTask, s)
	}
	key := TaskKey{RequestID: id, DocType: DocType(docType)}
	if err := key.Validate(); err != nil {
		return TaskKey{}, err
	}
	return key, nil
}

// TaskPayload is the immutable snapshot stored with a task at submission time.
type TaskPayload struct {
	UserID      string     `json:"user_id"`
	CallbackURL string     `json:"callback_url"`
	User        UserRecord `json:"user_data"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// Validate checks that the payload carries everything the executor needs.
func (p TaskPayload) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: payload has no user_id", ErrCorruptTask)
	}
	if err := ValidateCallbackURL(p.CallbackURL); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTask, err)
	}
	return nil
}

// ValidateCallbackURL checks that raw is an absolute http or https URL.
func ValidateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: callback_url: %v", ErrInvalidRequest, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: callback_url must use http or https", ErrInvalidRequest)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: callback_url has no host", ErrInvalidRequest)
	}
	return nil
}
