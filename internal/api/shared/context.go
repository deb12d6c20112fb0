package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

// ContextKey is the key type for request context values
type ContextKey string

const (
	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader carries the trace ID in requests and responses
	TraceIDHeader = "X-Trace-ID"

	// TraceIDLength is the number of random bytes in a generated trace ID
	TraceIDLength = 16 // 32 hex characters
)

var validTraceID = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// WithTraceID stores traceID in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// NewTraceID returns a random 32-character hex trace ID.
func NewTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		// uuid has its own entropy pool
		return hex.EncodeToString([]byte(uuid.NewString())[:TraceIDLength])
	}
	return hex.EncodeToString(b)
}

// AcceptTraceID returns incoming if it is a plausible trace ID supplied by a
// caller, otherwise a freshly generated one.
func AcceptTraceID(incoming string) string {
	if validTraceID.MatchString(incoming) {
		return incoming
	}
	return NewTraceID()
}
