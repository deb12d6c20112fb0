package generation

import (
	"context"

	"github.com/phrazzld/docgen-api/internal/domain"
)

// Renderer produces a document for a user and returns the URL it can be
// fetched from. Any returned error is a terminal failure for the attempt;
// implementations should honor ctx cancellation.
type Renderer interface {
	Render(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error)
}

// RendererFunc adapts an ordinary function to the Renderer interface.
type RendererFunc func(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error)

// Render calls f(ctx, user, docType).
func (f RendererFunc) Render(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
	return f(ctx, user, docType)
}
