package generation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phrazzld/docgen-api/internal/config"
	"github.com/phrazzld/docgen-api/internal/domain"
)

// PublicPathPrefix is the URL path under which generated documents are served.
const PublicPathPrefix = "/generated_docs"

// FileRenderer writes placeholder documents to a local directory.
//
// docx documents are written to OutputDir immediately; other types simulate a
// slow backend by waiting SimulatedLatency before returning their URL.
type FileRenderer struct {
	outputDir string
	latency   time.Duration
	logger    *slog.Logger
}

var _ Renderer = (*FileRenderer)(nil)

// NewFileRenderer creates a FileRenderer from the renderer configuration.
func NewFileRenderer(cfg config.RendererConfig, logger *slog.Logger) (*FileRenderer, error) {
	if cfg.SimulatedLatency < 0 {
		return nil, fmt.Errorf("%w: negative simulated latency", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileRenderer{
		outputDir: cfg.OutputDir,
		latency:   cfg.SimulatedLatency,
		logger:    logger.With("component", "file_renderer"),
	}, nil
}

// FileName returns the document file name for a user and type.
func FileName(userID string, docType domain.DocType) string {
	return fmt.Sprintf("user_%s_document.%s", userID, docType)
}

// Render implements Renderer.
func (r *FileRenderer) Render(ctx context.Context, user domain.UserRecord, docType domain.DocType) (string, error) {
	if strings.TrimSpace(user.ID) == "" || strings.ContainsAny(user.ID, `/\`) {
		return "", ErrMissingUser
	}
	if !docType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, docType)
	}

	name := FileName(user.ID, docType)

	if docType == domain.DocTypeDOCX {
		if err := r.writePlaceholder(name, user); err != nil {
			return "", err
		}
	} else if r.latency > 0 {
		timer := time.NewTimer(r.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	r.logger.Debug("document rendered", "user_id", user.ID, "doc_type", docType)
	return PublicPathPrefix + "/" + name, nil
}

func (r *FileRenderer) writePlaceholder(name string, user domain.UserRecord) error {
	if r.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document for %s %s\n", user.FirstName, user.LastName)
	if user.MiddleName != nil {
		fmt.Fprintf(&b, "Middle name: %s\n", *user.MiddleName)
	}
	fmt.Fprintf(&b, "IIN: %s\n", user.IIN)
	fmt.Fprintf(&b, "Phone: %s\n", user.PhoneNumber)

	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
