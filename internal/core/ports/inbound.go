package ports

import (
	"context"
	"io"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
)

// FileInput is a raw file handed to the lifecycle store by the presentation
// boundary, before any validation has run.
type FileInput struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

// DocumentLifecycle is the inbound contract of the lifecycle store: the
// intents the presentation boundary may dispatch, plus the observable state.
type DocumentLifecycle interface {
	Fetch(ctx context.Context) ([]domain.Document, error)
	Upload(ctx context.Context, file FileInput) (*domain.Document, error)
	AddLocal(ctx context.Context, file FileInput) (*domain.Document, error)
	Sign(ctx context.Context, documentID, signature string) (*domain.Document, error)
	View(ctx context.Context, documentID string) (string, error)
	Delete(ctx context.Context, documentID string) error
	Snapshot() domain.State
}
