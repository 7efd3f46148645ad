package ports

import (
	"context"
	"io"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
)

// UploadRequest carries the metadata and payload of one multipart upload.
type UploadRequest struct {
	Filename string
	MimeType string
	Size     int64
	Body     io.Reader
}

// BackendClient is the transport boundary to the external document backend.
// It performs network I/O only and holds no cross-call state.
type BackendClient interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// UploadDocument streams the payload and, when progress is non-nil,
	// emits monotonically increasing percentages on it. The channel is
	// closed when the upload terminates; nothing is sent afterwards.
	UploadDocument(ctx context.Context, req UploadRequest, progress chan<- int) (*domain.Document, error)

	SignDocument(ctx context.Context, documentID, signature string) (*domain.SignResult, error)
	ViewDocument(ctx context.Context, documentID string) (string, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

// StagingStore holds raw payloads of local-only documents until an upload
// (explicit or sign-triggered) consumes them.
type StagingStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// EventPublisher fans out lifecycle events.
type EventPublisher interface {
	PublishDocumentEvent(ctx context.Context, event domain.Event) error
}
