package store

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
	"github.com/mvolochek/docsign-gateway/internal/core/ports"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	listDocs []domain.Document
	listErr  error

	uploadDoc      *domain.Document
	uploadErr      error
	uploadPercents []int
	uploadHook     func(req ports.UploadRequest)
	uploadFn       func(req ports.UploadRequest) (*domain.Document, error)

	signResult *domain.SignResult
	signErr    error
	signHook   func()

	viewURL string
	viewErr error

	deleteErr error
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) ListDocuments(context.Context) ([]domain.Document, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Document, len(f.listDocs))
	copy(out, f.listDocs)
	return out, nil
}

func (f *fakeBackend) UploadDocument(_ context.Context, req ports.UploadRequest, progress chan<- int) (*domain.Document, error) {
	f.record("upload:" + req.Filename)
	defer func() {
		if progress != nil {
			close(progress)
		}
	}()

	if req.Body != nil {
		_, _ = io.Copy(io.Discard, req.Body)
	}
	if f.uploadHook != nil {
		f.uploadHook(req)
	}
	if progress != nil {
		for _, percent := range f.uploadPercents {
			progress <- percent
		}
	}
	if f.uploadFn != nil {
		return f.uploadFn(req)
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadDoc != nil {
		doc := *f.uploadDoc
		return &doc, nil
	}
	return &domain.Document{
		ID:         "srv-" + req.Filename,
		Name:       req.Filename,
		Size:       req.Size,
		MimeType:   req.MimeType,
		UploadDate: time.Now().UTC(),
		Status:     domain.StatusPending,
	}, nil
}

func (f *fakeBackend) SignDocument(_ context.Context, documentID, _ string) (*domain.SignResult, error) {
	f.record("sign:" + documentID)
	if f.signHook != nil {
		f.signHook()
	}
	if f.signErr != nil {
		return nil, f.signErr
	}
	if f.signResult != nil {
		result := *f.signResult
		return &result, nil
	}
	return &domain.SignResult{DocumentID: documentID, SignedAt: time.Now().UTC()}, nil
}

func (f *fakeBackend) ViewDocument(_ context.Context, documentID string) (string, error) {
	f.record("view:" + documentID)
	if f.viewErr != nil {
		return "", f.viewErr
	}
	if f.viewURL != "" {
		return f.viewURL, nil
	}
	return "https://docs.example.com/" + documentID, nil
}

func (f *fakeBackend) DeleteDocument(_ context.Context, documentID string) error {
	f.record("delete:" + documentID)
	return f.deleteErr
}

type fakeStaging struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saveErr error
	openErr error
	removed []string
}

func newFakeStaging() *fakeStaging {
	return &fakeStaging{blobs: make(map[string][]byte)}
}

func (f *fakeStaging) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = raw
	return nil
}

func (f *fakeStaging) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	raw, ok := f.blobs[key]
	f.mu.Unlock()
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *fakeStaging) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	f.removed = append(f.removed, key)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (f *fakeEvents) PublishDocumentEvent(_ context.Context, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) published() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Event, len(f.events))
	copy(out, f.events)
	return out
}

func newTestStore(backend ports.BackendClient, staging ports.StagingStore, events ports.EventPublisher) *Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(backend, staging, events, logger, 0)
}

func pdfFile(name string) ports.FileInput {
	payload := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	return ports.FileInput{
		Name:     name,
		MimeType: "application/pdf",
		Size:     int64(len(payload)),
		Body:     bytes.NewReader(payload),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}
