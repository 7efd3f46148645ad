package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
	"github.com/mvolochek/docsign-gateway/internal/core/ports"
)

// Upload validates the file and streams it to the backend, tracking progress
// under a temporary id. The returned record carries the backend-assigned id.
// Concurrent uploads are independent; one failing does not affect others.
func (s *Store) Upload(ctx context.Context, file ports.FileInput) (*domain.Document, error) {
	if err := s.validateFile(&file); err != nil {
		s.setWorkflowErr(workflowUpload, err)
		return nil, err
	}
	return s.performUpload(ctx, uuid.NewString(), file)
}

// AddLocal stages a dropped file without uploading it, inserting a local
// record that a later sign intent will upload first. Validation rules are
// identical to Upload so a file rejected for upload is never staged either.
func (s *Store) AddLocal(ctx context.Context, file ports.FileInput) (*domain.Document, error) {
	if err := s.validateFile(&file); err != nil {
		s.setWorkflowErr(workflowUpload, err)
		return nil, err
	}

	id := uuid.NewString()
	key := id + "_" + sanitizeFilename(file.Name)
	if err := s.staging.Save(ctx, key, file.Body); err != nil {
		wrapped := fmt.Errorf("stage local document: %w", err)
		s.setWorkflowErr(workflowUpload, wrapped)
		return nil, wrapped
	}

	doc := domain.Document{
		ID:         id,
		Name:       file.Name,
		Size:       file.Size,
		MimeType:   file.MimeType,
		UploadDate: s.now().UTC(),
		Status:     domain.StatusLocal,
		StagingKey: key,
	}

	s.mu.Lock()
	s.local = append(s.local, doc)
	delete(s.errs, workflowUpload)
	s.mu.Unlock()

	out := doc
	return &out, nil
}

// performUpload runs the shared upload sub-procedure: progress entry
// lifecycle, transport call, and appending the returned record. The progress
// entry never outlives the upload.
func (s *Store) performUpload(ctx context.Context, fileID string, file ports.FileInput) (*domain.Document, error) {
	s.beginProgress(fileID)

	progressCh := make(chan int, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for percent := range progressCh {
			s.updateProgress(fileID, percent)
		}
	}()

	doc, err := s.backend.UploadDocument(ctx, ports.UploadRequest{
		Filename: file.Name,
		MimeType: file.MimeType,
		Size:     file.Size,
		Body:     file.Body,
	}, progressCh)

	<-drained
	s.endProgress(fileID)

	if err != nil {
		wrapped := fmt.Errorf("upload document: %w", err)
		s.setWorkflowErr(workflowUpload, wrapped)
		return nil, wrapped
	}

	stored := cloneDocument(*doc)
	if stored.Status == "" {
		stored.Status = domain.StatusPending
	}

	s.mu.Lock()
	s.files = append(s.files, stored)
	delete(s.errs, workflowUpload)
	s.mu.Unlock()

	out := cloneDocument(stored)
	s.publishEvent(ctx, domain.EventDocumentUploaded, &out)
	return &out, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
