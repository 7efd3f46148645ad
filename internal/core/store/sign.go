package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
	"github.com/mvolochek/docsign-gateway/internal/core/ports"
)

// Sign signs a document with the given signature token. A local record is
// uploaded first: the local entry is removed and replaced by the uploaded
// record before the sign call goes out. Signing an already signed record
// performs no transport call. A record that disappears between the sign
// call and reconciliation surfaces as a not-found error rather than being
// silently dropped.
func (s *Store) Sign(ctx context.Context, documentID, signature string) (*domain.Document, error) {
	if strings.TrimSpace(signature) == "" {
		err := domain.WrapError(domain.ErrValidation, "sign document", errors.New("signature is required"))
		s.setWorkflowErr(workflowSign, err)
		return nil, err
	}

	s.mu.Lock()
	var localDoc *domain.Document
	switch {
	case indexByID(s.files, documentID) >= 0:
		idx := indexByID(s.files, documentID)
		if s.files[idx].Status == domain.StatusSigned {
			s.mu.Unlock()
			return nil, domain.WrapError(domain.ErrAlreadySigned, "sign document",
				fmt.Errorf("document %s", documentID))
		}
	case indexByID(s.local, documentID) >= 0:
		doc := s.local[indexByID(s.local, documentID)]
		localDoc = &doc
	default:
		err := domain.WrapError(domain.ErrNotFound, "sign document", fmt.Errorf("document %s", documentID))
		s.errs[workflowSign] = err.Error()
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	targetID := documentID
	if localDoc != nil {
		uploaded, err := s.uploadStaged(ctx, *localDoc)
		if err != nil {
			s.setWorkflowErr(workflowSign, err)
			return nil, err
		}
		targetID = uploaded.ID
	}

	result, err := s.backend.SignDocument(ctx, targetID, signature)
	if err != nil {
		wrapped := fmt.Errorf("sign document: %w", err)
		s.setWorkflowErr(workflowSign, wrapped)
		return nil, wrapped
	}

	signedAt := result.SignedAt
	if signedAt.IsZero() {
		signedAt = s.now().UTC()
	}

	s.mu.Lock()
	idx := indexByID(s.files, targetID)
	if idx < 0 {
		err := domain.WrapError(domain.ErrNotFound, "reconcile signature", fmt.Errorf("document %s", targetID))
		s.errs[workflowSign] = err.Error()
		s.mu.Unlock()
		return nil, err
	}
	if s.files[idx].Status != domain.StatusSigned {
		s.files[idx].Status = domain.StatusSigned
		s.files[idx].SignedDate = &signedAt
	}
	delete(s.errs, workflowSign)
	out := cloneDocument(s.files[idx])
	s.mu.Unlock()

	s.publishEvent(ctx, domain.EventDocumentSigned, &out)
	return &out, nil
}

// uploadStaged uploads the payload of a local record, keyed by its existing
// temporary id so the UI keeps tracking the same progress entry, then drops
// the local record and its staged bytes.
func (s *Store) uploadStaged(ctx context.Context, localDoc domain.Document) (*domain.Document, error) {
	body, err := s.staging.Open(ctx, localDoc.StagingKey)
	if err != nil {
		return nil, fmt.Errorf("open staged payload: %w", err)
	}
	defer body.Close()

	uploaded, err := s.performUpload(ctx, localDoc.ID, ports.FileInput{
		Name:     localDoc.Name,
		MimeType: localDoc.MimeType,
		Size:     localDoc.Size,
		Body:     body,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if idx := indexByID(s.local, localDoc.ID); idx >= 0 {
		s.local = append(s.local[:idx], s.local[idx+1:]...)
	}
	s.mu.Unlock()

	if err := s.staging.Remove(ctx, localDoc.StagingKey); err != nil {
		s.logger.Warn("remove staged payload", "key", localDoc.StagingKey, "error", err)
	}
	return uploaded, nil
}
