package store

import (
	"context"
	"fmt"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
)

// View resolves a short-lived display URL for an uploaded record. A pending
// record transitions to viewed; viewed and signed records keep their status.
// Local records have no server-side representation to view.
func (s *Store) View(ctx context.Context, documentID string) (string, error) {
	s.mu.Lock()
	if indexByID(s.files, documentID) < 0 {
		err := domain.WrapError(domain.ErrNotFound, "view document", fmt.Errorf("document %s", documentID))
		s.errs[workflowView] = err.Error()
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	url, err := s.backend.ViewDocument(ctx, documentID)
	if err != nil {
		wrapped := fmt.Errorf("view document: %w", err)
		s.setWorkflowErr(workflowView, wrapped)
		return "", wrapped
	}

	s.mu.Lock()
	if idx := indexByID(s.files, documentID); idx >= 0 {
		s.files[idx].URL = url
		if s.files[idx].Status == domain.StatusPending &&
			domain.CanTransition(s.files[idx].Status, domain.StatusViewed) {
			s.files[idx].Status = domain.StatusViewed
		}
	}
	delete(s.errs, workflowView)
	s.mu.Unlock()

	return url, nil
}

// Delete removes a document. Local records only release their staged bytes;
// uploaded records are deleted on the backend first and removed from the
// collection on success.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	if idx := indexByID(s.local, documentID); idx >= 0 {
		doc := s.local[idx]
		s.local = append(s.local[:idx], s.local[idx+1:]...)
		delete(s.errs, workflowDelete)
		s.mu.Unlock()
		if err := s.staging.Remove(ctx, doc.StagingKey); err != nil {
			s.logger.Warn("remove staged payload", "key", doc.StagingKey, "error", err)
		}
		return nil
	}
	if indexByID(s.files, documentID) < 0 {
		err := domain.WrapError(domain.ErrNotFound, "delete document", fmt.Errorf("document %s", documentID))
		s.errs[workflowDelete] = err.Error()
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if err := s.backend.DeleteDocument(ctx, documentID); err != nil {
		wrapped := fmt.Errorf("delete document: %w", err)
		s.setWorkflowErr(workflowDelete, wrapped)
		return wrapped
	}

	s.mu.Lock()
	if idx := indexByID(s.files, documentID); idx >= 0 {
		s.files = append(s.files[:idx], s.files[idx+1:]...)
	}
	delete(s.errs, workflowDelete)
	s.mu.Unlock()
	return nil
}
