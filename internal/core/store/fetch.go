package store

import (
	"context"
	"fmt"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
)

// Fetch reloads the document collection from the backend. On success the
// whole collection is replaced; on failure the previous collection is kept
// and the error surfaced. Never retried automatically.
func (s *Store) Fetch(ctx context.Context) ([]domain.Document, error) {
	s.mu.Lock()
	s.isLoading = true
	delete(s.errs, workflowFetch)
	s.mu.Unlock()

	docs, err := s.backend.ListDocuments(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false
	if err != nil {
		s.errs[workflowFetch] = err.Error()
		return nil, fmt.Errorf("list documents: %w", err)
	}

	s.files = make([]domain.Document, len(docs))
	copy(s.files, docs)

	out := make([]domain.Document, 0, len(s.files))
	for _, doc := range s.files {
		out = append(out, cloneDocument(doc))
	}
	return out, nil
}
