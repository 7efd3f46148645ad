// Package store implements the document lifecycle store: the single owner
// of the document collection and the upload progress map. Workflows follow
// the same shape everywhere: validate, call the backend outside the lock,
// reconcile the result under the lock, and either fully apply the success
// effects or leave the prior state untouched.
package store

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
	"github.com/mvolochek/docsign-gateway/internal/core/ports"
)

// Workflow categories for the single current-error value each one keeps.
const (
	workflowFetch  = "fetch"
	workflowUpload = "upload"
	workflowSign   = "sign"
	workflowView   = "view"
	workflowDelete = "delete"
)

type Store struct {
	backend ports.BackendClient
	staging ports.StagingStore
	events  ports.EventPublisher
	logger  *slog.Logger
	now     func() time.Time

	maxUploadBytes int64

	mu        sync.Mutex
	files     []domain.Document
	local     []domain.Document
	progress  map[string]domain.UploadProgress
	isLoading bool
	errs      map[string]string
}

// New builds a lifecycle store. The event publisher may be nil, which
// disables lifecycle notifications. maxUploadBytes <= 0 selects the default
// 10 MiB cap.
func New(
	backend ports.BackendClient,
	staging ports.StagingStore,
	events ports.EventPublisher,
	logger *slog.Logger,
	maxUploadBytes int64,
) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Store{
		backend:        backend,
		staging:        staging,
		events:         events,
		logger:         logger,
		now:            time.Now,
		maxUploadBytes: maxUploadBytes,
		progress:       make(map[string]domain.UploadProgress),
		errs:           make(map[string]string),
	}
}

// Snapshot returns a copy of the observable state: uploaded records followed
// by local-only records, in-flight uploads, the loading flag, and the current
// error per workflow category.
func (s *Store) Snapshot() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.State{IsLoading: s.isLoading}
	state.Documents = make([]domain.Document, 0, len(s.files)+len(s.local))
	for _, doc := range s.files {
		state.Documents = append(state.Documents, cloneDocument(doc))
	}
	for _, doc := range s.local {
		state.Documents = append(state.Documents, cloneDocument(doc))
	}

	state.Uploads = make([]domain.UploadProgress, 0, len(s.progress))
	for _, entry := range s.progress {
		state.Uploads = append(state.Uploads, entry)
	}
	slices.SortFunc(state.Uploads, func(a, b domain.UploadProgress) int {
		return cmpString(a.FileID, b.FileID)
	})

	if len(s.errs) > 0 {
		state.Errors = maps.Clone(s.errs)
	}
	return state
}

func (s *Store) setWorkflowErr(workflow string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[workflow] = err.Error()
}

func (s *Store) publishEvent(ctx context.Context, eventType domain.EventType, doc *domain.Document) {
	if s.events == nil {
		return
	}
	event := domain.Event{
		Type:       eventType,
		DocumentID: doc.ID,
		Name:       doc.Name,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishDocumentEvent(ctx, event); err != nil {
		s.logger.Warn("publish lifecycle event",
			"type", string(eventType),
			"document_id", doc.ID,
			"error", err,
		)
	}
}

func indexByID(docs []domain.Document, id string) int {
	for i := range docs {
		if docs[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneDocument(doc domain.Document) domain.Document {
	out := doc
	if doc.SignedDate != nil {
		signed := *doc.SignedDate
		out.SignedDate = &signed
	}
	return out
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
