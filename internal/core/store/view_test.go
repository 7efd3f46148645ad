package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
)

func seedStore(t *testing.T, backend *fakeBackend, docs ...domain.Document) *Store {
	t.Helper()
	backend.listDocs = docs
	st := newTestStore(backend, newFakeStaging(), nil)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	return st
}

func TestViewTransitionsPendingToViewed(t *testing.T) {
	backend := &fakeBackend{viewURL: "https://docs.example.com/doc-1?token=abc"}
	st := seedStore(t, backend, domain.Document{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusPending})

	url, err := st.View(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if url != "https://docs.example.com/doc-1?token=abc" {
		t.Fatalf("unexpected url %q", url)
	}

	state := st.Snapshot()
	if state.Documents[0].Status != domain.StatusViewed {
		t.Fatalf("expected viewed status, got %q", state.Documents[0].Status)
	}
	if state.Documents[0].URL != url {
		t.Fatalf("display url not recorded")
	}
}

func TestViewKeepsSignedStatus(t *testing.T) {
	signedAt := time.Now().UTC()
	backend := &fakeBackend{}
	st := seedStore(t, backend, domain.Document{
		ID: "doc-1", Name: "contract.pdf", Status: domain.StatusSigned, SignedDate: &signedAt,
	})

	if _, err := st.View(context.Background(), "doc-1"); err != nil {
		t.Fatalf("view: %v", err)
	}
	if status := st.Snapshot().Documents[0].Status; status != domain.StatusSigned {
		t.Fatalf("signed status must not regress, got %q", status)
	}
}

func TestViewUnknownDocument(t *testing.T) {
	backend := &fakeBackend{}
	st := newTestStore(backend, newFakeStaging(), nil)

	_, err := st.View(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if calls := backend.recorded(); len(calls) != 0 {
		t.Fatalf("no backend call expected, got %v", calls)
	}
}

func TestViewFailureKeepsStatus(t *testing.T) {
	backend := &fakeBackend{viewErr: errors.New("backend down")}
	st := seedStore(t, backend, domain.Document{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusPending})

	if _, err := st.View(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected view error")
	}
	state := st.Snapshot()
	if state.Documents[0].Status != domain.StatusPending {
		t.Fatalf("status must not change on failure, got %q", state.Documents[0].Status)
	}
	if state.Errors["view"] == "" {
		t.Fatalf("expected view error recorded")
	}
}

func TestDeleteRemovesUploadedRecord(t *testing.T) {
	backend := &fakeBackend{}
	st := seedStore(t, backend, domain.Document{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusPending})

	if err := st.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if docs := st.Snapshot().Documents; len(docs) != 0 {
		t.Fatalf("record not removed: %+v", docs)
	}
	if calls := backend.recorded(); calls[len(calls)-1] != "delete:doc-1" {
		t.Fatalf("expected backend delete call, got %v", calls)
	}
}

func TestDeleteLocalReleasesStagedBytes(t *testing.T) {
	backend := &fakeBackend{}
	staging := newFakeStaging()
	st := newTestStore(backend, staging, nil)

	local, err := st.AddLocal(context.Background(), pdfFile("draft.pdf"))
	if err != nil {
		t.Fatalf("add local: %v", err)
	}

	if err := st.Delete(context.Background(), local.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if calls := backend.recorded(); len(calls) != 0 {
		t.Fatalf("local delete must not call the backend, got %v", calls)
	}
	if len(staging.removed) != 1 {
		t.Fatalf("staged payload not released: %v", staging.removed)
	}
	if docs := st.Snapshot().Documents; len(docs) != 0 {
		t.Fatalf("local record not removed: %+v", docs)
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	st := newTestStore(&fakeBackend{}, newFakeStaging(), nil)

	err := st.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if st.Snapshot().Errors["delete"] == "" {
		t.Fatalf("expected delete error recorded")
	}
}

func TestDeleteBackendFailureKeepsRecord(t *testing.T) {
	backend := &fakeBackend{deleteErr: errors.New("backend down")}
	st := seedStore(t, backend, domain.Document{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusPending})

	if err := st.Delete(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected delete error")
	}
	if docs := st.Snapshot().Documents; len(docs) != 1 {
		t.Fatalf("record must be kept on failure: %+v", docs)
	}
}
