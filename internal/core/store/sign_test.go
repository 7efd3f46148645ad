package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
)

func TestSignUploadsLocalRecordFirst(t *testing.T) {
	backend := &fakeBackend{}
	staging := newFakeStaging()
	events := &fakeEvents{}
	st := newTestStore(backend, staging, events)

	local, err := st.AddLocal(context.Background(), pdfFile("draft.pdf"))
	if err != nil {
		t.Fatalf("add local: %v", err)
	}

	signed, err := st.Sign(context.Background(), local.ID, "sig-token")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.Status != domain.StatusSigned {
		t.Fatalf("expected signed status, got %q", signed.Status)
	}
	if signed.SignedDate == nil {
		t.Fatalf("expected signed date set")
	}

	calls := backend.recorded()
	if len(calls) != 2 || !strings.HasPrefix(calls[0], "upload:") || !strings.HasPrefix(calls[1], "sign:") {
		t.Fatalf("expected upload then sign, got %v", calls)
	}
	// The sign call must target the backend-assigned id, not the temp one.
	if strings.TrimPrefix(calls[1], "sign:") == local.ID {
		t.Fatalf("sign used the temporary id %s", local.ID)
	}

	state := st.Snapshot()
	if len(state.Documents) != 1 || state.Documents[0].Status != domain.StatusSigned {
		t.Fatalf("expected one signed record, got %+v", state.Documents)
	}
	if len(staging.removed) != 1 {
		t.Fatalf("staged payload not released: %v", staging.removed)
	}

	published := events.published()
	if len(published) != 2 ||
		published[0].Type != domain.EventDocumentUploaded ||
		published[1].Type != domain.EventDocumentSigned {
		t.Fatalf("expected uploaded then signed events, got %+v", published)
	}
}

func TestSignAlreadySignedMakesNoBackendCall(t *testing.T) {
	signedAt := time.Now().UTC()
	backend := &fakeBackend{listDocs: []domain.Document{
		{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusSigned, SignedDate: &signedAt},
	}}
	st := newTestStore(backend, newFakeStaging(), nil)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	before := len(backend.recorded())

	_, err := st.Sign(context.Background(), "doc-1", "sig-token")
	if !domain.IsKind(err, domain.ErrAlreadySigned) {
		t.Fatalf("expected already-signed error, got %v", err)
	}
	if after := len(backend.recorded()); after != before {
		t.Fatalf("repeated sign must not call the backend: %v", backend.recorded())
	}
}

func TestSignUnknownDocument(t *testing.T) {
	backend := &fakeBackend{}
	st := newTestStore(backend, newFakeStaging(), nil)

	_, err := st.Sign(context.Background(), "missing", "sig-token")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if calls := backend.recorded(); len(calls) != 0 {
		t.Fatalf("no backend call expected, got %v", calls)
	}
	if st.Snapshot().Errors["sign"] == "" {
		t.Fatalf("expected sign error recorded")
	}
}

func TestSignRejectsEmptySignature(t *testing.T) {
	backend := &fakeBackend{listDocs: []domain.Document{
		{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusPending},
	}}
	st := newTestStore(backend, newFakeStaging(), nil)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	_, err := st.Sign(context.Background(), "doc-1", "   ")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, call := range backend.recorded() {
		if strings.HasPrefix(call, "sign:") {
			t.Fatalf("empty signature must not reach the backend: %v", backend.recorded())
		}
	}
}

func TestSignSurfacesRecordGoneAtReconciliation(t *testing.T) {
	backend := &fakeBackend{listDocs: []domain.Document{
		{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusPending},
	}}
	st := newTestStore(backend, newFakeStaging(), nil)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	// The collection is replaced while the sign call is in flight.
	backend.signHook = func() {
		backend.listDocs = nil
		if _, err := st.Fetch(context.Background()); err != nil {
			t.Errorf("concurrent fetch: %v", err)
		}
	}

	_, err := st.Sign(context.Background(), "doc-1", "sig-token")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("vanished record must surface as not found, got %v", err)
	}
	if st.Snapshot().Errors["sign"] == "" {
		t.Fatalf("expected sign error recorded")
	}
}

func TestSignFailsWhenStagedPayloadUnreadable(t *testing.T) {
	backend := &fakeBackend{}
	staging := newFakeStaging()
	st := newTestStore(backend, staging, nil)

	local, err := st.AddLocal(context.Background(), pdfFile("draft.pdf"))
	if err != nil {
		t.Fatalf("add local: %v", err)
	}
	staging.openErr = errors.New("staging volume offline")

	if _, err := st.Sign(context.Background(), local.ID, "sig-token"); err == nil {
		t.Fatalf("expected sign to fail when the staged payload cannot be opened")
	}
	if calls := backend.recorded(); len(calls) != 0 {
		t.Fatalf("unreadable staged payload must fail before any backend call, got %v", calls)
	}

	state := st.Snapshot()
	if state.Errors["sign"] == "" {
		t.Fatalf("expected sign error recorded")
	}
	if len(state.Documents) != 1 || state.Documents[0].Status != domain.StatusLocal {
		t.Fatalf("local record must survive the failed sign, got %+v", state.Documents)
	}
}

func TestSignUsesBackendSignedDate(t *testing.T) {
	signedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	backend := &fakeBackend{
		listDocs:   []domain.Document{{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusViewed}},
		signResult: &domain.SignResult{DocumentID: "doc-1", SignedAt: signedAt},
	}
	st := newTestStore(backend, newFakeStaging(), nil)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	doc, err := st.Sign(context.Background(), "doc-1", "sig-token")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if doc.SignedDate == nil || !doc.SignedDate.Equal(signedAt) {
		t.Fatalf("expected backend signed date %v, got %v", signedAt, doc.SignedDate)
	}
}
