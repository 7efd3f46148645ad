// Package docstore is the HTTP client for the external document backend.
// It is the only component performing network I/O and keeps no mutable
// state between calls.
package docstore

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
	"github.com/mvolochek/docsign-gateway/internal/core/ports"
	"github.com/mvolochek/docsign-gateway/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	guard      *resilience.Guard
}

// New builds a client for the backend REST API. The guard may be nil to run
// without circuit breaking.
func New(baseURL string, timeout time.Duration, guard *resilience.Guard) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		guard:      guard,
	}
}

func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	err := c.guarded(ctx, "documents.list", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, "/documents", nil, &docs, "list")
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) UploadDocument(ctx context.Context, req ports.UploadRequest, progress chan<- int) (*domain.Document, error) {
	// Closing here guarantees no progress event outlives the upload,
	// whichever way it terminated.
	defer func() {
		if progress != nil {
			close(progress)
		}
	}()

	var doc domain.Document
	err := c.guarded(ctx, "documents.upload", func(ctx context.Context) error {
		return c.postMultipart(ctx, "/documents/upload", req, progress, &doc, "upload")
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) SignDocument(ctx context.Context, documentID, signature string) (*domain.SignResult, error) {
	payload := map[string]string{"signature": signature}
	var doc domain.Document
	err := c.guarded(ctx, "documents.sign", func(ctx context.Context) error {
		path := "/documents/" + url.PathEscape(documentID) + "/sign"
		return c.doJSON(ctx, http.MethodPost, path, payload, &doc, "sign")
	})
	if err != nil {
		return nil, notFoundIf404("sign document", err)
	}

	result := domain.SignResult{DocumentID: doc.ID}
	if result.DocumentID == "" {
		result.DocumentID = documentID
	}
	if doc.SignedDate != nil {
		result.SignedAt = *doc.SignedDate
	} else {
		result.SignedAt = time.Now().UTC()
	}
	return &result, nil
}

func (c *Client) ViewDocument(ctx context.Context, documentID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.guarded(ctx, "documents.view", func(ctx context.Context) error {
		path := "/documents/" + url.PathEscape(documentID) + "/view"
		return c.doJSON(ctx, http.MethodPost, path, nil, &out, "view")
	})
	if err != nil {
		return "", notFoundIf404("view document", err)
	}
	return out.URL, nil
}

func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	err := c.guarded(ctx, "documents.delete", func(ctx context.Context) error {
		path := "/documents/" + url.PathEscape(documentID)
		return c.doJSON(ctx, http.MethodDelete, path, nil, nil, "delete")
	})
	if err != nil {
		return notFoundIf404("delete document", err)
	}
	return nil
}

func (c *Client) guarded(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if c.guard != nil {
		err = c.guard.Do(ctx, operation, fn, classifyBackendError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
