package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
	"github.com/mvolochek/docsign-gateway/internal/core/ports"
	"github.com/mvolochek/docsign-gateway/internal/observability/metrics"
)

type Router struct {
	lifecycle      ports.DocumentLifecycle
	metrics        *metrics.ServerMetrics
	logger         *slog.Logger
	service        string
	maxUploadBytes int64
}

// TrafficConfig tunes the admission middleware in front of the route table.
// Zero values disable the corresponding gate.
type TrafficConfig struct {
	RateLimitRPS     int
	RateLimitBurst   int
	MaxConcurrency   int
	BackpressureWait time.Duration
}

func NewRouter(lifecycle ports.DocumentLifecycle, serverMetrics *metrics.ServerMetrics, logger *slog.Logger, service string, maxUploadBytes int64) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		lifecycle:      lifecycle,
		metrics:        serverMetrics,
		logger:         logger,
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

func (rt *Router) Handler(traffic TrafficConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/state", rt.getState)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/local", rt.stageLocalDocument)
	mux.HandleFunc("/v1/documents/", rt.documentByID)

	var handler http.Handler = mux
	if traffic.MaxConcurrency > 0 {
		handler = backpressureMiddleware(handler, traffic.MaxConcurrency, traffic.BackpressureWait)
	}
	if traffic.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, traffic.RateLimitRPS, traffic.RateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.logger, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) getState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeData(w, http.StatusOK, rt.lifecycle.Snapshot())
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.fetchDocuments(w, r)
	case http.MethodPost:
		rt.uploadDocument(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) fetchDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.lifecycle.Fetch(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, docs)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, closeFile, ok := rt.readFilePart(w, r)
	if !ok {
		return
	}
	defer closeFile()

	doc, err := rt.lifecycle.Upload(r.Context(), file)
	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, outcomeFor(err), file.Size)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, doc)
}

func (rt *Router) stageLocalDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	file, closeFile, ok := rt.readFilePart(w, r)
	if !ok {
		return
	}
	defer closeFile()

	doc, err := rt.lifecycle.AddLocal(r.Context(), file)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, doc)
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		rt.deleteDocument(w, r, id)
	case action == "sign" && r.Method == http.MethodPost:
		rt.signDocument(w, r, id)
	case action == "view" && r.Method == http.MethodPost:
		rt.viewDocument(w, r, id)
	case action == "sign" || action == "view" || action == "":
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(w, http.StatusNotFound, "unknown document action")
	}
}

func (rt *Router) signDocument(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Signature string `json:"signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	doc, err := rt.lifecycle.Sign(r.Context(), id, req.Signature)
	if rt.metrics != nil {
		rt.metrics.RecordSignature(rt.service, outcomeFor(err))
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, doc)
}

func (rt *Router) viewDocument(w http.ResponseWriter, r *http.Request, id string) {
	url, err := rt.lifecycle.View(r.Context(), id)
	if rt.metrics != nil {
		rt.metrics.RecordView(rt.service, outcomeFor(err))
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"url": url})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	err := rt.lifecycle.Delete(r.Context(), id)
	if rt.metrics != nil {
		rt.metrics.RecordDelete(rt.service, outcomeFor(err))
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id, "deleted": "true"})
}

// readFilePart extracts the multipart "file" field and reports the request
// as failed itself when the field is absent.
func (rt *Router) readFilePart(w http.ResponseWriter, r *http.Request) (ports.FileInput, func(), bool) {
	if rt.maxUploadBytes > 0 {
		// Allow multipart framing overhead on top of the payload cap.
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes+1<<20)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return ports.FileInput{}, nil, false
	}

	input := ports.FileInput{
		Name:     fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Body:     file,
	}
	return input, func() { _ = file.Close() }, true
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsKind(err, domain.ErrValidation),
		domain.IsKind(err, domain.ErrNotFound),
		domain.IsKind(err, domain.ErrAlreadySigned):
		return "rejected"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, mapErrorToHTTPStatus(err), err.Error())
}
