package domain

import "time"

type EventType string

const (
	EventDocumentUploaded EventType = "document.uploaded"
	EventDocumentSigned   EventType = "document.signed"
)

// Event is a best-effort lifecycle notification fanned out to interested
// consumers (UI toasts, audit listeners). Publishing never gates a workflow.
type Event struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}
