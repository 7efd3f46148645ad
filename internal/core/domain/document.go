package domain

import "time"

type Status string

const (
	// StatusLocal marks a document selected in the UI but not yet uploaded.
	StatusLocal Status = "local"
	// StatusPending marks an uploaded document awaiting viewing or signing.
	StatusPending Status = "pending"
	StatusViewed  Status = "viewed"
	// StatusSigned is terminal; no operation mutates a signed document.
	StatusSigned Status = "signed"
)

// statusRank orders the lifecycle. Transitions only ever move forward.
var statusRank = map[Status]int{
	StatusLocal:   0,
	StatusPending: 1,
	StatusViewed:  2,
	StatusSigned:  3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether a document may move from one status to
// another. The lifecycle is strictly monotonic: local -> pending -> viewed
// -> signed. A backward or same-status move is never a valid transition.
func CanTransition(from, to Status) bool {
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// Document is the canonical record of one uploaded or pending document and
// its signature lifecycle. JSON field names follow the backend contract.
type Document struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Size       int64      `json:"size"`
	MimeType   string     `json:"type"`
	UploadDate time.Time  `json:"uploadDate"`
	Status     Status     `json:"status"`
	SignedDate *time.Time `json:"signedDate,omitempty"`
	URL        string     `json:"url,omitempty"`

	// StagingKey locates the raw payload of a local-only document in the
	// staging store. Empty once the document has been uploaded.
	StagingKey string `json:"-"`
}

type ProgressStatus string

const (
	ProgressUploading ProgressStatus = "uploading"
	ProgressCompleted ProgressStatus = "completed"
	ProgressError     ProgressStatus = "error"
)

// UploadProgress tracks one in-flight upload. Entries are ephemeral: created
// when the upload begins and removed when it terminates either way.
type UploadProgress struct {
	FileID  string         `json:"fileId"`
	Percent int            `json:"progress"`
	Status  ProgressStatus `json:"status"`
}

// SignResult is the transport-level outcome of a sign operation.
type SignResult struct {
	DocumentID string    `json:"documentId"`
	SignedAt   time.Time `json:"signedAt"`
}

// State is the read model observed by the presentation boundary.
type State struct {
	Documents []Document        `json:"documents"`
	Uploads   []UploadProgress  `json:"uploads"`
	IsLoading bool              `json:"is_loading"`
	Errors    map[string]string `json:"errors,omitempty"`
}
