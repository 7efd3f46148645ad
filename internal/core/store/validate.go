package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mvolochek/docsign-gateway/internal/core/domain"
	"github.com/mvolochek/docsign-gateway/internal/core/ports"
)

// DefaultMaxUploadBytes caps a single upload at 10 MiB.
const DefaultMaxUploadBytes = 10 << 20

const (
	mimePDF        = "application/pdf"
	mimeWordLegacy = "application/msword"
	mimeWordOOXML  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeJPEG       = "image/jpeg"
	mimePNG        = "image/png"
)

// allowedUploadTypes maps accepted MIME types to their file extensions.
var allowedUploadTypes = map[string][]string{
	mimePDF:        {".pdf"},
	mimeWordLegacy: {".doc"},
	mimeWordOOXML:  {".docx"},
	mimeJPEG:       {".jpg", ".jpeg"},
	mimePNG:        {".png"},
}

const sniffLen = 3072

// validateFile enforces the upload preconditions before any network call:
// MIME allow-list, size cap, and a content sniff that rejects payloads whose
// bytes do not match the declared type. On success the consumed prefix is
// stitched back in front of the remaining body.
func (s *Store) validateFile(file *ports.FileInput) error {
	if strings.TrimSpace(file.Name) == "" {
		return domain.WrapError(domain.ErrValidation, "validate upload", errors.New("filename is required"))
	}
	if _, ok := allowedUploadTypes[file.MimeType]; !ok {
		return domain.WrapError(domain.ErrValidation, "validate upload",
			fmt.Errorf("unsupported file type %q", file.MimeType))
	}
	if file.Size > s.maxUploadBytes {
		return domain.WrapError(domain.ErrValidation, "validate upload",
			fmt.Errorf("file size %d exceeds limit of %d bytes", file.Size, s.maxUploadBytes))
	}
	if file.Body == nil {
		return domain.WrapError(domain.ErrValidation, "validate upload", errors.New("file payload is required"))
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(file.Body, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read upload payload: %w", err)
	}
	header = header[:n]
	if n == 0 {
		return domain.WrapError(domain.ErrValidation, "validate upload", errors.New("file is empty"))
	}

	detected := mimetype.Detect(header)
	if !contentMatches(file.MimeType, detected) {
		return domain.WrapError(domain.ErrValidation, "validate upload",
			fmt.Errorf("content detected as %s, declared %s", detected.String(), file.MimeType))
	}

	file.Body = io.MultiReader(bytes.NewReader(header), file.Body)
	return nil
}

// contentMatches accepts container-level detections for the Word formats:
// without inspecting the whole archive a .docx payload sniffs as a bare zip
// and a legacy .doc as an OLE compound file.
func contentMatches(declared string, detected *mimetype.MIME) bool {
	if detected.Is(declared) {
		return true
	}
	switch declared {
	case mimeWordLegacy:
		return detected.Is("application/x-ole-storage")
	case mimeWordOOXML:
		return detected.Is("application/zip")
	}
	return false
}
