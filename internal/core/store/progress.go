package store

import "github.com/mvolochek/docsign-gateway/internal/core/domain"

// beginProgress registers a fresh tracking entry for an upload. At most one
// entry exists per file id; starting again resets it.
func (s *Store) beginProgress(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[fileID] = domain.UploadProgress{
		FileID: fileID,
		Status: domain.ProgressUploading,
	}
}

// updateProgress applies a progress percentage to a live entry. Updates for
// removed entries are dropped (late events after termination), and a value
// lower than the recorded one is discarded to keep progress non-decreasing
// under reordered delivery.
func (s *Store) updateProgress(fileID string, percent int) {
	if percent < 0 {
		return
	}
	if percent > 100 {
		percent = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.progress[fileID]
	if !ok {
		return
	}
	if percent < entry.Percent {
		return
	}
	entry.Percent = percent
	s.progress[fileID] = entry
}

// endProgress removes the entry once its upload terminates. Idempotent.
func (s *Store) endProgress(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, fileID)
}
