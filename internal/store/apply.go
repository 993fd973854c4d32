package store

import "github.com/vrsandeep/contentsync-go/internal/models"

// ApplyResult is the outcome of merging a push update.
type ApplyResult int

const (
	// Applied means the update matched a record. Applying the same update
	// again leaves the record unchanged.
	Applied ApplyResult = iota
	// Unmatched means no record matched, e.g. it was deleted or replaced.
	Unmatched
	// Stale means the update carried a sequence number not above the last
	// one applied for its job.
	Stale
)

func (r ApplyResult) String() string {
	switch r {
	case Applied:
		return "applied"
	case Unmatched:
		return "unmatched"
	case Stale:
		return "stale"
	}
	return "unknown"
}

// ApplyJobUpdate merges a push update into the record it targets.
//
// The target is resolved by content id when present, otherwise through the
// job index. Status overwrites unconditionally. Generated content always
// overwrites GeneratedContent but only fills Content while Content is empty,
// so a user's edit is never replaced by a push.
func (s *Store) ApplyJobUpdate(u models.JobUpdate) ApplyResult {
	s.mu.Lock()

	var e *models.Content
	if contentID := u.ContentIDValue(); contentID != "" {
		e = s.entities[contentID]
	} else if id, ok := s.byJob[u.JobID]; ok {
		e = s.entities[id]
	}
	if e == nil {
		s.mu.Unlock()
		return Unmatched
	}

	if u.Seq > 0 {
		if u.Seq <= s.lastSeq[u.JobID] {
			s.mu.Unlock()
			return Stale
		}
		s.lastSeq[u.JobID] = u.Seq
	}

	changed := false
	if u.Status != nil && (e.JobStatus == nil || *e.JobStatus != *u.Status) {
		status := *u.Status
		e.JobStatus = &status
		changed = true
	}
	if u.GeneratedContent != nil {
		if e.GeneratedContent == nil || *e.GeneratedContent != *u.GeneratedContent {
			e.GeneratedContent = models.StringPtr(*u.GeneratedContent)
			changed = true
		}
		if !e.HasContent() && *u.GeneratedContent != "" {
			e.Content = models.StringPtr(*u.GeneratedContent)
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return Applied
}
