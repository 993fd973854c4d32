package models

import "time"

// JobStatus is the lifecycle state of a server-side generation job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition is expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// StatusPtr returns a pointer to s.
func StatusPtr(s JobStatus) *JobStatus {
	return &s
}

// JobUpdate is a push notification about a job's progress.
// Every field but JobID is optional; absent fields leave the record untouched.
type JobUpdate struct {
	JobID            string     `json:"jobId"`
	ContentID        *string    `json:"contentId,omitempty"`
	Status           *JobStatus `json:"status,omitempty"`
	GeneratedContent *string    `json:"generatedContent,omitempty"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
	// Seq is a per-job sequence number. Zero means the sender does not
	// number its updates and ordering is not enforced.
	Seq uint64 `json:"seq,omitempty"`
}

// ContentIDValue returns the target content id, or "" when absent.
func (u JobUpdate) ContentIDValue() string {
	if u.ContentID == nil {
		return ""
	}
	return *u.ContentID
}
