// This file defines the content records the client displays and edits.
// A record may be associated with at most one AI generation job.

package models

import (
	"encoding/json"
	"time"
)

// ContentType is the kind of text a record holds.
type ContentType string

const (
	ContentTypeBlogPostOutline    ContentType = "blog_post_outline"
	ContentTypeProductDescription ContentType = "product_description"
	ContentTypeSocialMediaCaption ContentType = "social_media_caption"
	ContentTypeArticle            ContentType = "article"
	ContentTypeEmail              ContentType = "email"
)

// ContentTypes lists every supported content type, in display order.
var ContentTypes = []ContentType{
	ContentTypeBlogPostOutline,
	ContentTypeProductDescription,
	ContentTypeSocialMediaCaption,
	ContentTypeArticle,
	ContentTypeEmail,
}

// Valid reports whether t is one of the supported content types.
func (t ContentType) Valid() bool {
	for _, ct := range ContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// Content is a single persisted record.
type Content struct {
	ID               string      `json:"id"`
	Topic            string      `json:"topic"`
	ContentType      ContentType `json:"contentType"`
	Source           string      `json:"source,omitempty"` // "ai" or "manual"
	Prompt           *string     `json:"prompt,omitempty"`
	JobID            *string     `json:"jobId,omitempty"`     // Set only while a generation job is associated
	JobStatus        *JobStatus  `json:"jobStatus,omitempty"` // Nil when no job is associated
	GeneratedContent *string     `json:"generatedContent,omitempty"`
	Content          *string     `json:"content,omitempty"` // The authoritative display/edit value
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// UnmarshalJSON accepts either "id" or "_id" as the record identity.
func (c *Content) UnmarshalJSON(data []byte) error {
	type plain Content
	aux := struct {
		*plain
		AltID string `json:"_id"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.AltID
	}
	return nil
}

// HasContent reports whether the record holds a non-empty edit value.
func (c *Content) HasContent() bool {
	return c.Content != nil && *c.Content != ""
}

// JobIDValue returns the associated job id, or "" when there is none.
func (c *Content) JobIDValue() string {
	if c.JobID == nil {
		return ""
	}
	return *c.JobID
}

// HasActiveJob reports whether the record has a job that has not yet
// reached a terminal status.
func (c *Content) HasActiveJob() bool {
	return c.JobIDValue() != "" && c.JobStatus != nil && !c.JobStatus.IsTerminal()
}

// Clone returns a deep copy, so callers never share pointers with the store.
func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Prompt = cloneString(c.Prompt)
	cp.JobID = cloneString(c.JobID)
	cp.GeneratedContent = cloneString(c.GeneratedContent)
	cp.Content = cloneString(c.Content)
	if c.JobStatus != nil {
		s := *c.JobStatus
		cp.JobStatus = &s
	}
	return &cp
}

// Pagination describes one page of a content listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
