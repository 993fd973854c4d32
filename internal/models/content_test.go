package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_UnmarshalIdentity(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"abc","topic":"Go","contentType":"article"}`), &c))
	assert.Equal(t, "abc", c.ID)
	assert.Equal(t, ContentTypeArticle, c.ContentType)

	var both Content
	require.NoError(t, json.Unmarshal([]byte(`{"id":"primary","_id":"alt"}`), &both))
	assert.Equal(t, "primary", both.ID, "id wins over _id")
}

func TestContent_UnmarshalOptionalFields(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","jobId":"j1","jobStatus":"processing","content":""}`), &c))
	assert.Equal(t, "j1", c.JobIDValue())
	require.NotNil(t, c.JobStatus)
	assert.Equal(t, JobStatusProcessing, *c.JobStatus)
	assert.Nil(t, c.GeneratedContent)
	assert.False(t, c.HasContent(), "empty content counts as no content")
	assert.True(t, c.HasActiveJob())
}

func TestContent_HasActiveJob(t *testing.T) {
	c := &Content{ID: "c1"}
	assert.False(t, c.HasActiveJob())

	c.JobID = StringPtr("j1")
	assert.False(t, c.HasActiveJob(), "no status yet")

	c.JobStatus = StatusPtr(JobStatusQueued)
	assert.True(t, c.HasActiveJob())

	c.JobStatus = StatusPtr(JobStatusFailed)
	assert.False(t, c.HasActiveJob())
}

func TestContent_CloneIsDeep(t *testing.T) {
	orig := &Content{
		ID:               "c1",
		Prompt:           StringPtr("p"),
		JobID:            StringPtr("j1"),
		JobStatus:        StatusPtr(JobStatusPending),
		GeneratedContent: StringPtr("g"),
		Content:          StringPtr("c"),
	}
	cp := orig.Clone()
	require.Equal(t, orig, cp)

	*cp.JobStatus = JobStatusCompleted
	*cp.Content = "edited"
	*cp.JobID = "j2"
	assert.Equal(t, JobStatusPending, *orig.JobStatus)
	assert.Equal(t, "c", *orig.Content)
	assert.Equal(t, "j1", *orig.JobID)

	var nilContent *Content
	assert.Nil(t, nilContent.Clone())
}

func TestContentType_Valid(t *testing.T) {
	for _, ct := range ContentTypes {
		assert.True(t, ct.Valid(), ct)
	}
	assert.False(t, ContentType("poem").Valid())
	assert.False(t, ContentType("").Valid())
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		status   JobStatus
		valid    bool
		terminal bool
	}{
		{JobStatusQueued, true, false},
		{JobStatusPending, true, false},
		{JobStatusProcessing, true, false},
		{JobStatusCompleted, true, true},
		{JobStatusFailed, true, true},
		{JobStatus("cancelled"), false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.Valid())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestJobUpdate_Decode(t *testing.T) {
	var u JobUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"jobId":"j1","status":"completed","generatedContent":"done","seq":3}`), &u))
	assert.Equal(t, "j1", u.JobID)
	assert.Equal(t, "", u.ContentIDValue())
	assert.Equal(t, JobStatusCompleted, *u.Status)
	assert.Equal(t, "done", *u.GeneratedContent)
	assert.Equal(t, uint64(3), u.Seq)
	assert.Nil(t, u.Timestamp)
}
