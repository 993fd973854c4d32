package devserver

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vrsandeep/contentsync-go/internal/models"
)

// Topics containing this marker make the simulated job fail.
const failMarker = "[fail]"

var jobSteps = []models.JobStatus{
	models.JobStatusPending,
	models.JobStatusProcessing,
}

// startJob runs a simulated generation job in the background.
func (s *Server) startJob(jobID, contentID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, status := range jobSteps {
			if !s.sleep() || !s.advance(jobID, contentID, status, nil) {
				return
			}
		}
		if !s.sleep() {
			return
		}

		c, ok := s.get(contentID)
		if !ok {
			return
		}
		if strings.Contains(strings.ToLower(c.Topic), failMarker) {
			s.advance(jobID, contentID, models.JobStatusFailed, nil)
			return
		}
		text := generate(c.Topic, c.ContentType)
		s.advance(jobID, contentID, models.JobStatusCompleted, &text)
	}()
}

func (s *Server) sleep() bool {
	select {
	case <-time.After(s.stepDelay):
		return true
	case <-s.ctx.Done():
		return false
	}
}

// advance updates the record and publishes the change. It reports false
// when the record is gone.
func (s *Server) advance(jobID, contentID string, status models.JobStatus, generated *string) bool {
	s.mu.Lock()
	c, ok := s.contents[contentID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	c.JobStatus = models.StatusPtr(status)
	if generated != nil {
		c.GeneratedContent = models.StringPtr(*generated)
		if !c.HasContent() {
			c.Content = models.StringPtr(*generated)
		}
	}
	c.UpdatedAt = time.Now().UTC()
	s.seq[jobID]++
	now := c.UpdatedAt
	update := models.JobUpdate{
		JobID:            jobID,
		ContentID:        models.StringPtr(contentID),
		Status:           models.StatusPtr(status),
		GeneratedContent: generated,
		Timestamp:        &now,
		Seq:              s.seq[jobID],
	}
	s.mu.Unlock()

	if err := s.hub.Publish(update); err != nil {
		log.Printf("Warning: could not publish update for job %s: %v", jobID, err)
	}
	return true
}

func prompt(topic string, contentType models.ContentType) string {
	kind := strings.ReplaceAll(string(contentType), "_", " ")
	return fmt.Sprintf("Write a %s about: %s", kind, topic)
}

func generate(topic string, contentType models.ContentType) string {
	switch contentType {
	case models.ContentTypeBlogPostOutline:
		return fmt.Sprintf("# %s\n\n1. Introduction\n2. Background\n3. Key ideas\n4. Conclusion", topic)
	case models.ContentTypeProductDescription:
		return fmt.Sprintf("Meet %s: built to last and made for everyday use.", topic)
	case models.ContentTypeSocialMediaCaption:
		return fmt.Sprintf("Thinking about %s today. What do you think? #%s", topic, strings.ReplaceAll(topic, " ", ""))
	case models.ContentTypeEmail:
		return fmt.Sprintf("Subject: %s\n\nHi,\n\nA quick note about %s.\n\nBest regards", topic, topic)
	default:
		return fmt.Sprintf("%s\n\nThis article takes a closer look at %s.", topic, topic)
	}
}
