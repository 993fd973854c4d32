package devserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vrsandeep/contentsync-go/internal/models"
)

const maxPageLimit = 100

func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Topic       string             `json:"topic"`
		ContentType models.ContentType `json:"contentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	payload.Topic = strings.TrimSpace(payload.Topic)
	if payload.Topic == "" {
		RespondWithError(w, http.StatusBadRequest, "Topic is required")
		return
	}
	if !payload.ContentType.Valid() {
		RespondWithError(w, http.StatusBadRequest, "Invalid content type")
		return
	}

	now := time.Now().UTC()
	c := &models.Content{
		ID:          uuid.NewString(),
		Topic:       payload.Topic,
		ContentType: payload.ContentType,
		Source:      "ai",
		Prompt:      models.StringPtr(prompt(payload.Topic, payload.ContentType)),
		JobID:       models.StringPtr(uuid.NewString()),
		JobStatus:   models.StatusPtr(models.JobStatusQueued),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.contents[c.ID] = c
	s.order = append([]string{c.ID}, s.order...)
	s.jobs[*c.JobID] = c.ID
	out := c.Clone()
	s.mu.Unlock()

	s.startJob(*c.JobID, c.ID)
	RespondWithData(w, http.StatusCreated, map[string]interface{}{"content": out})
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	s.mu.Lock()
	total := len(s.order)
	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := make([]*models.Content, 0, end-start)
	for _, id := range s.order[start:end] {
		items = append(items, s.contents[id].Clone())
	}
	s.mu.Unlock()

	totalPages := (total + limit - 1) / limit
	RespondWithData(w, http.StatusOK, map[string]interface{}{
		"content":    items,
		"total":      total,
		"page":       page,
		"totalPages": totalPages,
	})
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	c, ok := s.get(chi.URLParam(r, "contentID"))
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Content not found")
		return
	}
	RespondWithData(w, http.StatusOK, map[string]interface{}{"content": c})
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Topic   *string `json:"topic"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Topic == nil && payload.Content == nil {
		RespondWithError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	if payload.Topic != nil && strings.TrimSpace(*payload.Topic) == "" {
		RespondWithError(w, http.StatusBadRequest, "Topic cannot be empty")
		return
	}

	id := chi.URLParam(r, "contentID")
	s.mu.Lock()
	c, ok := s.contents[id]
	if !ok {
		s.mu.Unlock()
		RespondWithError(w, http.StatusNotFound, "Content not found")
		return
	}
	if payload.Topic != nil {
		c.Topic = strings.TrimSpace(*payload.Topic)
	}
	if payload.Content != nil {
		c.Content = models.StringPtr(*payload.Content)
	}
	c.UpdatedAt = time.Now().UTC()
	out := c.Clone()
	s.mu.Unlock()

	RespondWithData(w, http.StatusOK, map[string]interface{}{"content": out})
}

func (s *Server) handleRollbackContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contentID")
	s.mu.Lock()
	c, ok := s.contents[id]
	if !ok {
		s.mu.Unlock()
		RespondWithError(w, http.StatusNotFound, "Content not found")
		return
	}
	if c.GeneratedContent == nil || *c.GeneratedContent == "" {
		s.mu.Unlock()
		RespondWithError(w, http.StatusBadRequest, "No generated content to roll back to")
		return
	}
	c.Content = models.StringPtr(*c.GeneratedContent)
	c.UpdatedAt = time.Now().UTC()
	out := c.Clone()
	s.mu.Unlock()

	RespondWithData(w, http.StatusOK, map[string]interface{}{"content": out})
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contentID")
	s.mu.Lock()
	c, ok := s.contents[id]
	if !ok {
		s.mu.Unlock()
		RespondWithError(w, http.StatusNotFound, "Content not found")
		return
	}
	delete(s.contents, id)
	if jobID := c.JobIDValue(); jobID != "" {
		delete(s.jobs, jobID)
	}
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Content deleted"})
}

func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.mu.Lock()
	var out *models.Content
	if id, ok := s.jobs[jobID]; ok {
		out = s.contents[id].Clone()
	}
	s.mu.Unlock()

	if out == nil {
		RespondWithError(w, http.StatusNotFound, "Job not found")
		return
	}
	RespondWithData(w, http.StatusOK, map[string]interface{}{"content": out})
}

func (s *Server) get(id string) (*models.Content, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}
