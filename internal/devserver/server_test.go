package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/pushserver"
)

func setupServer(t *testing.T, token string) *Server {
	t.Helper()
	hub := pushserver.NewHub()
	go hub.Run()
	s := NewServer(hub, Options{Token: token, StepDelay: 5 * time.Millisecond, Quiet: true})
	t.Cleanup(func() {
		s.Close()
		hub.Stop()
	})
	return s
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	var resp response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr, resp
}

func decodeContent(t *testing.T, data json.RawMessage) *models.Content {
	t.Helper()
	var d struct {
		Content *models.Content `json:"content"`
	}
	require.NoError(t, json.Unmarshal(data, &d))
	require.NotNil(t, d.Content)
	return d.Content
}

func TestCreateRunsJobToCompletion(t *testing.T) {
	s := setupServer(t, "")

	rr, resp := call(t, s, http.MethodPost, "/api/v1/content", map[string]string{"topic": "Go channels", "contentType": "article"})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeContent(t, resp.Data)
	assert.Equal(t, models.JobStatusQueued, *created.JobStatus)
	assert.NotEmpty(t, created.JobIDValue())
	assert.Nil(t, created.Content)

	assert.Eventually(t, func() bool {
		c, ok := s.get(created.ID)
		return ok && *c.JobStatus == models.JobStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	c, _ := s.get(created.ID)
	require.NotNil(t, c.Content)
	assert.Equal(t, *c.GeneratedContent, *c.Content)
	assert.Contains(t, *c.Content, "Go channels")
}

func TestFailingTopic(t *testing.T) {
	s := setupServer(t, "")

	_, resp := call(t, s, http.MethodPost, "/api/v1/content", map[string]string{"topic": "broken [fail]", "contentType": "email"})
	created := decodeContent(t, resp.Data)

	assert.Eventually(t, func() bool {
		c, _ := s.get(created.ID)
		return *c.JobStatus == models.JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCreateValidation(t *testing.T) {
	s := setupServer(t, "")

	rr, resp := call(t, s, http.MethodPost, "/api/v1/content", map[string]string{"topic": "x", "contentType": "poem"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid content type", resp.Message)
	assert.False(t, resp.Success)

	rr, resp = call(t, s, http.MethodPost, "/api/v1/content", map[string]string{"topic": "  ", "contentType": "article"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Topic is required", resp.Message)
}

func TestListPagination(t *testing.T) {
	s := setupServer(t, "")
	for _, topic := range []string{"one", "two", "three"} {
		call(t, s, http.MethodPost, "/api/v1/content", map[string]string{"topic": topic, "contentType": "article"})
	}

	rr, resp := call(t, s, http.MethodGet, "/api/v1/content?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page struct {
		Content    []*models.Content `json:"content"`
		Total      int               `json:"total"`
		Page       int               `json:"page"`
		TotalPages int               `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "three", page.Content[0].Topic, "newest first")

	_, resp = call(t, s, http.MethodGet, "/api/v1/content?page=9&limit=2", nil)
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Empty(t, page.Content)
}

func TestUpdateRollbackDelete(t *testing.T) {
	s := setupServer(t, "")
	_, resp := call(t, s, http.MethodPost, "/api/v1/content", map[string]string{"topic": "edit me", "contentType": "article"})
	created := decodeContent(t, resp.Data)
	path := "/api/v1/content/" + created.ID

	rr, _ := call(t, s, http.MethodPost, path+"/rollback", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "nothing generated yet")

	assert.Eventually(t, func() bool {
		c, _ := s.get(created.ID)
		return *c.JobStatus == models.JobStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	rr, resp = call(t, s, http.MethodPut, path, map[string]string{"content": "my words"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "my words", *decodeContent(t, resp.Data).Content)

	rr, _ = call(t, s, http.MethodPut, path, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, resp = call(t, s, http.MethodPost, path+"/rollback", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rolled := decodeContent(t, resp.Data)
	assert.Equal(t, *rolled.GeneratedContent, *rolled.Content)

	rr, _ = call(t, s, http.MethodGet, "/api/v1/content/job/"+created.JobIDValue()+"/status", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = call(t, s, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, resp = call(t, s, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Content not found", resp.Message)

	rr, _ = call(t, s, http.MethodGet, "/api/v1/content/job/"+created.JobIDValue()+"/status", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := setupServer(t, "secret")
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/content", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/content", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "health is public")

	rr, _ = call(t, s, http.MethodGet, "/api/v1/content", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGenerateCoversEveryType(t *testing.T) {
	for _, ct := range models.ContentTypes {
		assert.Contains(t, generate("Topic", ct), "Topic", string(ct))
	}
}
