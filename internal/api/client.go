// Package api is the client for the Content Service REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vrsandeep/contentsync-go/internal/auth"
	"github.com/vrsandeep/contentsync-go/internal/models"
)

// Client talks to the Content Service under a base URL such as
// http://localhost:5000/api/v1.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
}

// NewClient creates a Client. A nil httpClient uses a client with a 30s
// timeout; a nil token source sends no Authorization header.
func NewClient(baseURL string, tokens auth.TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: httpClient,
	}
}

// UpdateInput holds the editable fields. Nil fields are left unchanged.
type UpdateInput struct {
	Topic   *string `json:"topic,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Page is one page of a content listing.
type Page struct {
	Items      []*models.Content
	Pagination models.Pagination
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type contentData struct {
	Content *models.Content `json:"content"`
}

type listData struct {
	Content    []*models.Content `json:"content"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// Create starts generation of a new content record.
func (c *Client) Create(ctx context.Context, topic string, contentType models.ContentType) (*models.Content, error) {
	body := map[string]string{"topic": topic, "contentType": string(contentType)}
	return c.content(ctx, http.MethodPost, "/content", body, "Failed to create content")
}

// List fetches one page of content records.
func (c *Client) List(ctx context.Context, page, limit int) (*Page, error) {
	const fallback = "Failed to fetch contents"
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	data, err := c.do(ctx, http.MethodGet, "/content?"+q.Encode(), nil, fallback)
	if err != nil {
		return nil, err
	}
	var d listData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &Error{Message: fallback, Err: fmt.Errorf("decoding list: %w", err)}
	}
	if d.Page == 0 {
		d.Page = page
	}
	return &Page{
		Items: d.Content,
		Pagination: models.Pagination{
			Page:       d.Page,
			Limit:      limit,
			Total:      d.Total,
			TotalPages: d.TotalPages,
		},
	}, nil
}

// GetByID fetches a single content record.
func (c *Client) GetByID(ctx context.Context, id string) (*models.Content, error) {
	return c.content(ctx, http.MethodGet, "/content/"+url.PathEscape(id), nil, "Failed to fetch content")
}

// Update edits the topic and/or the content of a record.
func (c *Client) Update(ctx context.Context, id string, in UpdateInput) (*models.Content, error) {
	return c.content(ctx, http.MethodPut, "/content/"+url.PathEscape(id), in, "Failed to update content")
}

// Rollback resets a record's content to its generated content.
func (c *Client) Rollback(ctx context.Context, id string) (*models.Content, error) {
	return c.content(ctx, http.MethodPost, "/content/"+url.PathEscape(id)+"/rollback", nil, "Failed to rollback content")
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/content/"+url.PathEscape(id), nil, "Failed to delete content")
	return err
}

// GetJobStatus fetches the record owning a job, with its latest job status.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*models.Content, error) {
	return c.content(ctx, http.MethodGet, "/content/job/"+url.PathEscape(jobID)+"/status", nil, "Failed to fetch job status")
}

func (c *Client) content(ctx context.Context, method, path string, body interface{}, fallback string) (*models.Content, error) {
	data, err := c.do(ctx, method, path, body, fallback)
	if err != nil {
		return nil, err
	}
	var d contentData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &Error{Message: fallback, Err: fmt.Errorf("decoding content: %w", err)}
	}
	if d.Content == nil || d.Content.ID == "" {
		return nil, &Error{Message: fallback, Err: fmt.Errorf("response has no content")}
	}
	return d.Content, nil
}

// do sends one request and returns the envelope's data. Older servers put
// the payload at the top level instead, in which case the whole body is
// returned.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, fallback string) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Message: fallback, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Message: fallback, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: fallback, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fallback
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: fallback, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return raw, nil
	}
	return env.Data, nil
}
