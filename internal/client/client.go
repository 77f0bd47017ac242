// Package client is the consumer-side wrapper around the students API.
//
// Every call returns the decoded JSON on success. On a non-2xx status it
// returns an *APIError whose Message is the server's "message" field, or
// the raw body text when the body is not JSON.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aanand-mishra/students-roster/internal/types"
)

// APIError is a failed call, reduced to one line a UI can display.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8082/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveBaseURL picks the API root for a client served from host:
// local for localhost/127.0.0.1, otherwise remote, otherwise /api on the
// serving host itself.
func ResolveBaseURL(host, local, remote string) string {
	if host == "localhost" || host == "127.0.0.1" {
		return local
	}
	if remote != "" {
		return remote
	}
	return (&url.URL{Scheme: "https", Host: host, Path: "/api"}).String()
}

func (c *Client) ListStudents(ctx context.Context) ([]types.Student, error) {
	c.log.Debug("fetching students", slog.String("url", c.baseURL+"/students"))
	var students []types.Student
	if err := c.do(ctx, http.MethodGet, "/students", nil, &students); err != nil {
		return nil, err
	}
	if students == nil {
		students = []types.Student{}
	}
	return students, nil
}

func (c *Client) GetStudent(ctx context.Context, id string) (types.Student, error) {
	c.log.Debug("fetching student", slog.String("id", id))
	var student types.Student
	err := c.do(ctx, http.MethodGet, "/students/"+url.PathEscape(id), nil, &student)
	return student, err
}

func (c *Client) CreateStudent(ctx context.Context, s types.NewStudent) (types.Student, error) {
	c.log.Debug("adding student", slog.Any("student", s))
	var created types.Student
	err := c.do(ctx, http.MethodPost, "/students", s, &created)
	return created, err
}

// UpdateStudent sends only the fields set in patch.
func (c *Client) UpdateStudent(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	if id == "" {
		return types.Student{}, &APIError{Message: "Student ID is required for update"}
	}
	c.log.Debug("updating student", slog.String("id", id))
	var updated types.Student
	err := c.do(ctx, http.MethodPut, "/students/"+url.PathEscape(id), patch, &updated)
	return updated, err
}

// DeleteStudent returns the server's confirmation message, or "" when the
// server answered with an empty body.
func (c *Client) DeleteStudent(ctx context.Context, id string) (string, error) {
	c.log.Debug("deleting student", slog.String("id", id))
	var ack struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodDelete, "/students/"+url.PathEscape(id), nil, &ack)
	return ack.Message, err
}

// do issues one request. A 2xx with an empty body (including 204) leaves
// out untouched and is not an error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, raw)
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(resp *http.Response, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &body); err == nil {
			apiErr.Message = body.Message
		} else {
			// Mislabelled body: show it as text.
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
