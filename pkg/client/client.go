// Package client is a typed Go client for the jobsite manager HTTP API.
package client

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

	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
)

type (
	User          = dto.User
	Job           = dto.JobSummary
	JobDetail     = dto.JobDetail
	WorkItem      = dto.WorkItem
	CalendarEntry = dto.CalendarEntry
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken sets the bearer token, e.g. one saved from an earlier Login.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the session token in use, if any.
func (c *Client) Token() string {
	return c.token
}

// --------------------------------------------------
// Requests
// --------------------------------------------------

type PhaseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

type CreateJobRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	ClientID    uint           `json:"client_id"`
	Phases      []PhaseRequest `json:"phases,omitempty"`
}

type WorkItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// DueDate is YYYY-MM-DD.
	DueDate   string `json:"due_date,omitempty"`
	Assignees []uint `json:"assignees,omitempty"`
}

type Invite struct {
	Code      string    `json:"code"`
	UpdatedBy *uint     `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		ID        uint   `json:"id"`
		Type      string `json:"type"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"user"`
}

type list[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// --------------------------------------------------
// Auth
// --------------------------------------------------

// Login authenticates and keeps the session token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// --------------------------------------------------
// Jobs
// --------------------------------------------------

// ListJobs lists jobs, optionally filtered by status ("open" or "closed").
func (c *Client) ListJobs(ctx context.Context, status string) ([]Job, error) {
	path := "/api/jobs"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out list[Job]
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetJob(ctx context.Context, id uint) (*JobDetail, error) {
	var out JobDetail
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	var out Job
	if err := c.do(ctx, http.MethodPost, "/api/jobs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --------------------------------------------------
// Tasks
// --------------------------------------------------

func (c *Client) CreateTask(ctx context.Context, phaseID uint, req WorkItemRequest) (*WorkItem, error) {
	var out WorkItem
	if err := c.do(ctx, http.MethodPost, "/api/phases/"+itoa(phaseID)+"/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetTaskStatus sets "Incomplete" or "Complete".
func (c *Client) SetTaskStatus(ctx context.Context, taskID uint, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+itoa(taskID)+"/status", body, nil)
}

// --------------------------------------------------
// Invite / users / calendar
// --------------------------------------------------

func (c *Client) GetInvite(ctx context.Context) (*Invite, error) {
	var out Invite
	if err := c.do(ctx, http.MethodGet, "/api/invite", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegenerateInvite replaces the shared invite code and returns the new one.
func (c *Client) RegenerateInvite(ctx context.Context) (string, error) {
	var out struct {
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/invite", nil, &out); err != nil {
		return "", err
	}
	return out.Code, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+itoa(id), nil, nil)
}

func (c *Client) Calendar(ctx context.Context, year, month int) ([]CalendarEntry, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))

	var out struct {
		Entries []CalendarEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/calendar?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// --------------------------------------------------
// Transport
// --------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error     string `json:"error"`
		ErrorCode string `json:"error_code"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Code = payload.ErrorCode
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
