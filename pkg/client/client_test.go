package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginStoresTokenForLaterCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sam@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": 3, "type": "Staff", "first_name": "Sam"},
		})
	})
	mux.HandleFunc("GET /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]any{{"id": 7, "title": "Deck", "client_name": "Pat Lee"}},
			"total": 1,
		})
	})
	c := newServer(t, mux)

	res, err := c.Login(context.Background(), "sam@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, uint(3), res.User.ID)
	assert.Equal(t, "tok-1", c.Token())

	jobs, err := c.ListJobs(context.Background(), "open")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, uint(7), jobs[0].ID)
	assert.Equal(t, "Pat Lee", jobs[0].ClientName)
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/users/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found", "error_code": "user_not_found"})
	})
	mux.HandleFunc("GET /api/invite", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newServer(t, mux)

	err := c.DeleteUser(context.Background(), 9)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "User not found", apiErr.Message)
	assert.Equal(t, "user_not_found", apiErr.Code)

	_, err = c.GetInvite(context.Background())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestInviteAndTaskCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/invite", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"code": "ABCDEFGHJKLM"})
	})
	mux.HandleFunc("POST /api/phases/4/tasks", func(w http.ResponseWriter, r *http.Request) {
		var body WorkItemRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []uint{2, 5}, body.Assignees)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 11, "phase_id": 4, "title": body.Title, "status": "Incomplete"})
	})
	mux.HandleFunc("PATCH /api/tasks/11/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Complete", body["status"])
		writeJSON(w, http.StatusOK, map[string]any{"id": 11, "status": "Complete"})
	})
	mux.HandleFunc("GET /api/calendar", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026", r.URL.Query().Get("year"))
		assert.Equal(t, "3", r.URL.Query().Get("month"))
		writeJSON(w, http.StatusOK, map[string]any{
			"year": 2026, "month": 3,
			"entries": []map[string]any{{"kind": "task", "id": 11, "title": "Tile"}},
		})
	})
	c := New("placeholder", WithToken("tok"))
	c.baseURL = newServer(t, mux).baseURL

	code, err := c.RegenerateInvite(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHJKLM", code)

	task, err := c.CreateTask(context.Background(), 4, WorkItemRequest{Title: "Tile", Assignees: []uint{2, 5}})
	require.NoError(t, err)
	assert.Equal(t, uint(11), task.ID)

	require.NoError(t, c.SetTaskStatus(context.Background(), task.ID, "Complete"))

	entries, err := c.Calendar(context.Background(), 2026, 3)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "task", entries[0].Kind)
}

func TestInvalidates(t *testing.T) {
	job := QueryKey{Resource: ResourceJob, ID: 7}
	calendar := QueryKey{Resource: ResourceCalendar}

	assert.ElementsMatch(t, []QueryKey{job, calendar}, Invalidates(Mutation{Kind: WorkItemChanged, JobID: 7}))
	assert.Contains(t, Invalidates(Mutation{Kind: JobDeleted, JobID: 7}), QueryKey{Resource: ResourceJobs})
	assert.Contains(t, Invalidates(Mutation{Kind: UserDeleted}), calendar)
	assert.Equal(t, []QueryKey{{Resource: ResourceInvite}}, Invalidates(Mutation{Kind: InviteRegenerated}))
	assert.Nil(t, Invalidates(Mutation{Kind: "unknown"}))
}
