package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/jobsite-manager/internal/config"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("https://files.example.com/")

	url, err := m.Put(ctx, "jobs/1/floorplans/a.webp", strings.NewReader("data"), 4, "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/jobs/1/floorplans/a.webp", url)

	url, err = m.Copy(ctx, "jobs/1/floorplans/a.webp", "jobs/2/floorplans/b.webp")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/jobs/2/floorplans/b.webp", url)

	data, ct, ok := m.Get("jobs/2/floorplans/b.webp")
	require.True(t, ok)
	assert.Equal(t, "data", string(data))
	assert.Equal(t, "image/webp", ct)

	require.NoError(t, m.Delete(ctx, "jobs/1/floorplans/a.webp"))
	assert.Equal(t, []string{"jobs/2/floorplans/b.webp"}, m.Keys())

	_, err = m.Copy(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

type recordedRequest struct {
	method string
	path   string
	body   string
	header http.Header
}

func newS3Server(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body), header: r.Header.Clone()})
		mu.Unlock()

		if r.Method == http.MethodPut && r.Header.Get("X-Amz-Copy-Source") != "" {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><CopyObjectResult><ETag>"abc"</ETag></CopyObjectResult>`)
			return
		}
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestS3Store_AgainstCompatibleEndpoint(t *testing.T) {
	srv, requests := newS3Server(t)
	store := NewS3Store(config.StorageConfig{
		Bucket:    "plans",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
	})
	ctx := context.Background()

	url, err := store.Put(ctx, "jobs/1/floorplans/a.webp", strings.NewReader("webp-bytes"), 10, "image/webp")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/plans/jobs/1/floorplans/a.webp", url)

	_, err = store.Copy(ctx, "jobs/1/floorplans/a.webp", "jobs/2/floorplans/b.webp")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "jobs/1/floorplans/a.webp"))

	got := requests()
	require.Len(t, got, 3)

	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/plans/jobs/1/floorplans/a.webp", got[0].path)
	assert.Equal(t, "image/webp", got[0].header.Get("Content-Type"))
	assert.Contains(t, got[0].header.Get("Authorization"), "AWS4-HMAC-SHA256")

	assert.Equal(t, "/plans/jobs/2/floorplans/b.webp", got[1].path)
	assert.Equal(t, "plans/jobs/1/floorplans/a.webp", got[1].header.Get("X-Amz-Copy-Source"))

	assert.Equal(t, http.MethodDelete, got[2].method)
}

func TestS3Store_URL(t *testing.T) {
	aws := NewS3Store(config.StorageConfig{Bucket: "plans", Region: "eu-west-1"})
	assert.Equal(t, "https://plans.s3.eu-west-1.amazonaws.com/jobs/1/a%20b.pdf", aws.URL("jobs/1/a b.pdf"))

	cdn := NewS3Store(config.StorageConfig{Bucket: "plans", Region: "eu-west-1", PublicBaseURL: "https://cdn.example.com"})
	assert.Equal(t, "https://cdn.example.com/jobs/1/a.pdf", cdn.URL("jobs/1/a.pdf"))
}
