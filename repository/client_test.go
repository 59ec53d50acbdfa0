package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTokenFile drops a token file into a temp dir and returns its path.
func writeTokenFile(t *testing.T, token string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".api_token")
	require.NoError(t, os.WriteFile(path, []byte(token), 0o600))
	return path
}

// recordsServer fakes the records platform draft and publish endpoints.
type recordsServer struct {
	mu        sync.Mutex
	server    *httptest.Server
	requests  []string
	drafts    int
	published []string
	failures  map[string]int // path suffix -> number of 500s to serve first
}

func newRecordsServer(t *testing.T, token string) *recordsServer {
	t.Helper()
	rs := &recordsServer{failures: make(map[string]int)}

	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		rs.requests = append(rs.requests, r.Method+" "+r.URL.Path)

		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		for suffix, remaining := range rs.failures {
			if remaining > 0 && strings.HasSuffix(r.URL.Path, suffix) {
				rs.failures[suffix] = remaining - 1
				http.Error(w, "temporary failure", http.StatusInternalServerError)
				return
			}
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/records":
			rs.drafts++
			json.NewEncoder(w).Encode(map[string]string{"id": "draft-1"})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/draft/actions/publish"):
			rs.published = append(rs.published, r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"id": "rec-1"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(rs.server.Close)
	return rs
}

func (rs *recordsServer) publishedCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.published)
}

func (rs *recordsServer) requestLog() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string{}, rs.requests...)
}

func newTestClient(t *testing.T, rs *recordsServer, token string) *Client {
	t.Helper()
	client, err := NewClient(rs.server.URL, writeTokenFile(t, token))
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("missing base URL", func(t *testing.T) {
		_, err := NewClient("", writeTokenFile(t, "tok"))
		assert.ErrorIs(t, err, ErrBaseURLRequired)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := NewClient("https://example.com", filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("token is trimmed", func(t *testing.T) {
		client, err := NewClient("https://example.com/", writeTokenFile(t, "  tok\n"))
		require.NoError(t, err)
		assert.Equal(t, "tok", client.token)
	})

	t.Run("trailing slash removed from base URL", func(t *testing.T) {
		client, err := NewClient("https://example.com/", writeTokenFile(t, "tok"))
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/records/abc", client.RecordURL("abc"))
	})
}

func TestClient_CreateDraft(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	client := newTestClient(t, rs, "tok")

	draftId, err := client.CreateDraft(context.Background(), NewRecordMetadata(&BookMetadata{
		Id:    84,
		Title: "Frankenstein",
	}))
	require.NoError(t, err)
	assert.Equal(t, "draft-1", draftId)
	assert.Contains(t, rs.requestLog(), "POST /api/records")
}

func TestClient_CreateDraft_Unauthorized(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	client := newTestClient(t, rs, "wrong-token")

	_, err := client.CreateDraft(context.Background(), NewRecordMetadata(&BookMetadata{Id: 1}))
	require.ErrorIs(t, err, ErrRequestFailed)

	// 401 is a client error, it must not be retried.
	assert.Len(t, rs.requestLog(), 1)
}

func TestClient_CreateDraft_RetriesServerErrors(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	rs.failures["/api/records"] = 2
	client := newTestClient(t, rs, "tok")

	draftId, err := client.CreateDraft(context.Background(), NewRecordMetadata(&BookMetadata{Id: 1}))
	require.NoError(t, err)
	assert.Equal(t, "draft-1", draftId)
	assert.Len(t, rs.requestLog(), 3)
}

func TestClient_CreateDraft_ExhaustsRetries(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	rs.failures["/api/records"] = 10
	client := newTestClient(t, rs, "tok")

	_, err := client.CreateDraft(context.Background(), NewRecordMetadata(&BookMetadata{Id: 1}))
	require.Error(t, err)
	assert.Len(t, rs.requestLog(), int(defaultMaxAttempts))
}

func TestClient_UploadFile(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	client := newTestClient(t, rs, "tok")

	err := client.UploadFile(context.Background(), "draft-1", "pg84.txt", []byte("the modern prometheus"))
	require.NoError(t, err)

	log := rs.requestLog()
	assert.Equal(t, []string{
		"POST /api/records/draft-1/draft/files",
		"PUT /api/records/draft-1/draft/files/pg84.txt/content",
		"POST /api/records/draft-1/draft/files/pg84.txt/commit",
	}, log)
}

func TestClient_Publish(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	client := newTestClient(t, rs, "tok")

	publishedId, err := client.Publish(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", publishedId)
	assert.Contains(t, rs.requestLog(), "POST /api/records/draft-1/draft/actions/publish")
}
