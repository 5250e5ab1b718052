package githubstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srvURL string) *Client {
	return NewClient(Config{
		BaseURL: srvURL,
		Token:   "gh-token",
		Owner:   "verdantleaf",
		Repo:    "catalog",
		Branch:  "main",
	})
}

func TestGetFile(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte(`{"hello":"world"}`))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/verdantleaf/catalog/contents/data/catalog.json", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		// GitHub wraps base64 payloads with newlines.
		json.NewEncoder(w).Encode(map[string]string{
			"sha":     "abc123",
			"content": content[:10] + "\n" + content[10:],
		})
	}))
	defer srv.Close()

	raw, sha, err := newTestClient(srv.URL).GetFile(context.Background(), "data/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, "abc123", sha)
	assert.JSONEq(t, `{"hello":"world"}`, string(raw))
}

func TestGetFileMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	raw, sha, err := newTestClient(srv.URL).GetFile(context.Background(), "data/missing.json")
	require.NoError(t, err, "missing files are not an error")
	assert.Nil(t, raw)
	assert.Empty(t, sha)
}

func TestPutFileCreate(t *testing.T) {
	var putReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.NotFound(w, r)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putReq))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]string{"sha": "blob1"},
				"commit":  map[string]string{"sha": "commit1"},
			})
		}
	}))
	defer srv.Close()

	commit, err := newTestClient(srv.URL).PutFile(context.Background(), "data/catalog.json", "Update catalog", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "commit1", commit)
	assert.Equal(t, "Update catalog", putReq["message"])
	assert.Equal(t, "main", putReq["branch"])
	// New files carry no SHA.
	_, hasSHA := putReq["sha"]
	assert.False(t, hasSHA)
}

func TestPutFileUpdateIncludesSHA(t *testing.T) {
	var putReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]string{"sha": "oldblob", "content": ""})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putReq))
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]string{"sha": "blob2"},
				"commit":  map[string]string{"sha": "commit2"},
			})
		}
	}))
	defer srv.Close()

	commit, err := newTestClient(srv.URL).PutFile(context.Background(), "data/catalog.json", "Update catalog", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "commit2", commit)
	assert.Equal(t, "oldblob", putReq["sha"])
}
