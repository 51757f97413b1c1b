package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/spaceport/internal/adapter/driven/github"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)

	return client
}

func TestFileExists_Found(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/example/repo-frontend/contents/docker/docker-compose.yml", r.URL.Path)
		assert.Equal(t, "develop", r.URL.Query().Get("ref"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"type": "file",
			"name": "docker-compose.yml",
			"path": "docker/docker-compose.yml",
		})
	})

	client := newTestClient(t, handler)
	ok, err := client.FileExists(context.Background(), "https://github.com/example/repo-frontend.git", "develop", "docker/docker-compose.yml")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileExists_404(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"message": "Not Found"})
	})

	client := newTestClient(t, handler)
	ok, err := client.FileExists(context.Background(), "git@github.com:example/repo-frontend.git", "main", "docker-compose.yml")

	require.NoError(t, err, "404 should not return an error")
	assert.False(t, ok)
}

func TestFileExists_Directory(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"type": "file", "name": "a.yml", "path": "docker-compose.yml/a.yml"},
		})
	})

	client := newTestClient(t, handler)
	ok, err := client.FileExists(context.Background(), "https://github.com/example/repo", "main", "docker-compose.yml")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileExists_ServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"message": "boom"})
	})

	client := newTestClient(t, handler)
	_, err := client.FileExists(context.Background(), "https://github.com/example/repo", "main", "docker-compose.yml")

	assert.Error(t, err)
}

func TestFileExists_UnsupportedHost(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))

	_, err := client.FileExists(context.Background(), "https://git.example.com/other/repo-backend.git", "main", "docker-compose.yml")

	assert.ErrorIs(t, err, driven.ErrUnsupportedHost)
}

func TestFetchFile_DecodesContent(t *testing.T) {
	const compose = "services:\n  web:\n    image: nginx\n"

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/example/repo-backend/contents/deploy/docker-compose.yml", r.URL.Path)
		assert.Equal(t, "release", r.URL.Query().Get("ref"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"name":     "docker-compose.yml",
			"path":     "deploy/docker-compose.yml",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(compose)),
		})
	})

	client := newTestClient(t, handler)
	got, err := client.FetchFile(context.Background(), "https://github.com/example/repo-backend", "release", "deploy/docker-compose.yml")

	require.NoError(t, err)
	assert.Equal(t, compose, string(got))
}

func TestFetchFile_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"404", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"message": "Not Found"})
		}},
		{"directory", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]map[string]any{{"type": "file", "name": "a.yml"}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.FetchFile(context.Background(), "https://github.com/example/repo", "main", "docker-compose.yml")
			assert.ErrorIs(t, err, driven.ErrFileNotFound)
		})
	}
}

func TestFetchFile_ServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "Bad credentials"})
	})

	client := newTestClient(t, handler)
	_, err := client.FetchFile(context.Background(), "https://github.com/example/repo", "main", "docker-compose.yml")

	require.Error(t, err)
	assert.NotErrorIs(t, err, driven.ErrFileNotFound)
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"https with .git", "https://github.com/example/repo-frontend.git", "example", "repo-frontend", false},
		{"https without .git", "https://github.com/example/repo", "example", "repo", false},
		{"trailing slash", "https://github.com/example/repo/", "example", "repo", false},
		{"scp form", "git@github.com:owner/repo.git", "owner", "repo", false},
		{"mixed case host", "HTTPS://GitHub.com/Owner/Repo", "Owner", "Repo", false},
		{"other host", "https://gitlab.com/a/b.git", "", "", true},
		{"missing repo", "https://github.com/example", "", "", true},
		{"nested path", "https://github.com/a/b/c", "", "", true},
		{"scp without colon", "git@github.com/owner/repo", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ghAdapter.ParseRepoURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}
