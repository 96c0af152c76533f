package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/depdiff/internal/domain"
)

const requestsMetadata = `{
	"info": {
		"home_page": "https://requests.readthedocs.io",
		"project_urls": {
			"Documentation": "https://requests.readthedocs.io",
			"Source": "https://github.com/psf/requests"
		}
	},
	"urls": [
		{
			"url": "https://files.example/requests-2.26.0-py2.py3-none-any.whl",
			"filename": "requests-2.26.0-py2.py3-none-any.whl",
			"packagetype": "bdist_wheel"
		},
		{
			"url": "https://files.example/requests-2.26.0.tar.gz",
			"filename": "requests-2.26.0.tar.gz",
			"packagetype": "sdist"
		}
	]
}`

func newTestClient(baseURL string) *Client {
	return NewClient(ClientOptions{
		BaseURL:    baseURL,
		MaxRetries: 1,
	})
}

func TestLookupDecodesMetadata(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pypi/requests/2.26.0/json", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(requestsMetadata))
	}))
	defer server.Close()

	meta, err := newTestClient(server.URL).Lookup(context.Background(), "requests", "2.26.0")
	require.NoError(t, err)

	assert.Equal(t, "requests", meta.Name)
	assert.Equal(t, "https://github.com/psf/requests", meta.RepositoryURL)
	require.Len(t, meta.Artifacts, 2)

	preferred := meta.PreferredArtifact()
	require.NotNil(t, preferred)
	assert.Equal(t, "requests-2.26.0.tar.gz", preferred.Filename)
	assert.True(t, preferred.IsSourceDist())
}

func TestLookupNotFoundIsPermanent(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "ghost", "0.1.0")
	require.Error(t, err)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, int64(1), hits.Load(), "a 404 must not be retried")
}

func TestLookupRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(requestsMetadata))
	}))
	defer server.Close()

	meta, err := newTestClient(server.URL).Lookup(context.Background(), "requests", "2.26.0")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
	assert.Equal(t, "https://github.com/psf/requests", meta.RepositoryURL)
}

func TestLookupInvalidJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "broken", "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding metadata")
}

func TestDownloadWritesFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("archive bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "pkg-1.0.0.tar.gz")
	require.NoError(t, newTestClient(server.URL).Download(context.Background(), server.URL+"/pkg-1.0.0.tar.gz", dest))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "archive bytes", string(content))
}

func TestDownloadNonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "pkg.tar.gz")
	err := newTestClient(server.URL).Download(context.Background(), server.URL+"/pkg.tar.gz", dest)
	require.Error(t, err)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
}

func TestSelectRepositoryURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info infoPayload
		want string
	}{
		{
			name: "github wins over other hosts",
			info: infoPayload{
				HomePage: "https://bitbucket.org/team/pkg",
				ProjectURLs: map[string]string{
					"Source": "https://github.com/team/pkg",
				},
			},
			want: "https://github.com/team/pkg",
		},
		{
			name: "gitlab beats unknown hosts",
			info: infoPayload{
				HomePage: "https://pkg.example.org",
				ProjectURLs: map[string]string{
					"Repository": "https://gitlab.com/team/pkg",
				},
			},
			want: "https://gitlab.com/team/pkg",
		},
		{
			name: "first candidate when no known host matches",
			info: infoPayload{
				ProjectURLs: map[string]string{
					"Source": "https://git.sr.ht/~team/pkg",
				},
				HomePage: "https://pkg.example.org",
			},
			want: "https://git.sr.ht/~team/pkg",
		},
		{
			name: "home page fallback",
			info: infoPayload{HomePage: "https://github.com/team/pkg"},
			want: "https://github.com/team/pkg",
		},
		{
			name: "no candidates",
			info: infoPayload{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectRepositoryURL(tt.info))
		})
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	retrier := NewRetrier(RetrierOptions{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1.0,
	})

	var attempts int
	err := retrier.Retry(context.Background(), func() error {
		attempts++
		return &domain.RetryableError{Err: errors.New("still down")}
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "initial attempt plus two retries")
}
