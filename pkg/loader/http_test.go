package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLoaderGetContent(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("application/json", r.Header.Get("Accept"))
		assert.Equal(DefaultUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"http://x.test/a"}`))
	}))
	defer srv.Close()

	l, err := NewHTTPLoader()
	require.NoError(t, err)

	content, err := l.GetContent(context.Background(), srv.URL+"/a.json")
	require.NoError(t, err)
	assert.JSONEq(`{"id":"http://x.test/a"}`, string(content))
}

func TestHTTPLoaderHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token yolo", r.Header.Get("Authorization"))
		assert.Equal(t, "schema-tool/2.1", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	l, err := NewHTTPLoader(
		WithUserAgent("schema-tool/2.1"),
		WithHeader("Authorization", "token yolo"),
	)
	require.NoError(t, err)

	_, err = l.GetContent(context.Background(), srv.URL)
	require.NoError(t, err)
}

func TestHTTPLoaderNotFound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	l, err := NewHTTPLoader()
	require.NoError(t, err)

	_, err = l.GetContent(context.Background(), srv.URL+"/missing.json")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, srv.URL+"/missing.json", httpErr.URL)

	// Client errors are not worth retrying.
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestHTTPLoaderRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "temporarily broken", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	l, err := NewHTTPLoader(
		WithRetryMax(2),
		WithRetryWait(time.Millisecond, 5*time.Millisecond),
	)
	require.NoError(t, err)

	content, err := l.GetContent(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(content))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestHTTPLoaderMaxResponseSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	l, err := NewHTTPLoader(WithMaxResponseSize(16))
	require.NoError(t, err)

	_, err = l.GetContent(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "16")

	_, err = NewHTTPLoader(WithMaxResponseSize(0))
	require.Error(t, err)
}

func TestHTTPLoaderCookieFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("registry_session")
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", cookie.Value)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	// Netscape cookie file format: domain, include subdomains, path,
	// secure, expiry, name, value.
	cookieFile := filepath.Join(t.TempDir(), "cookies.txt")
	line := strings.Join([]string{
		"127.0.0.1", "FALSE", "/", "FALSE", "2147483647", "registry_session", "deadbeef",
	}, "\t")
	require.NoError(t, os.WriteFile(cookieFile, []byte(line+"\n"), 0o600))

	l, err := NewHTTPLoader(WithCookieFile(cookieFile))
	require.NoError(t, err)

	_, err = l.GetContent(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = NewHTTPLoader(WithCookieFile(filepath.Join(t.TempDir(), "absent.txt")))
	require.Error(t, err)
}

func TestHTTPLoaderInvalidURI(t *testing.T) {
	l, err := NewHTTPLoader()
	require.NoError(t, err)

	_, err = l.GetContent(context.Background(), "http://x.test/%zz")
	require.Error(t, err)
}
