package integration

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kjarrad/json-schema-validator/pkg/loader"
	"github.com/kjarrad/json-schema-validator/pkg/ref"
	"github.com/kjarrad/json-schema-validator/pkg/schema"
)

type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (h *hitCounter) inc(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[path]++
	return h.hits[path]
}

func (h *hitCounter) get(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

// newStack wires the full fetch path the way callers are expected to: the
// default loader manager behind the retry decorator, feeding a registry with
// inline addressing.
func newStack(t *testing.T) (*schema.Registry, *httptest.Server, *hitCounter) {
	t.Helper()

	counter := &hitCounter{hits: make(map[string]int)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		n := counter.inc(req.URL.Path)
		switch req.URL.Path {
		case "/schemas/root.json":
			fmt.Fprint(w, `{"definitions": {"address": {"id": "address.json", "type": "object"}}}`)
		case "/schemas/flaky.json":
			if n == 1 {
				http.Error(w, "try again", http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"type": "integer"}`)
		default:
			http.NotFound(w, req)
		}
	}))
	t.Cleanup(server.Close)

	manager, err := loader.NewDefaultManager(
		loader.WithRetryMax(2),
		loader.WithRetryWait(10*time.Millisecond, 50*time.Millisecond),
	)
	require.NoError(t, err)

	registry, err := schema.New(loader.Retry(manager), ref.MustNew(server.URL+"/schemas/"), schema.Inline)
	require.NoError(t, err)
	return registry, server, counter
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
