package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"

	"github.com/kjarrad/json-schema-validator/pkg/ref"
)

// Bundle is a collection of raw schema documents keyed by canonical absolute
// URI. Add validates every entry, so a Bundle only ever holds well-formed
// locators and a registry can ingest it without re-checking them.
type Bundle struct {
	schemas map[string][]byte
}

// NewBundle creates an empty Bundle.
func NewBundle() *Bundle {
	return &Bundle{schemas: make(map[string][]byte)}
}

// Add stores content under uri. The URI must parse and be absolute and the
// content must be non-nil; adding the same URI again overwrites the previous
// content. The URI is stored in its canonical form.
func (b *Bundle) Add(uri string, content []byte) error {
	if content == nil {
		return fmt.Errorf("bundle: content for %q: %w", uri, ErrNilSchema)
	}
	r, err := ref.New(uri)
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}
	if !r.IsAbsolute() {
		return fmt.Errorf("bundle: URI %q is not absolute", uri)
	}
	b.schemas[r.String()] = content
	return nil
}

// Len returns the number of schemas in the bundle.
func (b *Bundle) Len() int {
	return len(b.schemas)
}

// URIs returns the bundle's canonical URIs, sorted.
func (b *Bundle) URIs() []string {
	uris := lo.Keys(b.schemas)
	sort.Strings(uris)
	return uris
}

// Schemas returns a copy of the bundle's URI to content mapping.
func (b *Bundle) Schemas() map[string][]byte {
	schemas := make(map[string][]byte, len(b.schemas))
	for uri, content := range b.schemas {
		schemas[uri] = content
	}
	return schemas
}

// LoadDir builds a Bundle from the schema files directly under dir. Files
// with a .json, .yaml, or .yml extension are read concurrently; YAML is
// converted to JSON. Every document must declare an absolute id, which
// becomes its bundle URI.
func LoadDir(dir string) (*Bundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading bundle directory: %w", err)
	}

	var mu sync.Mutex
	bundle := NewBundle()

	eg := new(errgroup.Group)
	for _, entry := range entries {
		if entry.IsDir() || !isSchemaFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		eg.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if isYAMLFile(path) {
				content, err = yaml.YAMLToJSON(content)
				if err != nil {
					return fmt.Errorf("%s: converting to JSON: %w", path, err)
				}
			}
			// Resolve with no URI hint: the document must carry its
			// own absolute id to be addressable from a bundle.
			sc, err := Canonical.ForSchema(content)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			locator := sc.Locator()
			if !locator.IsAbsolute() {
				return fmt.Errorf("%s: document has no absolute id", path)
			}

			mu.Lock()
			defer mu.Unlock()
			return bundle.Add(locator.String(), content)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func isYAMLFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
