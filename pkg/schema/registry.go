package schema

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kjarrad/json-schema-validator/pkg/loader"
	"github.com/kjarrad/json-schema-validator/pkg/ref"
)

// Registry is the single point through which schema documents are
// registered, fetched, and reused. Relative lookups resolve against the
// registry's namespace; resolved documents live in a bounded load-through
// cache keyed by canonical URI, so a given URI is fetched at most once even
// under concurrent access.
//
// Create a Registry via New and share it across all subsystems that need
// schema access to avoid duplicate caches and redundant fetches.
//
// Registry is safe for concurrent use.
type Registry struct {
	namespace ref.Ref
	mode      AddressingMode
	cache     *Cache
}

type registryOptions struct {
	cacheSize int
}

// Option adjusts how New builds a Registry.
type Option func(*registryOptions)

// WithCacheSize overrides the registry's cache capacity, DefaultCacheSize by
// default.
func WithCacheSize(n int) Option {
	return func(o *registryOptions) {
		o.cacheSize = n
	}
}

// New creates a Registry that fetches unknown documents with content,
// resolves relative lookups against namespace, and computes locators with
// mode. The namespace must be absolute. All three collaborators are fixed
// for the registry's lifetime.
func New(content loader.Loader, namespace ref.Ref, mode AddressingMode, opts ...Option) (*Registry, error) {
	if content == nil {
		return nil, errors.New("registry: content loader is required")
	}
	if mode == nil {
		return nil, errors.New("registry: addressing mode is required")
	}
	if !namespace.IsAbsolute() {
		return nil, fmt.Errorf("registry: namespace %q is not absolute", namespace)
	}

	var options registryOptions
	for _, opt := range opts {
		opt(&options)
	}

	cache, err := NewCache(func(ctx context.Context, uri string) (*Context, error) {
		r, err := ref.New(uri)
		if err != nil {
			return nil, err
		}
		raw, err := content.GetContent(ctx, uri)
		if err != nil {
			return nil, err
		}
		return mode.ForSchemaAt(r, raw)
	}, options.cacheSize)
	if err != nil {
		return nil, err
	}

	return &Registry{
		namespace: namespace,
		mode:      mode,
		cache:     cache,
	}, nil
}

// Namespace returns the registry's default base reference.
func (r *Registry) Namespace() ref.Ref {
	return r.namespace
}

// Register computes a schema context directly from in-memory content. If the
// computed locator is absolute the context is cached under it; otherwise the
// schema is anonymous and only returned. The context is returned either way.
func (r *Registry) Register(schema []byte) (*Context, error) {
	if schema == nil {
		return nil, fmt.Errorf("cannot register nil schema: %w", ErrNilSchema)
	}

	sc, err := r.mode.ForSchema(schema)
	if err != nil {
		return nil, err
	}

	if locator := sc.Locator(); locator.IsAbsolute() {
		r.cache.Put(locator.String(), sc)
	}
	return sc, nil
}

// Get returns the schema context for uri, resolving it against the
// registry's namespace and loading the document on first access. A resolved
// reference that is not absolute, or a failed load, yields a
// *ResolutionError; the underlying failure is available through Unwrap.
func (r *Registry) Get(ctx context.Context, uri string) (*Context, error) {
	parsed, err := ref.New(uri)
	if err != nil {
		return nil, err
	}

	resolved := r.namespace.Resolve(parsed)
	if !resolved.IsAbsolute() {
		return nil, &ResolutionError{Ref: resolved}
	}

	sc, err := r.cache.Get(ctx, resolved.String())
	if err != nil {
		return nil, &ResolutionError{Ref: resolved, Err: err}
	}
	return sc, nil
}

// AddBundle loads every schema in bundle into the cache. Bundle locators
// were validated when the bundle was built, so entries are injected
// directly; an entry the addressing mode cannot process is skipped rather
// than failing the rest of the bundle.
func (r *Registry) AddBundle(bundle *Bundle) {
	if bundle == nil {
		return
	}
	for uri, content := range bundle.schemas {
		parsed, err := ref.New(uri)
		if err != nil {
			continue
		}
		sc, err := r.mode.ForSchemaAt(parsed, content)
		if err != nil {
			continue
		}
		r.cache.Put(uri, sc)
	}
}

// Preload warms the cache for the given URIs, fetching concurrently. Lookup
// and caching behave exactly as Get; the first failure cancels the remaining
// fetches and is returned.
func (r *Registry) Preload(ctx context.Context, uris ...string) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, uri := range uris {
		group.Go(func() error {
			if _, err := r.Get(ctx, uri); err != nil {
				return fmt.Errorf("%s: %w", uri, err)
			}
			return nil
		})
	}
	return group.Wait()
}
