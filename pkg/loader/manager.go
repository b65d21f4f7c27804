package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// ErrSchemeNotRegistered is returned by Manager.GetContent when the URI's
// scheme has no registered loader.
var ErrSchemeNotRegistered = errors.New("scheme not registered")

// Manager routes schema fetches to the Loader registered for the URI's
// scheme. Schemes are case-insensitive. The zero value is an empty manager
// ready for use; Manager itself satisfies Loader, so a fully wired manager
// can be handed to anything that takes one.
type Manager struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

// NewDefaultManager returns a Manager with the stock loaders registered:
// an HTTPLoader built from opts for http and https, and a FileLoader for
// file URIs.
func NewDefaultManager(opts ...HTTPOption) (*Manager, error) {
	httpLoader, err := NewHTTPLoader(opts...)
	if err != nil {
		return nil, err
	}

	m := &Manager{}
	m.MustRegister("http", httpLoader)
	m.MustRegister("https", httpLoader)
	m.MustRegister("file", FileLoader{})
	return m, nil
}

// Register adds a loader for scheme. An empty scheme, a nil loader, or a
// scheme that already has a loader is an error.
func (m *Manager) Register(scheme string, l Loader) error {
	if scheme == "" {
		return fmt.Errorf("scheme cannot be empty")
	}
	if l == nil {
		return fmt.Errorf("loader for scheme %q cannot be nil", scheme)
	}
	scheme = strings.ToLower(scheme)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaders == nil {
		m.loaders = make(map[string]Loader)
	}
	if _, ok := m.loaders[scheme]; ok {
		return fmt.Errorf("scheme %q already registered", scheme)
	}
	m.loaders[scheme] = l
	return nil
}

// MustRegister is like Register but panics on error.
func (m *Manager) MustRegister(scheme string, l Loader) {
	if err := m.Register(scheme, l); err != nil {
		panic(err)
	}
}

// Get returns the loader registered for scheme.
func (m *Manager) Get(scheme string) (Loader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loaders[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", scheme, ErrSchemeNotRegistered)
	}
	return l, nil
}

// GetContent dispatches the fetch to the loader registered for uri's scheme.
func (m *Manager) GetContent(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", uri, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%q has no scheme: %w", uri, ErrSchemeNotRegistered)
	}
	l, err := m.Get(u.Scheme)
	if err != nil {
		return nil, err
	}
	return l.GetContent(ctx, uri)
}
