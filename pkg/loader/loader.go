package loader

import (
	"context"
)

// Loader retrieves the raw content of the schema document identified by a
// canonical absolute URI. Implementations may perform network or filesystem
// I/O and must be safe for concurrent use.
type Loader interface {
	GetContent(ctx context.Context, uri string) ([]byte, error)
}

// Func adapts a plain function to the Loader interface.
type Func func(ctx context.Context, uri string) ([]byte, error)

// GetContent calls f.
func (f Func) GetContent(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}
