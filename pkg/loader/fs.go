package loader

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

// FSLoader serves schema content from an fs.FS, typically an embedded schema
// tree shipped with a binary. A URI is mapped to an fs path by stripping the
// loader's prefix; the rest of the URI is the path inside the filesystem.
// YAML documents are converted to JSON like the file loader does.
type FSLoader struct {
	fsys   fs.FS
	prefix string
}

// NewFSLoader creates an FSLoader serving URIs under prefix from fsys.
func NewFSLoader(fsys fs.FS, prefix string) *FSLoader {
	return &FSLoader{fsys: fsys, prefix: prefix}
}

// GetContent reads the file fsys holds for uri. URIs outside the loader's
// prefix are an error.
func (l *FSLoader) GetContent(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, ok := strings.CutPrefix(uri, l.prefix)
	if !ok {
		return nil, fmt.Errorf("fs loader: %q is outside prefix %q", uri, l.prefix)
	}
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return nil, fmt.Errorf("fs loader: %q has no path under prefix %q", uri, l.prefix)
	}
	content, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", name, err)
	}
	return maybeYAMLToJSON(name, content)
}
