package loader

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// FileLoader reads schema content from the local filesystem for file URIs.
// YAML documents are converted to JSON, so consumers always see JSON bytes.
type FileLoader struct{}

// GetContent reads the file named by uri. The URI must use the file scheme
// (or no scheme at all) and must not name a remote host.
func (FileLoader) GetContent(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := filePath(uri)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return maybeYAMLToJSON(path, content)
}

func filePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", uri, err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("file loader: unsupported scheme %q in %q", u.Scheme, uri)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("file loader: remote host %q in %q is not supported", u.Host, uri)
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return "", fmt.Errorf("file loader: %q has no path", uri)
	}
	return path, nil
}

// maybeYAMLToJSON converts YAML schema documents to JSON based on the file
// extension. Everything else passes through untouched.
func maybeYAMLToJSON(name string, content []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		jsonContent, err := yaml.YAMLToJSON(content)
		if err != nil {
			return nil, fmt.Errorf("converting %q to JSON: %w", name, err)
		}
		return jsonContent, nil
	default:
		return content, nil
	}
}
