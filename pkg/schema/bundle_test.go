package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleAdd(t *testing.T) {
	assert := assert.New(t)
	bundle := NewBundle()

	err := bundle.Add("http://x.test/a", []byte(`{"type": "object"}`))
	require.NoError(t, err)
	assert.Equal(1, bundle.Len())

	err = bundle.Add("http://x.test/a", []byte(`{"type": "string"}`))
	require.NoError(t, err)
	assert.Equal(1, bundle.Len())
	assert.JSONEq(`{"type": "string"}`, string(bundle.Schemas()["http://x.test/a"]))

	tests := []struct {
		name    string
		uri     string
		content []byte
		wantMsg string
	}{
		{
			name:    "nil content",
			uri:     "http://x.test/nil",
			content: nil,
			wantMsg: "schema content is nil",
		},
		{
			name:    "unparsable URI",
			uri:     "http://x.test/%zz",
			content: []byte(`{}`),
			wantMsg: "parsing reference",
		},
		{
			name:    "relative URI",
			uri:     "schemas/a.json",
			content: []byte(`{}`),
			wantMsg: "is not absolute",
		},
		{
			name:    "fragment URI",
			uri:     "http://x.test/a#frag",
			content: []byte(`{}`),
			wantMsg: "is not absolute",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bundle.Add(tt.uri, tt.content)
			require.Error(t, err)
			assert.Contains(err.Error(), tt.wantMsg)
		})
	}

	// Failed adds leave the bundle untouched.
	assert.Equal(1, bundle.Len())
}

func TestBundleCanonicalURIs(t *testing.T) {
	assert := assert.New(t)
	bundle := NewBundle()

	// An empty fragment and unresolved dot segments normalize away, so all
	// three spellings address the same entry.
	require.NoError(t, bundle.Add("http://x.test/a#", []byte(`{"v": 1}`)))
	require.NoError(t, bundle.Add("http://x.test/sub/../a", []byte(`{"v": 2}`)))
	require.NoError(t, bundle.Add("http://x.test/a", []byte(`{"v": 3}`)))

	assert.Equal(1, bundle.Len())
	assert.JSONEq(`{"v": 3}`, string(bundle.Schemas()["http://x.test/a"]))

	require.NoError(t, bundle.Add("http://x.test/b", []byte(`{}`)))
	if diff := cmp.Diff([]string{"http://x.test/a", "http://x.test/b"}, bundle.URIs()); diff != "" {
		t.Errorf("unexpected bundle URIs:\n%s", diff)
	}
}

func TestBundleSchemasIsACopy(t *testing.T) {
	assert := assert.New(t)
	bundle := NewBundle()
	require.NoError(t, bundle.Add("http://x.test/a", []byte(`{}`)))

	schemas := bundle.Schemas()
	delete(schemas, "http://x.test/a")
	schemas["http://x.test/b"] = []byte(`{}`)

	assert.Equal(1, bundle.Len())
	assert.Equal([]string{"http://x.test/a"}, bundle.URIs())
}

func TestLoadDir(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	writeFile(t, dir, "a.json", `{"id": "http://x.test/a", "type": "object"}`)
	writeFile(t, dir, "b.yaml", "id: http://x.test/b\ntype: object\n")
	writeFile(t, dir, "c.yml", "id: http://x.test/c\ntype: string\n")
	writeFile(t, dir, "notes.txt", "not a schema")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested"), "d.json", `{"id": "http://x.test/d"}`)

	bundle, err := LoadDir(dir)
	require.NoError(t, err)

	// Only schema files directly under dir are loaded.
	want := []string{
		"http://x.test/a",
		"http://x.test/b",
		"http://x.test/c",
	}
	if diff := cmp.Diff(want, bundle.URIs()); diff != "" {
		t.Errorf("unexpected bundle URIs:\n%s", diff)
	}

	// YAML documents are stored as JSON.
	assert.JSONEq(`{"id": "http://x.test/b", "type": "object"}`,
		string(bundle.Schemas()["http://x.test/b"]))
}

func TestLoadDirErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantMsg string
	}{
		{
			name:    "document without id",
			file:    "x.json",
			content: `{"type": "object"}`,
			wantMsg: "has no absolute id",
		},
		{
			name:    "document with relative id",
			file:    "x.json",
			content: `{"id": "rel.json"}`,
			wantMsg: "has no absolute id",
		},
		{
			name:    "malformed JSON",
			file:    "x.json",
			content: `{"id": `,
			wantMsg: "malformed JSON",
		},
		{
			name:    "invalid YAML",
			file:    "x.yaml",
			content: "{a: b",
			wantMsg: "converting to JSON",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)

			_, err := LoadDir(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Contains(t, err.Error(), tt.file)
		})
	}

	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading bundle directory")
	})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
