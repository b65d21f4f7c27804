package schema

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/kjarrad/json-schema-validator/pkg/ref"
)

// AddressingMode determines how a schema document's canonical locator is
// computed and which embedded subschemas, if any, become addressable. The
// set of modes is fixed: Canonical addresses documents solely by their id,
// Inline additionally indexes embedded subschemas carrying their own ids.
type AddressingMode interface {
	// ForSchema resolves content with no URI hint. The locator is derived
	// purely from the document's id member and may be anonymous.
	ForSchema(content []byte) (*Context, error)

	// ForSchemaAt resolves content retrieved from uri. A document id takes
	// precedence and is resolved against uri; absent an id, uri itself is
	// the locator.
	ForSchemaAt(uri ref.Ref, content []byte) (*Context, error)
}

var (
	// Canonical addresses schema documents by their canonical id only.
	Canonical AddressingMode = canonicalMode{}

	// Inline additionally walks the document and indexes embedded
	// subschemas that declare their own ids.
	Inline AddressingMode = inlineMode{}
)

type canonicalMode struct{}

func (canonicalMode) ForSchema(content []byte) (*Context, error) {
	return resolveSchema(ref.Ref{}, content, false)
}

func (canonicalMode) ForSchemaAt(uri ref.Ref, content []byte) (*Context, error) {
	return resolveSchema(uri, content, false)
}

type inlineMode struct{}

func (inlineMode) ForSchema(content []byte) (*Context, error) {
	return resolveSchema(ref.Ref{}, content, true)
}

func (inlineMode) ForSchemaAt(uri ref.Ref, content []byte) (*Context, error) {
	return resolveSchema(uri, content, true)
}

func resolveSchema(base ref.Ref, content []byte, inline bool) (*Context, error) {
	if content == nil {
		return nil, ErrNilSchema
	}
	// The context owns its bytes from here on; callers keep their slice.
	raw := bytes.Clone(content)
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidSchema)
	}
	document := gjson.ParseBytes(raw)
	if !document.IsObject() {
		return nil, fmt.Errorf("%w: document is not a JSON object", ErrInvalidSchema)
	}

	locator, err := documentLocator(document, base)
	if err != nil {
		return nil, err
	}

	var subrefs map[string]gjson.Result
	if inline {
		subrefs = make(map[string]gjson.Result)
		collectSubschemas(document, locator.Locator(), subrefs)
	}

	return &Context{
		raw:      raw,
		document: document,
		locator:  locator,
		subrefs:  subrefs,
	}, nil
}

// documentLocator computes the canonical locator for a document: its id
// member resolved against base, or base itself when the document has none.
func documentLocator(document gjson.Result, base ref.Ref) (ref.Ref, error) {
	id := schemaID(document)
	if !id.Exists() {
		return base, nil
	}
	if id.Type != gjson.String {
		return ref.Ref{}, fmt.Errorf("%w: id is not a string", ErrInvalidSchema)
	}
	idRef, err := ref.New(id.String())
	if err != nil {
		return ref.Ref{}, fmt.Errorf("%w: invalid id %q", ErrInvalidSchema, id.String())
	}
	return base.Resolve(idRef), nil
}

// schemaID returns the document's id member, preferring the legacy "id"
// keyword over "$id".
func schemaID(document gjson.Result) gjson.Result {
	id := document.Get("id")
	if !id.Exists() {
		id = document.Get("$id")
	}
	return id
}

// collectSubschemas walks the members below document and indexes every
// object declaring its own id under that id's canonical URI. Ids resolve
// against the nearest enclosing scope, so nested subschemas chain the way
// hierarchical ids do. Ids that do not resolve to an absolute reference are
// not addressable and are skipped.
func collectSubschemas(document gjson.Result, scope ref.Ref, index map[string]gjson.Result) {
	document.ForEach(func(_, value gjson.Result) bool {
		inner := scope
		if value.IsObject() {
			if id := schemaID(value); id.Exists() && id.Type == gjson.String {
				if idRef, err := ref.New(id.String()); err == nil {
					resolved := scope.Resolve(idRef)
					if resolved.IsAbsolute() {
						index[resolved.String()] = value
						inner = resolved
					}
				}
			}
		}
		if value.IsObject() || value.IsArray() {
			collectSubschemas(value, inner, index)
		}
		return true
	})
}
