package schema

import (
	"bytes"
	"sort"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/kjarrad/json-schema-validator/pkg/ref"
)

// Context is the resolved, in-memory form of one schema document: its raw
// content, the canonical locator computed for it, and the index of embedded
// subschemas built by the addressing mode that created it. A Context is
// immutable; accessors return copies where the underlying data could
// otherwise be modified.
type Context struct {
	raw      []byte
	document gjson.Result
	locator  ref.Ref
	subrefs  map[string]gjson.Result
}

// Raw returns a copy of the schema document's content.
func (c *Context) Raw() []byte {
	return bytes.Clone(c.raw)
}

// Schema returns the parsed view of the document. The result shares the
// context's content and is read-only.
func (c *Context) Schema() gjson.Result {
	return c.document
}

// Locator returns the canonical reference computed for the document. An
// anonymous schema's locator is not absolute.
func (c *Context) Locator() ref.Ref {
	return c.locator
}

// IsAnonymous reports whether the document has no absolute locator and is
// therefore not addressable by URI.
func (c *Context) IsAnonymous() bool {
	return !c.locator.IsAbsolute()
}

// Subschema returns the embedded subschema indexed under the given canonical
// URI, if the addressing mode that built the context indexed one.
func (c *Context) Subschema(uri string) (gjson.Result, bool) {
	sub, ok := c.subrefs[uri]
	return sub, ok
}

// Subrefs returns the canonical URIs of all indexed embedded subschemas,
// sorted. Contexts built with canonical addressing have none.
func (c *Context) Subrefs() []string {
	uris := lo.Keys(c.subrefs)
	sort.Strings(uris)
	return uris
}
