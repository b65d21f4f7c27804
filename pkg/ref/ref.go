package ref

import (
	"fmt"
	"net/url"
	"strings"
)

// Ref is a JSON Reference: a URI with fragment semantics. A Ref is immutable;
// all operations return a new Ref. Lookup and equality use the canonical
// string form, so an empty fragment and an absent fragment are the same
// reference and absolute references carry no dot segments.
type Ref struct {
	u *url.URL
}

// New parses s into a Ref.
func New(s string) (Ref, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, fmt.Errorf("parsing reference %q: %w", s, err)
	}
	return FromURL(u), nil
}

// MustNew parses s into a Ref and panics if s is not a valid URI reference.
// Intended for package-level constants and test fixtures.
func MustNew(s string) Ref {
	r, err := New(s)
	if err != nil {
		panic(err)
	}
	return r
}

// FromURL builds a Ref from an already parsed URL. The URL is copied and
// normalized; the caller keeps ownership of u.
func FromURL(u *url.URL) Ref {
	c := *u
	normalize(&c)
	return Ref{u: &c}
}

// normalize removes dot segments from absolute hierarchical URIs. Relative
// references keep their segments verbatim; leading ".." is meaningful there
// and is interpreted during resolution. Opaque URIs (mailto:, urn:) have no
// path to clean.
func normalize(u *url.URL) {
	if !u.IsAbs() || u.Opaque != "" || u.Path == "" {
		return
	}
	// JoinPath with no elements cleans "." and ".." segments while
	// preserving a trailing slash and the path's escaping.
	*u = *u.JoinPath()
}

// Resolve resolves other against r following RFC 3986: relative references
// are combined with r, absolute references pass through unchanged. Resolve
// has no side effects on either input.
func (r Ref) Resolve(other Ref) Ref {
	if r.u == nil {
		return other
	}
	if other.u == nil {
		other.u = &url.URL{}
	}
	return Ref{u: r.u.ResolveReference(other.u)}
}

// IsAbsolute reports whether r can address a schema document on its own:
// the URI part is absolute and the fragment is empty. A Ref with a fragment
// locates a position inside a document, not the document itself.
func (r Ref) IsAbsolute() bool {
	return r.u != nil && r.u.IsAbs() && r.u.Fragment == ""
}

// Locator returns r without its fragment: the form under which the document
// containing r is addressed and cached.
func (r Ref) Locator() Ref {
	if r.u == nil || r.u.Fragment == "" {
		return r
	}
	c := *r.u
	c.Fragment = ""
	c.RawFragment = ""
	return Ref{u: &c}
}

// Fragment returns the decoded fragment part, "" if none.
func (r Ref) Fragment() string {
	if r.u == nil {
		return ""
	}
	return r.u.Fragment
}

// Scheme returns the URI scheme in lower case, "" for relative references.
func (r Ref) Scheme() string {
	if r.u == nil {
		return ""
	}
	return strings.ToLower(r.u.Scheme)
}

// URL returns a copy of the underlying URL.
func (r Ref) URL() *url.URL {
	if r.u == nil {
		return &url.URL{}
	}
	c := *r.u
	return &c
}

// String returns the canonical URI form. The zero Ref renders as "".
func (r Ref) String() string {
	if r.u == nil {
		return ""
	}
	return r.u.String()
}

// Equal reports whether r and o have the same canonical form.
func (r Ref) Equal(o Ref) bool {
	return r.String() == o.String()
}

// IsZero reports whether r is the zero Ref (distinct from the parsed empty
// reference only in provenance; both resolve and render identically).
func (r Ref) IsZero() bool {
	return r.u == nil
}
