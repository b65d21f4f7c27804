package schema

import (
	"errors"
	"fmt"

	"github.com/kjarrad/json-schema-validator/pkg/ref"
)

var (
	// ErrNilSchema is returned when nil schema content is passed to an
	// operation that needs a document.
	ErrNilSchema = errors.New("schema content is nil")

	// ErrInvalidSchema is returned when schema content is not a JSON
	// object.
	ErrInvalidSchema = errors.New("invalid schema content")
)

// ResolutionError reports a reference that could not be resolved to a schema
// context: either the reference is not absolute, or loading the document it
// names failed.
type ResolutionError struct {
	// Ref is the fully resolved reference that failed.
	Ref ref.Ref
	// Err is the underlying load failure; nil when the reference itself
	// is not absolute.
	Err error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("URI %q is not absolute", e.Ref)
	}
	return fmt.Sprintf("failed to load schema from URI %q: %v", e.Ref, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
