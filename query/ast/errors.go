package ast

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrMalformedDescriptor marks a descriptor that names a field or relation
// the model does not have.
var ErrMalformedDescriptor = errors.New("malformed query descriptor")

// MalformedDescriptorError locates the offending fragment.
type MalformedDescriptorError struct {
	Model  string
	Path   string
	Reason string
}

func (e *MalformedDescriptorError) Error() string {
	return fmt.Sprintf("%s: %s at %s", e.Model, e.Reason, e.Path)
}

// Is reports ErrMalformedDescriptor identity.
func (e *MalformedDescriptorError) Is(target error) bool {
	return target == ErrMalformedDescriptor
}
