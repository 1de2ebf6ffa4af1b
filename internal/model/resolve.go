package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Resolve looks up the node referenced by a reference field. The caller
// supplies the index of the model the field points into. A nil uuid means
// "unset" and yields (nil, nil). Resolution never mutates either tree.
func Resolve(target Index, field string, id uuid.UUID) (*Node, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	n, err := target.NodeFromUUID(id)
	if err != nil {
		return nil, &ReferenceNotFoundError{Field: field, UUID: id, err: err}
	}
	return n, nil
}

// ResolveKind is Resolve restricted to the given kinds. A node of any other
// kind is reported as not found.
func ResolveKind(target Index, field string, id uuid.UUID, kinds ...Kind) (*Node, error) {
	n, err := Resolve(target, field, id)
	if err != nil || n == nil {
		return n, err
	}
	if !slices.Contains(kinds, n.Kind()) {
		return nil, &ReferenceNotFoundError{
			Field: field,
			UUID:  id,
			err:   fmt.Errorf("%w: %w (%s)", ErrNotFound, ErrWrongKind, n.Kind()),
		}
	}
	return n, nil
}

// IsNotFound reports whether err came from a failed lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
