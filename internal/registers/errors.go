package registers

import (
	"fmt"

	"github.com/google/uuid"
)

// TypeNotFoundError reports a point whose type_uuid is unset or unknown.
type TypeNotFoundError struct {
	Point    string
	TypeUUID uuid.UUID
	err      error
}

func (e *TypeNotFoundError) Error() string {
	if e.TypeUUID == uuid.Nil {
		return fmt.Sprintf("point %q has no type", e.Point)
	}
	return fmt.Sprintf("point %q has unknown type uuid %s", e.Point, e.TypeUUID)
}

func (e *TypeNotFoundError) Unwrap() error { return e.err }

// MismatchedSizeAndTypeError reports a point whose size disagrees with the
// fixed width of its type.
type MismatchedSizeAndTypeError struct {
	Point    string
	TypeName string
	Expected int
	Actual   int
}

func (e *MismatchedSizeAndTypeError) Error() string {
	return fmt.Sprintf("expected %d for %s, is %d for %s", e.Expected, e.TypeName, e.Actual, e.Point)
}
