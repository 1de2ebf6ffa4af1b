package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("node not found")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrWrongKind         = errors.New("referenced node has the wrong kind")
	ErrInvalidChild      = errors.New("child kind not accepted")
	ErrDuplicateUUID     = errors.New("duplicate uuid")
	ErrAttached          = errors.New("node already has a parent")
	ErrNotChild          = errors.New("node is not a child")
)

// NotFoundError reports a uuid lookup that matched nothing in a tree.
type NotFoundError struct {
	UUID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.UUID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ReferenceNotFoundError reports a reference field whose uuid does not
// resolve in its target model. It matches both ErrReferenceNotFound and
// ErrNotFound.
type ReferenceNotFoundError struct {
	Field string
	UUID  uuid.UUID
	err   error
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Field, e.UUID, e.err)
}

func (e *ReferenceNotFoundError) Is(target error) bool {
	return target == ErrReferenceNotFound
}

func (e *ReferenceNotFoundError) Unwrap() error { return e.err }
