package frozen

import (
	"errors"
	"fmt"
)

// ErrFrozen is the root of both immutability violations. errors.Is
// matches it through either concrete type.
var ErrFrozen = errors.New("value is frozen")

// FieldFrozenError reports a field reassignment on a sealed record.
type FieldFrozenError struct {
	Type  string
	Field string
}

func (e *FieldFrozenError) Error() string {
	return fmt.Sprintf("frozen: cannot set field %s.%s after seal", e.Type, e.Field)
}

func (e *FieldFrozenError) Unwrap() error { return ErrFrozen }

// ContainerFrozenError reports a mutation attempt on an immutable
// container.
type ContainerFrozenError struct {
	Container string // list, set or map
	Op        string
}

func (e *ContainerFrozenError) Error() string {
	return fmt.Sprintf("frozen: %s does not support %s", e.Container, e.Op)
}

func (e *ContainerFrozenError) Unwrap() error { return ErrFrozen }

// IsFieldFrozen reports whether err is a field reassignment violation.
func IsFieldFrozen(err error) bool {
	var target *FieldFrozenError
	return errors.As(err, &target)
}

// IsContainerFrozen reports whether err is a container mutation
// violation.
func IsContainerFrozen(err error) bool {
	var target *ContainerFrozenError
	return errors.As(err, &target)
}
