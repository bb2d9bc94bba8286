package lithify

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrUnresolvedReference indicates a $ref that cannot be resolved.
	ErrUnresolvedReference = errors.New("lithify: unresolved reference")
	// ErrAmbiguousIdentity indicates two documents colliding on one canonical identity.
	ErrAmbiguousIdentity = errors.New("lithify: ambiguous identity")
	// ErrIncompatibleRefinement indicates conflicting allOf refinement constraints.
	ErrIncompatibleRefinement = errors.New("lithify: incompatible refinement")
	// ErrInvalidIdentifier indicates a synthesized or overridden name that is not a legal identifier.
	ErrInvalidIdentifier = errors.New("lithify: invalid identifier")
	// ErrRewriteConflict indicates two rewrite plan entries disagreeing on one field.
	ErrRewriteConflict = errors.New("lithify: rewrite conflict")
	// ErrUnsupportedShape indicates a schema construct that is explicitly out of scope.
	ErrUnsupportedShape = errors.New("lithify: unsupported shape")
)

// UnresolvedReferenceError reports a $ref the graph cannot resolve.
type UnresolvedReferenceError struct {
	Ref     string // the $ref string as written
	Context string // document URI or file the reference appears in
	Cause   error
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("lithify: unresolved reference ")
	fmt.Fprintf(&b, "%q", e.Ref)
	if e.Context != "" {
		b.WriteString(" in ")
		b.WriteString(e.Context)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *UnresolvedReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for UnresolvedReferenceError.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// NewUnresolvedReferenceError creates a new UnresolvedReferenceError.
func NewUnresolvedReferenceError(ref, context string, cause error) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{Ref: ref, Context: context, Cause: cause}
}

// AmbiguousIdentityError reports two distinct documents claiming the same
// canonical identity.
type AmbiguousIdentityError struct {
	URI    string // the colliding canonical URI
	First  string // origin file that registered the identity first
	Second string // origin file that collided
}

// Error implements the error interface.
func (e *AmbiguousIdentityError) Error() string {
	return fmt.Sprintf("lithify: ambiguous identity %q claimed by both %s and %s", e.URI, e.First, e.Second)
}

// Is reports whether the target matches the sentinel error for AmbiguousIdentityError.
func (e *AmbiguousIdentityError) Is(target error) bool {
	return target == ErrAmbiguousIdentity
}

// NewAmbiguousIdentityError creates a new AmbiguousIdentityError.
func NewAmbiguousIdentityError(uri, first, second string) *AmbiguousIdentityError {
	return &AmbiguousIdentityError{URI: uri, First: first, Second: second}
}

// IncompatibleRefinementError reports an allOf refinement whose constraints
// strictly contradict its base.
type IncompatibleRefinementError struct {
	Pointer string // JSON Pointer of the allOf node
	File    string
	Message string
}

// Error implements the error interface.
func (e *IncompatibleRefinementError) Error() string {
	var b strings.Builder
	b.WriteString("lithify: incompatible refinement")
	if e.File != "" {
		b.WriteString(" in ")
		b.WriteString(e.File)
	}
	if e.Pointer != "" {
		b.WriteString(" at ")
		b.WriteString(e.Pointer)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for IncompatibleRefinementError.
func (e *IncompatibleRefinementError) Is(target error) bool {
	return target == ErrIncompatibleRefinement
}

// NewIncompatibleRefinementError creates a new IncompatibleRefinementError.
func NewIncompatibleRefinementError(file, pointer, message string) *IncompatibleRefinementError {
	return &IncompatibleRefinementError{File: file, Pointer: pointer, Message: message}
}

// InvalidIdentifierError reports a name that cannot be used as a Go identifier.
type InvalidIdentifierError struct {
	Name   string
	Origin string // schema location the name came from
}

// Error implements the error interface.
func (e *InvalidIdentifierError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("lithify: invalid identifier %q from %s", e.Name, e.Origin)
	}
	return fmt.Sprintf("lithify: invalid identifier %q", e.Name)
}

// Is reports whether the target matches the sentinel error for InvalidIdentifierError.
func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// NewInvalidIdentifierError creates a new InvalidIdentifierError.
func NewInvalidIdentifierError(name, origin string) *InvalidIdentifierError {
	return &InvalidIdentifierError{Name: name, Origin: origin}
}

// RewriteConflictError reports two rewrite plan entries that target the same
// field path with different aliases.
type RewriteConflictError struct {
	FieldPath string // Type.Field of the generated declaration
	Existing  string // alias already planned
	Proposed  string // alias that conflicted
}

// Error implements the error interface.
func (e *RewriteConflictError) Error() string {
	return fmt.Sprintf("lithify: rewrite conflict on %s: %s vs %s", e.FieldPath, e.Existing, e.Proposed)
}

// Is reports whether the target matches the sentinel error for RewriteConflictError.
func (e *RewriteConflictError) Is(target error) bool {
	return target == ErrRewriteConflict
}

// NewRewriteConflictError creates a new RewriteConflictError.
func NewRewriteConflictError(fieldPath, existing, proposed string) *RewriteConflictError {
	return &RewriteConflictError{FieldPath: fieldPath, Existing: existing, Proposed: proposed}
}

// UnsupportedShapeError reports a schema construct that is explicitly out of
// scope, such as a reference cycle. It is reported, never silently ignored.
type UnsupportedShapeError struct {
	Pointer string
	File    string
	Message string
}

// Error implements the error interface.
func (e *UnsupportedShapeError) Error() string {
	var b strings.Builder
	b.WriteString("lithify: unsupported shape")
	if e.File != "" {
		b.WriteString(" in ")
		b.WriteString(e.File)
	}
	if e.Pointer != "" {
		b.WriteString(" at ")
		b.WriteString(e.Pointer)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnsupportedShapeError.
func (e *UnsupportedShapeError) Is(target error) bool {
	return target == ErrUnsupportedShape
}

// NewUnsupportedShapeError creates a new UnsupportedShapeError.
func NewUnsupportedShapeError(file, pointer, message string) *UnsupportedShapeError {
	return &UnsupportedShapeError{File: file, Pointer: pointer, Message: message}
}

// IsUnresolvedReference reports whether the error is an UnresolvedReferenceError.
func IsUnresolvedReference(err error) bool {
	var refErr *UnresolvedReferenceError
	return errors.As(err, &refErr)
}

// IsAmbiguousIdentity reports whether the error is an AmbiguousIdentityError.
func IsAmbiguousIdentity(err error) bool {
	var idErr *AmbiguousIdentityError
	return errors.As(err, &idErr)
}

// IsIncompatibleRefinement reports whether the error is an IncompatibleRefinementError.
func IsIncompatibleRefinement(err error) bool {
	var refineErr *IncompatibleRefinementError
	return errors.As(err, &refineErr)
}

// IsInvalidIdentifier reports whether the error is an InvalidIdentifierError.
func IsInvalidIdentifier(err error) bool {
	var identErr *InvalidIdentifierError
	return errors.As(err, &identErr)
}

// IsRewriteConflict reports whether the error is a RewriteConflictError.
func IsRewriteConflict(err error) bool {
	var conflictErr *RewriteConflictError
	return errors.As(err, &conflictErr)
}

// IsUnsupportedShape reports whether the error is an UnsupportedShapeError.
func IsUnsupportedShape(err error) bool {
	var shapeErr *UnsupportedShapeError
	return errors.As(err, &shapeErr)
}
