// Package coreerr defines the typed error kinds from the failure-semantics
// section of the core design: ProjectMisconfigured, UnknownPackage,
// Unsolvable, Cancelled, and IoError.
//
// Configuration and load errors fail the workspace load; every other
// failure in this core -- including an unresolved reference -- is
// recoverable and surfaces as an absent result (a nil *DefinitionNode, an
// empty []Reference) rather than a typed error or a panic.
package coreerr

import "fmt"

// Kind classifies a core error for hosts that want to branch on failure
// type without string matching.
type Kind uint8

const (
	// KindProjectMisconfigured means the root manifest was unreadable or
	// malformed.
	KindProjectMisconfigured Kind = iota + 1
	// KindUnknownPackage means a referenced dependency is absent from the
	// package cache.
	KindUnknownPackage
	// KindUnsolvable means no dependency assignment satisfies all
	// constraints.
	KindUnsolvable
	// KindCancelled means a query was interrupted by its cancellation
	// token.
	KindCancelled
	// KindIoError means a filesystem or watch operation failed; it is
	// reported to the host for logging and is never fatal.
	KindIoError
)

func (k Kind) String() string {
	switch k {
	case KindProjectMisconfigured:
		return "ProjectMisconfigured"
	case KindUnknownPackage:
		return "UnknownPackage"
	case KindUnsolvable:
		return "Unsolvable"
	case KindCancelled:
		return "Cancelled"
	case KindIoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error is a typed core error. It satisfies the standard error interface
// and unwraps via errors.Unwrap/errors.Cause for callers using either the
// stdlib errors package or github.com/pkg/errors.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// Cause supports github.com/pkg/errors-style unwrapping, matching the
// pattern used throughout the teacher repository.
func (e *Error) Cause() error { return e.cause }

// New constructs a typed error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a typed error of the given kind, wrapping cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*Error)
	return ok && ce.Kind == kind
}
