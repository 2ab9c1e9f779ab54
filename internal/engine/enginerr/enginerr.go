// Package enginerr defines the error taxonomy the core returns to the
// SessionCoordinator. Errors are targeted to the acting player only; the
// coordinator never broadcasts them.
package enginerr

import "fmt"

// Kind is one of the error kinds enumerated in the design's error taxonomy.
type Kind string

const (
	KindInvalidRequest        Kind = "invalid-request"
	KindNotAuthorized         Kind = "not-authorized"
	KindWrongPhase            Kind = "wrong-phase"
	KindIllegalTarget         Kind = "illegal-target"
	KindInsufficientMana      Kind = "insufficient-mana"
	KindIllegalPlay           Kind = "illegal-play"
	KindNotFound              Kind = "not-found"
	KindStepNotFound          Kind = "step-not-found"
	KindApplyFailed           Kind = "apply-failed"
	KindInternalInconsistency Kind = "internal-inconsistency"
	KindInvalidZone           Kind = "invalid-zone"
)

// Error is a structured failure returned by a primitive or validator.
// No action succeeds without appending exactly one event and no failed
// action appends any event; Error is how a primitive communicates that
// nothing happened.
type Error struct {
	Kind    Kind
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WithField(kind Kind, message, field string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

func NotFound(resource, id string) *Error {
	return Newf(KindNotFound, "%s %s not found", resource, id)
}
