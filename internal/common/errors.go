package common

import "errors"

// Kind classifies a business error for the API boundary. All kinds are
// recoverable; only store failures escape this taxonomy.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindBlocked           Kind = "blocked"
	KindValidation        Kind = "validation_error"
)

// Conflict codes, so a duplicate mentorship request is distinguishable from a
// duplicate conversation on the client side.
const (
	CodeDuplicateRequest      = "duplicate_request"
	CodeDuplicateConversation = "duplicate_conversation"
)

// Error is a structured business error with a kind, a machine code and a
// human-readable message. Blocked errors additionally carry the block reason.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Reason  string
}

func (e *Error) Error() string { return e.Message }

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: string(KindNotFound), Message: message}
}

// Forbidden builds a forbidden error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: string(KindForbidden), Message: message}
}

// InvalidTransition builds a state machine violation error.
func InvalidTransition(message string) *Error {
	return &Error{Kind: KindInvalidTransition, Code: string(KindInvalidTransition), Message: message}
}

// Conflict builds an integrity conflict error with a distinguishing code.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Blocked builds a moderation denial. The reason is always surfaced to the
// caller when present; transparency to the blocked party is a product
// requirement.
func Blocked(message, reason string) *Error {
	return &Error{Kind: KindBlocked, Code: string(KindBlocked), Message: message, Reason: reason}
}

// Validation builds a malformed-input error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: string(KindValidation), Message: message}
}

// AsError unwraps err into *Error if it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a business error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
