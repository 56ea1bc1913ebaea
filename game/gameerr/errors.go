// Package gameerr classifies game failures so that every caller can turn
// them into a user-facing result without inspecting message text.
package gameerr

import "errors"

// Kind is the failure class of a game error.
type Kind int

const (
	// Internal covers anything that is not a classified game error, such as
	// storage faults.
	Internal Kind = iota
	// NotFound means a player, monster, item or battle is absent.
	NotFound
	// PreconditionFailed means the request is well formed but the current
	// state forbids it (wrong turn, battle over, HP full, daily limit,
	// insufficient gold).
	PreconditionFailed
	// InvalidInput means the request itself is malformed.
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case PreconditionFailed:
		return "precondition_failed"
	case InvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// Error is a classified game error. Packages declare their failures as
// package-level *Error values so callers can match them with errors.Is.
type Error struct {
	Kind Kind
	Code string // machine-readable, e.g. "DAILY_LIMIT_EXCEEDED"
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// New declares a classified error.
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return Internal
}

// CodeOf returns the Code of the first *Error in err's chain, or "INTERNAL".
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "INTERNAL"
}
