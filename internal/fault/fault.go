// Package fault defines the error taxonomy shared by every pipeline step.
//
// All kinds are fatal: callers wrap and return them, and the CLI exits
// non-zero. Match a kind with errors.Is(err, fault.Config).
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind uint8

const (
	// Config marks bad or missing command-line arguments.
	Config Kind = iota + 1
	// Path marks an expected directory that is absent or cannot be entered.
	Path
	// Unsupported marks a platform/tip-status combination that is not supported.
	Unsupported
	// Staging marks a failure creating the staging root or copying into it.
	Staging
	// Patch marks a patch that did not apply cleanly.
	Patch
	// Invariant marks a failed post-condition self-check.
	Invariant
	// Verification marks a built binary that does not match the configuration.
	Verification
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case Path:
		return "PathError"
	case Unsupported:
		return "UnsupportedConfigurationError"
	case Staging:
		return "StagingError"
	case Patch:
		return "PatchError"
	case Invariant:
		return "InvariantError"
	case Verification:
		return "VerificationError"
	default:
		return "UnknownError"
	}
}

// Error lets a Kind act as a sentinel for errors.Is.
func (k Kind) Error() string { return k.String() }

// Error is a classified failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error against its Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New builds a classified error from a format string.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the outermost classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
