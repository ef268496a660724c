package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind is the closed set of error categories a pass may report
// (§7: Argument, LogicError, Runtime, OpError, IndexError).
type ErrorKind uint8

const (
	ErrorKindArgument ErrorKind = iota
	ErrorKindLogicError
	ErrorKindRuntime
	ErrorKindOpError
	ErrorKindIndexError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindArgument:
		return "Argument"
	case ErrorKindLogicError:
		return "LogicError"
	case ErrorKindRuntime:
		return "Runtime"
	case ErrorKindOpError:
		return "OpError"
	case ErrorKindIndexError:
		return "IndexError"
	default:
		return "Unknown"
	}
}

// CompileError is the only error type that escapes a pass boundary. It
// names the op, the pass, and the rule violated, per §7's "User-visible
// behaviour".
type CompileError struct {
	Kind   ErrorKind
	Pass   string
	OpName string
	Rule   string
	cause  error
}

func (e *CompileError) Error() string {
	if e.OpName == "" {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Kind, e.Pass, e.Rule, e.cause)
	}
	return fmt.Sprintf("%s[%s]: op %q: %s: %v", e.Kind, e.Pass, e.OpName, e.Rule, e.cause)
}

func (e *CompileError) Unwrap() error { return e.cause }

// Is lets callers match by kind alone: errors.Is(err, model.ErrRuntime).
func (e *CompileError) Is(target error) bool {
	t, ok := target.(*CompileError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError builds a CompileError. cause may be nil, in which case rule
// doubles as the underlying message.
func NewError(kind ErrorKind, pass, opName, rule string, cause error) *CompileError {
	if cause == nil {
		cause = errors.Newf("%s", rule)
	} else {
		cause = errors.WithStack(cause)
	}
	return &CompileError{Kind: kind, Pass: pass, OpName: opName, Rule: rule, cause: cause}
}

// Sentinel kinds for errors.Is matching; these carry no pass/op/cause
// and exist only to compare Kind.
var (
	ErrArgument   = &CompileError{Kind: ErrorKindArgument}
	ErrLogicError = &CompileError{Kind: ErrorKindLogicError}
	ErrRuntime    = &CompileError{Kind: ErrorKindRuntime}
	ErrOpError    = &CompileError{Kind: ErrorKindOpError}
	ErrIndexError = &CompileError{Kind: ErrorKindIndexError}
)
