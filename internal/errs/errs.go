// Package errs defines the error kinds used across the dynamic-SQL core.
// Each kind is a sentinel; call sites wrap it with github.com/pkg/errors so
// that errors.Is(err, errs.MissingStatement) still works after the message
// has been enriched with positional detail, while errors.Cause(err) still
// recovers the sentinel for programmatic dispatch.
package errs

import "github.com/pkg/errors"

var (
	// MissingStatement: no statement id matches the declared method.
	MissingStatement = errors.New("missing statement")
	// UnknownStatementKind: the registry yielded a statement whose kind is
	// UNKNOWN.
	UnknownStatementKind = errors.New("unknown statement kind")
	// BuildError: unknown template element, malformed choose, multiple
	// otherwise, duplicate paging/result-handler parameters, or invalid
	// attribute values.
	BuildError = errors.New("build error")
	// MissingParameter: a name lookup in the strict parameter map failed.
	MissingParameter = errors.New("missing parameter")
	// UnsupportedReturnType: a DML method's return type is not
	// void/integer/long/boolean, or a SELECT returned null into a
	// primitive non-void return.
	UnsupportedReturnType = errors.New("unsupported return type")
	// EvaluationError: expression evaluation failed.
	EvaluationError = errors.New("evaluation error")
	// SessionError: an error surfaced by the session facade.
	SessionError = errors.New("session error")
)

// Wrap attaches kind to err's chain with an additional message, preserving
// errors.Is(result, kind) and errors.Cause(result) == kind.
func Wrap(kind error, format string, args ...any) error {
	return errors.Wrapf(kind, format, args...)
}
