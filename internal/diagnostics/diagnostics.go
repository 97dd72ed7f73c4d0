// Package diagnostics defines the error taxonomy shared by the collection,
// inference, and resolution phases. None of these errors carry a source
// position: position tracking belongs to the parser collaborator, not to
// this engine.
package diagnostics

import "fmt"

// ErrorCode classifies a diagnostics.Error.
type ErrorCode string

const (
	MismatchedTypes    ErrorCode = "mismatched_types"
	ArityMismatch      ErrorCode = "arity_mismatch"
	FieldMismatch      ErrorCode = "field_mismatch"
	UnresolvedSymbol   ErrorCode = "unresolved_symbol"
	WrongDeclKind      ErrorCode = "wrong_declaration_kind"
	ResolutionFailure  ErrorCode = "resolution_failure"
	DuplicateType      ErrorCode = "duplicate_type"
	InternalError      ErrorCode = "internal"
)

// Phase names the pipeline stage that raised an Error.
type Phase string

const (
	PhaseCollect Phase = "collect"
	PhaseInfer   Phase = "infer"
	PhaseResolve Phase = "resolve"
)

// Error is an ordinary (recoverable, phase-aborting) diagnostic.
type Error struct {
	Code    ErrorCode
	Phase   Phase
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Phase, e.Code, e.Message)
}

func New(phase Phase, code ErrorCode, format string, args ...any) *Error {
	return &Error{Phase: phase, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Mismatch reports two types that could not be unified.
func Mismatch(phase Phase, expected, received fmt.Stringer) *Error {
	return New(phase, MismatchedTypes, "expected %s, found %s", expected, received)
}

// Arity reports a call whose argument count does not match its declaration.
func Arity(phase Phase, name string, want, got int) *Error {
	return New(phase, ArityMismatch, "%s expects %d argument(s), got %d", name, want, got)
}

// Field reports a struct/enum expression whose field or variant set does
// not match the declaration's.
func Field(phase Phase, name string, want, got []string) *Error {
	return New(phase, FieldMismatch, "%s: expected fields %v, got %v", name, want, got)
}

// Symbol reports a name that BFS lookup in the collection graph could not find.
func Symbol(phase Phase, name string) *Error {
	return New(phase, UnresolvedSymbol, "unresolved symbol: %s", name)
}

// WrongKind reports an operation applied to a declaration of the wrong variant.
func WrongKind(phase Phase, want, got string) *Error {
	return New(phase, WrongDeclKind, "expected a %s declaration, found %s", want, got)
}

// Duplicate reports two sibling declarations in one scope claiming the same name.
func Duplicate(phase Phase, name string) *Error {
	return New(phase, DuplicateType, "duplicate declaration: %s", name)
}

// Fatal is the payload of a panic raised for conditions that must never
// happen in a well-formed compilation: an occurs-check positive, or a
// FunctionParameter pseudo-expression reaching the resolver. (A type
// that fails to resolve is reported as an ordinary ResolutionFailure
// Error, not as a Fatal.) It is recovered exactly once, at
// the top of Compile, and converted back into a returned error there.
type Fatal struct {
	Code    ErrorCode
	Message string
}

func (f *Fatal) Error() string {
	return fmt.Sprintf("fatal: %s: %s", f.Code, f.Message)
}

// Panic raises a Fatal. Callers never recover it themselves; only the
// top-level Compile entry point does.
func Panic(code ErrorCode, format string, args ...any) {
	panic(&Fatal{Code: code, Message: fmt.Sprintf(format, args...)})
}
