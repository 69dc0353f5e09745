package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // artifact generation and binding
	PhaseResolve   Phase = "resolve"   // component identifier resolution
	PhaseNormalize Phase = "normalize" // unit and parameter normalization
	PhaseInject    Phase = "inject"    // stimulus configuration
	PhaseRun       Phase = "run"       // engine execution
	PhaseHarvest   Phase = "harvest"   // reading recorded output back
	PhaseResample  Phase = "resample"  // irregular-to-uniform conversion
	PhaseConfig    Phase = "config"    // attribute and run parameter updates
)

// Kind categorizes the error
type Kind string

const (
	KindUnitFormat          Kind = "unit_format"
	KindUnresolvedComponent Kind = "unresolved_component"
	KindAmbiguousComponent  Kind = "ambiguous_component"
	KindEngineFailure       Kind = "engine_failure"
	KindExecFailure         Kind = "exec_failure"
	KindNonmonotonicSeries  Kind = "nonmonotonic_series"
	KindEmptySeries         Kind = "empty_series"
	KindLengthMismatch      Kind = "length_mismatch"
	KindNotInitialized      Kind = "not_initialized"
	KindInvalidInput        Kind = "invalid_input"
	KindNotFound            Kind = "not_found"
	KindUnsupported         Kind = "unsupported"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnitFormat creates an error for a quantity missing its expected unit suffix
func UnitFormat(phase Phase, path []string, raw, wantUnit string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnitFormat,
		Path:   path,
		Detail: fmt.Sprintf("quantity %q: expected unit %q", raw, wantUnit),
		Value:  raw,
	}
}

// UnresolvedComponent creates an error for a stimulus or cell identifier
// that was never resolved from the model description
func UnresolvedComponent(phase Phase, role string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnresolvedComponent,
		Detail: fmt.Sprintf("no %s component resolved from model description", role),
	}
}

// AmbiguousComponent creates an error for multiple components matching one role
func AmbiguousComponent(role string, ids []string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindAmbiguousComponent,
		Detail: fmt.Sprintf("%d components match role %s: %s", len(ids), role, strings.Join(ids, ", ")),
		Value:  ids,
	}
}

// EngineFailure wraps a failure signalled by a live engine handle.
// The cause is carried unmodified so callers can inspect it.
func EngineFailure(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEngineFailure,
		Detail: detail,
		Cause:  cause,
	}
}

// ExecFailure wraps a non-zero exit or spawn failure of an external executable
func ExecFailure(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseRun,
		Kind:   KindExecFailure,
		Detail: detail,
		Cause:  cause,
	}
}

// EmptySeries creates an error for a series with no samples
func EmptySeries(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEmptySeries,
		Detail: fmt.Sprintf("%s has no samples", what),
	}
}

// NonmonotonicSeries creates an error for a time axis that fails to increase
func NonmonotonicSeries(phase Phase, index int, prev, cur float64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNonmonotonicSeries,
		Detail: fmt.Sprintf("time axis not strictly increasing at index %d: %g -> %g", index, prev, cur),
		Value:  index,
	}
}

// LengthMismatch creates an error for co-indexed axes of unequal length
func LengthMismatch(phase Phase, times, values int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLengthMismatch,
		Detail: fmt.Sprintf("time axis has %d samples, value axis has %d", times, values),
	}
}

// NotInitialized creates a not-initialized error for a missing handle or model
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Load creates an artifact loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
