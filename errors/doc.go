// Package errors provides structured error types for the neuro-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: field path, offending
// value, and cause chain. Engine failures are wrapped, never replaced: the
// engine's own error is always reachable through Unwrap.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseNormalize, errors.KindUnitFormat).
//		Path("injected_square_current", "amplitude").
//		Value("-10.0 mA").
//		Detail("expected picoamp-tagged amplitude").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnitFormat(errors.PhaseNormalize, path, "-10.0 mA", "pA")
//	err := errors.UnresolvedComponent(errors.PhaseInject, "stimulus")
//
// All errors implement the standard error interface and support errors.Is/As.
//
// Note the deliberate gap in the taxonomy: a trace containing non-finite
// values is NOT an error here. Numerical instability is a valid experimental
// outcome and is reported as data (see trace.AnalogSignal.Finite).
package errors
