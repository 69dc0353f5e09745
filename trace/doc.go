// Package trace converts engine output into the uniform time-series
// representation the rest of the system consumes.
//
// Two representations coexist in the domain: an engine's native output,
// which may sit on an irregular time axis when the solver steps adaptively,
// and the uniform series callers score against reference data. Resample
// reconstructs the latter from the former by linear interpolation, in one
// forward pass, preserving every explicit native sample to within
// interpolation error and covering the native span exactly.
//
// AnalogSignal carries the uniform result together with its unit tags:
// millivolts for values, milliseconds for the sampling period.
package trace
