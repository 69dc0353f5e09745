// Package quantity provides typed physical quantities and the unit
// normalization layer between caller-facing stimulus descriptors and
// engine-native conventions.
//
// Callers describe a square current in picoamperes and milliseconds; the
// native engine expects nanoamperes (NEURON IClamp convention). Conversion
// is explicit per (source, target) unit pair and fails on an unexpected
// suffix instead of silently passing an unconverted value through:
//
//	q, err := quantity.ParseAs("-10.0 pA", quantity.PicoAmp)
//	n, err := q.Convert(quantity.NanoAmp) // -0.01 nA
//
// Normalization never mutates the caller's descriptor; SquareCurrent is a
// value type and Normalize returns a fresh engine-native record.
package quantity
