// Package model is the high-level binding: a registry of backend variants
// plus a Model type that constructs one, loads the declarative description
// into it, and drives the standard run sequence.
package model
