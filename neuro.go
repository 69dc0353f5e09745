package neuroruntime

import (
	"context"

	"github.com/neurobench/neuro-runtime/quantity"
	"github.com/neurobench/neuro-runtime/trace"
)

// Attrs maps model attribute names to values. Semantics of the names are
// engine-specific; backends push changed values into the engine's own
// variables so they are observable on the next run.
type Attrs map[string]float64

// Merge copies every key of other into a, overwriting existing keys and
// keeping the rest. Repeated partial configuration composes.
func (a Attrs) Merge(other Attrs) {
	for k, v := range other {
		a[k] = v
	}
}

// Clone returns an independent copy of a.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Well-known run parameter keys. Backends may accept additional
// engine-specific keys; unknown keys are passed through to the engine.
const (
	ParamStopTime    = "t_stop"      // simulation stop time, ms
	ParamTimeStep    = "dt"          // fixed integration step, ms
	ParamTolerance   = "atol"        // absolute tolerance for variable-step integration
	ParamIntegration = "integration" // "fixed" or "variable"
)

// Integration mode values for ParamIntegration.
const (
	IntegrationFixed    = "fixed"
	IntegrationVariable = "variable"
)

// RunParams maps run parameter names to values.
type RunParams map[string]any

// Merge copies every key of other into p, overwriting existing keys and
// keeping the rest.
func (p RunParams) Merge(other RunParams) {
	for k, v := range other {
		p[k] = v
	}
}

// Clone returns an independent copy of p.
func (p RunParams) Clone() RunParams {
	out := make(RunParams, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Float reads a numeric parameter. It accepts float64, int, and the numeric
// types YAML decoding produces.
func (p RunParams) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Results holds the outcome of the most recent run on a Backend. Each run
// overwrites VM and T; RunNumber increments monotonically per instance,
// starting at 1.
//
// Finite reports whether every harvested sample is a finite number. A model
// producing NaN or Inf is a valid experimental outcome, not an error, so it
// is carried as data rather than failing the run.
type Results struct {
	VM        []float64 // membrane potential, mV
	T         []float64 // sample times, ms
	RunNumber int
	Finite    bool
}

// Backend is the contract every simulator backend implements. A Backend owns
// at most one live engine handle; it is not safe for concurrent use and one
// run must complete before the next starts on the same instance.
//
// Lifecycle: construct, LoadModel once, then any sequence of SetAttrs /
// SetRunParams / InjectSquareCurrent / MembranePotential. LoadModel may
// rebind the internal engine handle; callers must use the returned Backend.
// Re-loading after the handle is bound is not supported; construct a new
// Backend instead.
type Backend interface {
	// Name identifies the backend variant, e.g. "jNeuroML" or "NEURON".
	Name() string

	// LoadModel locates or generates the engine-loadable translation of the
	// model description, binds the engine handle, and resolves the stimulus
	// and cell component identifiers. Idempotent for a given on-disk
	// artifact.
	LoadModel(ctx context.Context) (Backend, error)

	// SetAttrs merges attrs into the attribute mapping and propagates the
	// values into the engine. Engine rejection of a name is returned, never
	// swallowed.
	SetAttrs(attrs Attrs) error

	// SetRunParams merges params into the run parameter mapping. Backends
	// with a live handle re-arm the engine's recording instrumentation,
	// since engines may discard it on parameter change.
	SetRunParams(params RunParams) error

	// InjectSquareCurrent normalizes the descriptor to the engine's units,
	// configures the stimulus component, and triggers exactly one run. The
	// caller's descriptor is never mutated.
	InjectSquareCurrent(ctx context.Context, stim quantity.SquareCurrent) error

	// MembranePotential returns the last run's voltage as a uniformly
	// sampled series in millivolts with an explicit sampling period in
	// milliseconds, resampling adaptive-step engine output as needed.
	MembranePotential() (*trace.AnalogSignal, error)

	// LocalRun executes one simulation and harvests results. Blocks until
	// the engine completes.
	LocalRun(ctx context.Context) (*Results, error)

	// Results returns the most recent run's results, or nil before the
	// first run.
	Results() *Results
}
