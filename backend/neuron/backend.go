package neuron

import (
	"context"
	"fmt"

	neuroruntime "github.com/neurobench/neuro-runtime"
	"github.com/neurobench/neuro-runtime/artifact"
	"github.com/neurobench/neuro-runtime/errors"
	"github.com/neurobench/neuro-runtime/lems"
	"github.com/neurobench/neuro-runtime/quantity"
	"github.com/neurobench/neuro-runtime/trace"
)

// DefaultTimeStep is the fixed integration step applied until the caller
// sets one, in milliseconds. Powers of two preferred.
const DefaultTimeStep = 1.0 / 128.0

// Recorded vector names armed on the interpreter. The engine may discard
// recording instrumentation when run parameters change, so these are
// re-armed on every parameter update.
const (
	timeVector    = "v_time"
	voltageVector = "v_v_of0"
)

// Interp is a live, stateful command interface to the engine: statements
// are interpreted against the engine's global state, named scalars can be
// written directly, and recorded vectors read back after a run. A handle is
// exclusively owned by one Backend; the underlying engine is process-global,
// so live handles must not be shared across goroutines.
type Interp interface {
	// Exec interprets one statement, e.g. an assignment or "run()".
	Exec(stmt string) error
	// SetVar writes a named engine scalar such as tstop or dt.
	SetVar(name string, value float64) error
	// UseVariableStep toggles adaptive integration with the given absolute
	// tolerance. atol is ignored when active is false.
	UseVariableStep(active bool, atol float64) error
	// VariableStep reports whether adaptive integration is active.
	VariableStep() bool
	// Vector returns the contents of a recorded vector.
	Vector(name string) ([]float64, error)
}

// Loader binds an on-disk model translation into a live interpreter handle.
// Binding imports engine-global state; the returned handle replaces any
// previous one, which is why LoadModel returns the re-bound Backend.
type Loader interface {
	Load(ctx context.Context, artifactPath string) (Interp, error)
}

// Options configures a Backend.
type Options struct {
	// LEMSPath is the declarative model description.
	LEMSPath string
	// Loader binds the generated translation. Required.
	Loader Loader
	// Resolver locates or generates the translation. Zero value uses the
	// jNeuroML compiler with last-match component classification.
	Resolver artifact.Resolver
}

// Backend drives a native engine through a live interpreter handle,
// issuing incremental commands instead of delegating whole runs. It holds
// the handle for its lifetime; re-loading requires a new Backend.
type Backend struct {
	opts       Options
	interp     Interp
	resolution lems.Resolution
	attrs      neuroruntime.Attrs
	params     neuroruntime.RunParams
	fixedStep  float64
	results    *neuroruntime.Results
	runs       int
}

// New creates an unconfigured Backend; call LoadModel before anything else.
func New(opts Options) *Backend {
	return &Backend{
		opts:      opts,
		attrs:     make(neuroruntime.Attrs),
		params:    make(neuroruntime.RunParams),
		fixedStep: DefaultTimeStep,
	}
}

func (b *Backend) Name() string { return "NEURON" }

// LoadModel resolves the model translation, binds the live handle, and
// resolves the stimulus and cell component identifiers. Idempotent once
// bound.
func (b *Backend) LoadModel(ctx context.Context) (neuroruntime.Backend, error) {
	if b.interp != nil {
		return b, nil
	}
	if b.opts.Loader == nil {
		return nil, errors.NotInitialized(errors.PhaseLoad, "interpreter loader")
	}

	a, err := b.opts.Resolver.Resolve(ctx, b.opts.LEMSPath, artifact.TargetNeuron)
	if err != nil {
		return nil, err
	}

	interp, err := b.opts.Loader.Load(ctx, a.Path)
	if err != nil {
		return nil, errors.EngineFailure(errors.PhaseLoad, "bind model translation", err)
	}

	b.interp = interp
	b.resolution = a.Resolution
	return b, nil
}

// SetAttrs merges attrs and pushes each value into the engine's cell
// variables so the change is observable on the next run.
func (b *Backend) SetAttrs(attrs neuroruntime.Attrs) error {
	if b.interp == nil {
		return errors.NotInitialized(errors.PhaseConfig, "engine handle")
	}
	if err := b.resolution.Require(); err != nil {
		return err
	}

	b.attrs.Merge(attrs)
	cell := b.resolution.CellID
	for name, value := range attrs {
		stmt := fmt.Sprintf("m_%s_%s_pop[0].%s=%g", cell, cell, name, value)
		if err := b.interp.Exec(stmt); err != nil {
			return errors.EngineFailure(errors.PhaseConfig, "set attribute "+name, err)
		}
	}
	return nil
}

// SetRunParams merges params, applies the well-known integration settings,
// pushes the rest into the engine, and re-arms the recording vectors.
func (b *Backend) SetRunParams(params neuroruntime.RunParams) error {
	if b.interp == nil {
		return errors.NotInitialized(errors.PhaseConfig, "engine handle")
	}

	b.params.Merge(params)

	for name := range params {
		switch name {
		case neuroruntime.ParamStopTime:
			v, ok := b.params.Float(name)
			if !ok {
				return errors.InvalidInput(errors.PhaseConfig, "t_stop must be numeric, in ms")
			}
			if err := b.interp.SetVar("tstop", v); err != nil {
				return errors.EngineFailure(errors.PhaseConfig, "set stop time", err)
			}
		case neuroruntime.ParamTimeStep:
			v, ok := b.params.Float(name)
			if !ok {
				return errors.InvalidInput(errors.PhaseConfig, "dt must be numeric, in ms")
			}
			b.fixedStep = v
			if err := b.interp.SetVar("dt", v); err != nil {
				return errors.EngineFailure(errors.PhaseConfig, "set time step", err)
			}
		case neuroruntime.ParamIntegration, neuroruntime.ParamTolerance:
			if err := b.applyIntegrationMode(); err != nil {
				return err
			}
		default:
			if err := b.pushParam(name); err != nil {
				return err
			}
		}
	}

	return b.armRecorders()
}

func (b *Backend) applyIntegrationMode() error {
	mode, _ := b.params[neuroruntime.ParamIntegration].(string)
	atol, ok := b.params.Float(neuroruntime.ParamTolerance)
	if !ok {
		atol = 0.001
	}
	variable := mode == neuroruntime.IntegrationVariable
	if err := b.interp.UseVariableStep(variable, atol); err != nil {
		return errors.EngineFailure(errors.PhaseConfig, "set integration mode", err)
	}
	return nil
}

func (b *Backend) pushParam(name string) error {
	v, ok := b.params.Float(name)
	if !ok {
		// Non-numeric engine-specific parameters stay in the mapping only.
		return nil
	}
	if err := b.resolution.Require(); err != nil {
		return err
	}
	cell := b.resolution.CellID
	stmt := fmt.Sprintf("m_%s_%s_pop[0].%s=%g", cell, cell, name, v)
	if err := b.interp.Exec(stmt); err != nil {
		return errors.EngineFailure(errors.PhaseConfig, "set run parameter "+name, err)
	}
	return nil
}

// armRecorders (re)creates the recording vectors for the observables read
// back after a run.
func (b *Backend) armRecorders() error {
	if err := b.resolution.Require(); err != nil {
		return err
	}
	cell := b.resolution.CellID
	stmts := []string{
		fmt.Sprintf(" { %s = new Vector() } ", timeVector),
		fmt.Sprintf(" { %s.record(&t) } ", timeVector),
		fmt.Sprintf(" { %s = new Vector() } ", voltageVector),
		fmt.Sprintf(" { %s.record(&%s_pop[0].v(0.5)) } ", voltageVector, cell),
	}
	for _, stmt := range stmts {
		if err := b.interp.Exec(stmt); err != nil {
			return errors.EngineFailure(errors.PhaseConfig, "arm recording vector", err)
		}
	}
	return nil
}

// InjectSquareCurrent normalizes the descriptor, writes the stimulus fields
// into the engine's explicit input, and triggers exactly one run. The
// caller's descriptor is never mutated; normalization works on a copy.
func (b *Backend) InjectSquareCurrent(ctx context.Context, stim quantity.SquareCurrent) error {
	if b.interp == nil {
		return errors.NotInitialized(errors.PhaseInject, "engine handle")
	}
	if err := b.resolution.Require(); err != nil {
		return err
	}

	n, err := stim.Normalize()
	if err != nil {
		return err
	}

	for _, a := range n.Assignments(b.resolution.StimulusID, b.resolution.CellID) {
		if err := b.interp.Exec(a.Name + "=" + a.Value); err != nil {
			return errors.EngineFailure(errors.PhaseInject, "configure stimulus "+a.Name, err)
		}
	}

	_, err = b.LocalRun(ctx)
	return err
}

// LocalRun issues a run command to the live handle and harvests the
// recorded vectors. Blocks until the engine completes; an engine failure
// propagates unmodified inside the returned error.
func (b *Backend) LocalRun(ctx context.Context) (*neuroruntime.Results, error) {
	if b.interp == nil {
		return nil, errors.NotInitialized(errors.PhaseRun, "engine handle")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := b.interp.Exec("run()"); err != nil {
		return nil, errors.EngineFailure(errors.PhaseRun, "run()", err)
	}

	vm, err := b.interp.Vector(voltageVector)
	if err != nil {
		return nil, errors.EngineFailure(errors.PhaseHarvest, "read voltage vector", err)
	}
	t, err := b.interp.Vector(timeVector)
	if err != nil {
		return nil, errors.EngineFailure(errors.PhaseHarvest, "read time vector", err)
	}

	b.runs++
	b.results = &neuroruntime.Results{
		VM:        vm,
		T:         t,
		RunNumber: b.runs,
		Finite:    trace.Finite(vm),
	}
	return b.results, nil
}

// MembranePotential returns the last run's voltage as a uniform series.
// Variable-step output is reconstructed at the configured fixed step; all
// step bookkeeping for the conversion is request-scoped.
func (b *Backend) MembranePotential() (*trace.AnalogSignal, error) {
	if b.results == nil {
		return nil, errors.NotInitialized(errors.PhaseHarvest, "results")
	}

	step := b.fixedStep
	if !b.interp.VariableStep() {
		return trace.NewMembranePotential(b.results.VM, step), nil
	}

	values, err := trace.Resample(b.results.T, b.results.VM, step)
	if err != nil {
		return nil, err
	}
	return trace.NewMembranePotential(values, step), nil
}

// Results returns the most recent run's results, or nil before the first run.
func (b *Backend) Results() *neuroruntime.Results { return b.results }

// Attrs returns the merged attribute mapping.
func (b *Backend) Attrs() neuroruntime.Attrs { return b.attrs }

// RunParams returns the merged run parameter mapping.
func (b *Backend) RunParams() neuroruntime.RunParams { return b.params }

var _ neuroruntime.Backend = (*Backend)(nil)
