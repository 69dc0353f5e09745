package embedded

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	neuroruntime "github.com/neurobench/neuro-runtime"
	"github.com/neurobench/neuro-runtime/artifact"
	"github.com/neurobench/neuro-runtime/engine"
	"github.com/neurobench/neuro-runtime/errors"
	"github.com/neurobench/neuro-runtime/lems"
	"github.com/neurobench/neuro-runtime/quantity"
	"github.com/neurobench/neuro-runtime/trace"
)

// DefaultTimeStep is the fixed integration step applied until the caller
// sets one, in milliseconds.
const DefaultTimeStep = 1.0 / 128.0

// Solver is the live solver surface the backend drives. engine.Solver
// implements it.
type Solver interface {
	SetAttr(ctx context.Context, name string, value float64) error
	SetStopTime(ctx context.Context, ms float64) error
	SetTimeStep(ctx context.Context, ms float64) error
	UseVariableStep(ctx context.Context, active bool, atol float64) error
	VariableStep() bool
	SetStimulus(ctx context.Context, ampNanoAmps, delayMs, durationMs float64) error
	Run(ctx context.Context) error
	Harvest(ctx context.Context) (t, vm []float64, err error)
	Close(ctx context.Context) error
}

// Loader instantiates a solver from an on-disk model translation.
type Loader interface {
	Load(ctx context.Context, artifactPath string) (Solver, error)
}

// EngineLoader loads translations into a shared wazero engine.
type EngineLoader struct {
	Engine *engine.Engine
}

func (l EngineLoader) Load(ctx context.Context, artifactPath string) (Solver, error) {
	wasmBytes, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, errors.Load("read model translation", err)
	}
	s, err := l.Engine.Load(ctx, filepath.Base(artifactPath), wasmBytes)
	if err != nil {
		return nil, errors.EngineFailure(errors.PhaseLoad, "instantiate model translation", err)
	}
	return s, nil
}

// Options configures a Backend.
type Options struct {
	// LEMSPath is the declarative model description.
	LEMSPath string
	// Loader instantiates the compiled translation. Required.
	Loader Loader
	// Resolver locates or generates the translation.
	Resolver artifact.Resolver
}

// Backend runs the model inside the process on a WebAssembly solver
// instance. Each instance owns isolated state, so independent Backends can
// run concurrently, unlike the native-handle variant.
type Backend struct {
	opts       Options
	solver     Solver
	resolution lems.Resolution
	attrs      neuroruntime.Attrs
	params     neuroruntime.RunParams
	fixedStep  float64
	results    *neuroruntime.Results
	runs       int
}

func New(opts Options) *Backend {
	return &Backend{
		opts:      opts,
		attrs:     make(neuroruntime.Attrs),
		params:    make(neuroruntime.RunParams),
		fixedStep: DefaultTimeStep,
	}
}

func (b *Backend) Name() string { return "embedded" }

// LoadModel resolves the WebAssembly translation of the description,
// instantiates a solver from it, and resolves the stimulus and cell
// component identifiers. Idempotent once bound.
func (b *Backend) LoadModel(ctx context.Context) (neuroruntime.Backend, error) {
	if b.solver != nil {
		return b, nil
	}
	if b.opts.Loader == nil {
		return nil, errors.NotInitialized(errors.PhaseLoad, "solver loader")
	}

	a, err := b.opts.Resolver.Resolve(ctx, b.opts.LEMSPath, artifact.TargetEmbedded)
	if err != nil {
		return nil, err
	}
	solver, err := b.opts.Loader.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}

	b.solver = solver
	b.resolution = a.Resolution
	return b, nil
}

// SetAttrs merges attrs and writes each value into the solver.
func (b *Backend) SetAttrs(attrs neuroruntime.Attrs) error {
	if b.solver == nil {
		return errors.NotInitialized(errors.PhaseConfig, "solver")
	}

	b.attrs.Merge(attrs)
	for name, value := range attrs {
		if err := b.solver.SetAttr(context.Background(), name, value); err != nil {
			return errors.EngineFailure(errors.PhaseConfig, "set attribute "+name, err)
		}
	}
	return nil
}

// SetRunParams merges params and applies the well-known keys to the solver.
// The solver re-records its series on every run, so there is no recording
// instrumentation to re-arm.
func (b *Backend) SetRunParams(params neuroruntime.RunParams) error {
	if b.solver == nil {
		return errors.NotInitialized(errors.PhaseConfig, "solver")
	}

	b.params.Merge(params)
	ctx := context.Background()

	for name := range params {
		switch name {
		case neuroruntime.ParamStopTime:
			v, ok := b.params.Float(name)
			if !ok {
				return errors.InvalidInput(errors.PhaseConfig, "t_stop must be numeric, in ms")
			}
			if err := b.solver.SetStopTime(ctx, v); err != nil {
				return errors.EngineFailure(errors.PhaseConfig, "set stop time", err)
			}
		case neuroruntime.ParamTimeStep:
			v, ok := b.params.Float(name)
			if !ok {
				return errors.InvalidInput(errors.PhaseConfig, "dt must be numeric, in ms")
			}
			b.fixedStep = v
			if err := b.solver.SetTimeStep(ctx, v); err != nil {
				return errors.EngineFailure(errors.PhaseConfig, "set time step", err)
			}
		case neuroruntime.ParamIntegration, neuroruntime.ParamTolerance:
			mode, _ := b.params[neuroruntime.ParamIntegration].(string)
			atol, ok := b.params.Float(neuroruntime.ParamTolerance)
			if !ok {
				atol = 0.001
			}
			active := mode == neuroruntime.IntegrationVariable
			if err := b.solver.UseVariableStep(ctx, active, atol); err != nil {
				return errors.EngineFailure(errors.PhaseConfig, "set integration mode", err)
			}
		default:
			v, ok := b.params.Float(name)
			if !ok {
				continue
			}
			if err := b.solver.SetAttr(ctx, name, v); err != nil {
				return errors.EngineFailure(errors.PhaseConfig, "set run parameter "+name, err)
			}
		}
	}
	return nil
}

// InjectSquareCurrent normalizes the descriptor, configures the solver's
// stimulus, and triggers exactly one run.
func (b *Backend) InjectSquareCurrent(ctx context.Context, stim quantity.SquareCurrent) error {
	if b.solver == nil {
		return errors.NotInitialized(errors.PhaseInject, "solver")
	}
	if err := b.resolution.Require(); err != nil {
		return err
	}

	n, err := stim.Normalize()
	if err != nil {
		return err
	}
	delay, err := strconv.ParseFloat(n.DelayMs, 64)
	if err != nil {
		return errors.Wrap(errors.PhaseInject, errors.KindInvalidInput, err, "stimulus delay")
	}
	duration, err := strconv.ParseFloat(n.DurationMs, 64)
	if err != nil {
		return errors.Wrap(errors.PhaseInject, errors.KindInvalidInput, err, "stimulus duration")
	}

	if err := b.solver.SetStimulus(ctx, n.AmplitudeNanoAmps, delay, duration); err != nil {
		return errors.EngineFailure(errors.PhaseInject, "configure stimulus", err)
	}

	_, err = b.LocalRun(ctx)
	return err
}

// LocalRun executes one simulation on the solver and harvests its series.
func (b *Backend) LocalRun(ctx context.Context) (*neuroruntime.Results, error) {
	if b.solver == nil {
		return nil, errors.NotInitialized(errors.PhaseRun, "solver")
	}

	if err := b.solver.Run(ctx); err != nil {
		return nil, errors.EngineFailure(errors.PhaseRun, "run", err)
	}
	t, vm, err := b.solver.Harvest(ctx)
	if err != nil {
		return nil, errors.EngineFailure(errors.PhaseHarvest, "harvest series", err)
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

// MembranePotential returns the last run's voltage as a uniform series,
// resampling adaptive-step solver output at the configured fixed step.
func (b *Backend) MembranePotential() (*trace.AnalogSignal, error) {
	if b.results == nil {
		return nil, errors.NotInitialized(errors.PhaseHarvest, "results")
	}

	step := b.fixedStep
	if !b.solver.VariableStep() {
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

// Close releases the solver instance.
func (b *Backend) Close(ctx context.Context) error {
	if b.solver == nil {
		return nil
	}
	return b.solver.Close(ctx)
}

var _ neuroruntime.Backend = (*Backend)(nil)
var _ Solver = (*engine.Solver)(nil)
