package model

import (
	"context"

	neuroruntime "github.com/neurobench/neuro-runtime"
	"github.com/neurobench/neuro-runtime/artifact"
	"github.com/neurobench/neuro-runtime/quantity"
	"github.com/neurobench/neuro-runtime/trace"
)

// Default injection protocol, in milliseconds: the stimulus starts after a
// settling period, and the run continues past its end to capture recovery.
const (
	DefaultDelayMs    = 100.0
	DefaultDurationMs = 300.0
	stopMarginMs      = 200.0
)

// DefaultStimulus builds a square current descriptor with the default
// protocol timing around the given amplitude.
func DefaultStimulus(amplitude quantity.Quantity) quantity.SquareCurrent {
	return quantity.SquareCurrent{
		Amplitude: amplitude,
		Delay:     quantity.Milliseconds(DefaultDelayMs),
		Duration:  quantity.Milliseconds(DefaultDurationMs),
	}
}

// StopTimeFor returns the stop time covering a stimulus plus recovery, in
// milliseconds.
func StopTimeFor(stim quantity.SquareCurrent) float64 {
	return stim.Delay.Value + stim.Duration.Value + stopMarginMs
}

// Model binds a loaded backend to a declarative model description and
// exposes the run sequence callers drive: configure, inject, read the
// membrane potential.
type Model struct {
	name    string
	backend neuroruntime.Backend
	stopSet bool
}

// New constructs the named backend from the default registry and loads the
// model into it.
func New(ctx context.Context, backendName string, cfg Config) (*Model, error) {
	return NewFromRegistry(ctx, Default(), backendName, cfg)
}

// NewFromRegistry constructs the named backend from an explicit registry.
func NewFromRegistry(ctx context.Context, reg *Registry, backendName string, cfg Config) (*Model, error) {
	factory, err := reg.Lookup(backendName)
	if err != nil {
		return nil, err
	}
	b, err := factory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	loaded, err := b.LoadModel(ctx)
	if err != nil {
		return nil, err
	}
	return &Model{name: backendName, backend: loaded}, nil
}

// BackendName returns the name the backend was constructed under.
func (m *Model) BackendName() string { return m.name }

// Backend exposes the underlying backend for variant-specific access.
func (m *Model) Backend() neuroruntime.Backend { return m.backend }

// SetAttrs merges model attributes into the backend.
func (m *Model) SetAttrs(attrs neuroruntime.Attrs) error {
	return m.backend.SetAttrs(attrs)
}

// SetRunParams merges run parameters into the backend.
func (m *Model) SetRunParams(params neuroruntime.RunParams) error {
	if _, ok := params[neuroruntime.ParamStopTime]; ok {
		m.stopSet = true
	}
	return m.backend.SetRunParams(params)
}

// InjectSquareCurrent configures the stimulus, sets the stop time to cover
// it if the caller has not set one, and triggers exactly one run.
func (m *Model) InjectSquareCurrent(ctx context.Context, stim quantity.SquareCurrent) error {
	if !m.stopSet {
		err := m.SetRunParams(neuroruntime.RunParams{
			neuroruntime.ParamStopTime: StopTimeFor(stim),
		})
		if err != nil {
			return err
		}
	}
	return m.backend.InjectSquareCurrent(ctx, stim)
}

// MembranePotential returns the last run's voltage as a uniform series.
func (m *Model) MembranePotential() (*trace.AnalogSignal, error) {
	return m.backend.MembranePotential()
}

// Results returns the most recent run's results.
func (m *Model) Results() *neuroruntime.Results {
	return m.backend.Results()
}

func resolver(cfg Config) artifact.Resolver {
	return artifact.Resolver{
		Compiler: &artifact.JNeuroML{Executable: cfg.Executable},
		Policy:   cfg.Policy,
	}
}
