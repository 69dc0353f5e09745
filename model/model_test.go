package model

import (
	"context"
	"errors"
	"testing"

	neuroruntime "github.com/neurobench/neuro-runtime"
	rterrors "github.com/neurobench/neuro-runtime/errors"
	"github.com/neurobench/neuro-runtime/quantity"
	"github.com/neurobench/neuro-runtime/trace"
)

// stubBackend records the call sequence the Model drives.
type stubBackend struct {
	loaded  bool
	attrs   neuroruntime.Attrs
	params  neuroruntime.RunParams
	injects []quantity.SquareCurrent
	results *neuroruntime.Results
}

func newStubBackend() *stubBackend {
	return &stubBackend{attrs: make(neuroruntime.Attrs), params: make(neuroruntime.RunParams)}
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) LoadModel(context.Context) (neuroruntime.Backend, error) {
	s.loaded = true
	return s, nil
}

func (s *stubBackend) SetAttrs(attrs neuroruntime.Attrs) error {
	s.attrs.Merge(attrs)
	return nil
}

func (s *stubBackend) SetRunParams(params neuroruntime.RunParams) error {
	s.params.Merge(params)
	return nil
}

func (s *stubBackend) InjectSquareCurrent(ctx context.Context, stim quantity.SquareCurrent) error {
	s.injects = append(s.injects, stim)
	_, err := s.LocalRun(ctx)
	return err
}

func (s *stubBackend) MembranePotential() (*trace.AnalogSignal, error) {
	return trace.NewMembranePotential([]float64{-65, -64}, 0.5), nil
}

func (s *stubBackend) LocalRun(context.Context) (*neuroruntime.Results, error) {
	run := 1
	if s.results != nil {
		run = s.results.RunNumber + 1
	}
	s.results = &neuroruntime.Results{VM: []float64{-65}, T: []float64{0}, RunNumber: run, Finite: true}
	return s.results, nil
}

func (s *stubBackend) Results() *neuroruntime.Results { return s.results }

func testRegistry(stub *stubBackend) *Registry {
	r := NewRegistry()
	r.Register("stub", func(context.Context, Config) (neuroruntime.Backend, error) {
		return stub, nil
	})
	return r
}

func TestNewFromRegistry_LoadsModel(t *testing.T) {
	stub := newStubBackend()
	m, err := NewFromRegistry(context.Background(), testRegistry(stub), "stub", Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !stub.loaded {
		t.Error("backend not loaded")
	}
	if m.BackendName() != "stub" {
		t.Errorf("name = %q", m.BackendName())
	}
}

func TestLookupUnknownBackend(t *testing.T) {
	_, err := NewFromRegistry(context.Background(), NewRegistry(), "nope", Config{})
	if !errors.Is(err, &rterrors.Error{Phase: rterrors.PhaseLoad, Kind: rterrors.KindNotFound}) {
		t.Errorf("error = %v, want not_found", err)
	}
}

func TestDefaultRegistryNames(t *testing.T) {
	names := Default().Names()
	want := []string{"NEURON", "embedded", "jNeuroML"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
		}
	}
}

func TestInjectSetsDefaultStopTime(t *testing.T) {
	stub := newStubBackend()
	m, err := NewFromRegistry(context.Background(), testRegistry(stub), "stub", Config{})
	if err != nil {
		t.Fatal(err)
	}

	stim := DefaultStimulus(quantity.PicoAmps(-10))
	if err := m.InjectSquareCurrent(context.Background(), stim); err != nil {
		t.Fatal(err)
	}

	got, ok := stub.params.Float(neuroruntime.ParamStopTime)
	if !ok || got != 600 {
		t.Errorf("t_stop = %v (ok=%v), want 600", got, ok)
	}
	if len(stub.injects) != 1 {
		t.Errorf("injected %d times, want 1", len(stub.injects))
	}
}

func TestInjectKeepsExplicitStopTime(t *testing.T) {
	stub := newStubBackend()
	m, err := NewFromRegistry(context.Background(), testRegistry(stub), "stub", Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := m.SetRunParams(neuroruntime.RunParams{neuroruntime.ParamStopTime: 1000.0}); err != nil {
		t.Fatal(err)
	}
	if err := m.InjectSquareCurrent(context.Background(), DefaultStimulus(quantity.PicoAmps(-10))); err != nil {
		t.Fatal(err)
	}

	got, _ := stub.params.Float(neuroruntime.ParamStopTime)
	if got != 1000 {
		t.Errorf("t_stop = %v, want explicit 1000 preserved", got)
	}
}

func TestDefaultStimulusTiming(t *testing.T) {
	stim := DefaultStimulus(quantity.PicoAmps(100))
	if stim.Delay.Value != 100 || stim.Duration.Value != 300 {
		t.Errorf("protocol timing = %v / %v", stim.Delay, stim.Duration)
	}
	if got := StopTimeFor(stim); got != 600 {
		t.Errorf("stop time = %v, want 600", got)
	}
}
