package embedded

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	neuroruntime "github.com/neurobench/neuro-runtime"
	rterrors "github.com/neurobench/neuro-runtime/errors"
	"github.com/neurobench/neuro-runtime/quantity"
)

// fakeSolver simulates a solver instance: it stores configuration and
// synthesizes series on Run.
type fakeSolver struct {
	attrs    map[string]float64
	tstop    float64
	dt       float64
	variable bool
	atol     float64
	stimulus [3]float64
	runs     int
	runErr   error
	closed   bool
}

func newFakeSolver() *fakeSolver {
	return &fakeSolver{attrs: make(map[string]float64), tstop: 300, dt: DefaultTimeStep}
}

func (s *fakeSolver) SetAttr(_ context.Context, name string, value float64) error {
	s.attrs[name] = value
	return nil
}

func (s *fakeSolver) SetStopTime(_ context.Context, ms float64) error { s.tstop = ms; return nil }
func (s *fakeSolver) SetTimeStep(_ context.Context, ms float64) error { s.dt = ms; return nil }

func (s *fakeSolver) UseVariableStep(_ context.Context, active bool, atol float64) error {
	s.variable, s.atol = active, atol
	return nil
}

func (s *fakeSolver) VariableStep() bool { return s.variable }

func (s *fakeSolver) SetStimulus(_ context.Context, amp, delay, dur float64) error {
	s.stimulus = [3]float64{amp, delay, dur}
	return nil
}

func (s *fakeSolver) Run(context.Context) error {
	if s.runErr != nil {
		return s.runErr
	}
	s.runs++
	return nil
}

func (s *fakeSolver) Harvest(context.Context) ([]float64, []float64, error) {
	var t, vm []float64
	if s.variable {
		for x := 0.0; x <= s.tstop; {
			t = append(t, x)
			vm = append(vm, -65+x/10)
			x += s.dt * (1 + 2*math.Abs(math.Sin(x)))
		}
	} else {
		for i := 0; float64(i)*s.dt <= s.tstop; i++ {
			t = append(t, float64(i)*s.dt)
			vm = append(vm, -65+float64(i)*s.dt/10)
		}
	}
	return t, vm, nil
}

func (s *fakeSolver) Close(context.Context) error { s.closed = true; return nil }

type fakeLoader struct {
	solver Solver
	calls  int
	path   string
}

func (l *fakeLoader) Load(_ context.Context, artifactPath string) (Solver, error) {
	l.calls++
	l.path = artifactPath
	return l.solver, nil
}

const modelDoc = `<Lems>
    <izhikevich2007Cell id="RS"/>
    <pulseGenerator id="stim1"/>
</Lems>`

// writeModel creates a description plus the expected .wasm translation so
// resolution never invokes the compiler.
func writeModel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "LEMS_test.xml")
	if err := os.WriteFile(path, []byte(modelDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	wasm := filepath.Join(dir, "LEMS_test.wasm")
	if err := os.WriteFile(wasm, []byte{0x00, 0x61, 0x73, 0x6d}, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadedBackend(t *testing.T, solver Solver) *Backend {
	t.Helper()
	b := New(Options{LEMSPath: writeModel(t), Loader: &fakeLoader{solver: solver}})
	if _, err := b.LoadModel(context.Background()); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestLoadModel(t *testing.T) {
	solver := newFakeSolver()
	loader := &fakeLoader{solver: solver}
	b := New(Options{LEMSPath: writeModel(t), Loader: loader})

	if _, err := b.LoadModel(context.Background()); err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(loader.path) != ".wasm" {
		t.Errorf("loaded %q, want the .wasm translation", loader.path)
	}
	if b.resolution.StimulusID != "stim1" || b.resolution.CellID != "RS" {
		t.Errorf("resolution = %+v", b.resolution)
	}

	if _, err := b.LoadModel(context.Background()); err != nil {
		t.Fatal(err)
	}
	if loader.calls != 1 {
		t.Errorf("loader called %d times, want 1", loader.calls)
	}
}

func TestSetAttrs(t *testing.T) {
	solver := newFakeSolver()
	b := loadedBackend(t, solver)

	if err := b.SetAttrs(neuroruntime.Attrs{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if err := b.SetAttrs(neuroruntime.Attrs{"b": 2}); err != nil {
		t.Fatal(err)
	}

	attrs := b.Attrs()
	if len(attrs) != 2 || attrs["a"] != 1 || attrs["b"] != 2 {
		t.Errorf("attrs = %v", attrs)
	}
	if solver.attrs["a"] != 1 || solver.attrs["b"] != 2 {
		t.Errorf("solver attrs = %v", solver.attrs)
	}
}

func TestInjectSquareCurrent(t *testing.T) {
	solver := newFakeSolver()
	b := loadedBackend(t, solver)

	stim := quantity.SquareCurrent{
		Amplitude: quantity.PicoAmps(-10),
		Delay:     quantity.Milliseconds(100),
		Duration:  quantity.Milliseconds(500),
	}
	if err := b.InjectSquareCurrent(context.Background(), stim); err != nil {
		t.Fatal(err)
	}

	if solver.stimulus != [3]float64{-0.01, 100, 500} {
		t.Errorf("stimulus = %v", solver.stimulus)
	}
	if solver.runs != 1 {
		t.Errorf("solver ran %d times, want exactly 1", solver.runs)
	}
	if b.Results().RunNumber != 1 {
		t.Errorf("run_number = %d", b.Results().RunNumber)
	}
}

func TestRunCounterProgression(t *testing.T) {
	b := loadedBackend(t, newFakeSolver())
	for want := 1; want <= 3; want++ {
		res, err := b.LocalRun(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.RunNumber != want {
			t.Errorf("run %d: run_number = %d", want, res.RunNumber)
		}
	}
}

func TestMembranePotential_VariableStepResamples(t *testing.T) {
	solver := newFakeSolver()
	b := loadedBackend(t, solver)

	if err := b.SetRunParams(neuroruntime.RunParams{
		neuroruntime.ParamTimeStep:    0.5,
		neuroruntime.ParamIntegration: neuroruntime.IntegrationVariable,
	}); err != nil {
		t.Fatal(err)
	}
	if solver.atol != 0.001 {
		t.Errorf("default tolerance = %v, want 0.001", solver.atol)
	}
	if _, err := b.LocalRun(context.Background()); err != nil {
		t.Fatal(err)
	}

	vm, err := b.MembranePotential()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vm.Values {
		x := float64(i) * 0.5
		if math.Abs(v-(-65+x/10)) > 1e-9 {
			t.Fatalf("sample %d: got %v, want %v", i, v, -65+x/10)
		}
	}
}

func TestSolverFailurePropagates(t *testing.T) {
	solver := newFakeSolver()
	b := loadedBackend(t, solver)

	solverErr := errors.New("trap: out of bounds memory access")
	solver.runErr = solverErr

	_, err := b.LocalRun(context.Background())
	if !errors.Is(err, solverErr) {
		t.Errorf("underlying solver error not reachable: %v", err)
	}
	if !errors.Is(err, &rterrors.Error{Phase: rterrors.PhaseRun, Kind: rterrors.KindEngineFailure}) {
		t.Errorf("error = %v, want engine_failure", err)
	}
}

func TestClose(t *testing.T) {
	solver := newFakeSolver()
	b := loadedBackend(t, solver)
	if err := b.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !solver.closed {
		t.Error("solver not released")
	}
}
