package jneuroml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	neuroruntime "github.com/neurobench/neuro-runtime"
	rterrors "github.com/neurobench/neuro-runtime/errors"
	"github.com/neurobench/neuro-runtime/quantity"
)

const modelDoc = `<Lems>
    <izhikevich2007Cell id="RS" C="100pF"/>
    <pulseGenerator id="stim1" delay="50ms" duration="200ms" amplitude="0.1nA"/>
    <network id="net1"/>
    <Simulation id="sim1" length="300ms" step="0.05ms"/>
</Lems>`

// fakeRunner stands in for the external engine: it writes a fixed-step
// output table in the engine's SI convention.
type fakeRunner struct {
	calls   int
	samples int
	err     error
	output  string // engine diagnostics
}

func (r *fakeRunner) Run(_ context.Context, lemsPath string) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return []byte(r.output), r.err
	}
	var b strings.Builder
	b.WriteString("# time(s)\tv(V)\n")
	for i := 0; i < r.samples; i++ {
		t := float64(i) * 0.0001 // 0.1 ms step, in seconds
		v := -0.065 + float64(i)*0.001
		fmt.Fprintf(&b, "%g\t%g\n", t, v)
	}
	ext := filepath.Ext(lemsPath)
	out := strings.TrimSuffix(lemsPath, ext) + ".dat"
	if err := os.WriteFile(out, []byte(b.String()), 0o644); err != nil {
		return nil, err
	}
	return []byte("jNeuroML run completed"), nil
}

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "LEMS_test.xml")
	if err := os.WriteFile(path, []byte(modelDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadedBackend(t *testing.T, runner Runner) *Backend {
	t.Helper()
	b := New(Options{LEMSPath: writeModel(t), Runner: runner})
	if _, err := b.LoadModel(context.Background()); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestLoadModelResolvesComponents(t *testing.T) {
	b := loadedBackend(t, &fakeRunner{samples: 10})
	if b.res.StimulusID != "stim1" || b.res.CellID != "RS" {
		t.Errorf("resolution = %+v", b.res)
	}
}

func TestSetAttrs_RewritesDescription(t *testing.T) {
	b := loadedBackend(t, &fakeRunner{samples: 10})

	if err := b.SetAttrs(neuroruntime.Attrs{"C": 150}); err != nil {
		t.Fatal(err)
	}
	if err := b.SetAttrs(neuroruntime.Attrs{"k": 0.7}); err != nil {
		t.Fatal(err)
	}

	attrs := b.Attrs()
	if len(attrs) != 2 || attrs["C"] != 150 || attrs["k"] != 0.7 {
		t.Errorf("attrs = %v", attrs)
	}

	doc, err := os.ReadFile(b.opts.LEMSPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`C="150"`, `k="0.7"`} {
		if !strings.Contains(string(doc), want) {
			t.Errorf("description missing %s:\n%s", want, doc)
		}
	}
}

func TestSetRunParams_RewritesSimulation(t *testing.T) {
	b := loadedBackend(t, &fakeRunner{samples: 10})

	if err := b.SetRunParams(neuroruntime.RunParams{
		neuroruntime.ParamStopTime: 600.0,
		neuroruntime.ParamTimeStep: 0.025,
	}); err != nil {
		t.Fatal(err)
	}

	doc, err := os.ReadFile(b.opts.LEMSPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`length="600ms"`, `step="0.025ms"`} {
		if !strings.Contains(string(doc), want) {
			t.Errorf("Simulation element missing %s:\n%s", want, doc)
		}
	}
}

func TestInjectSquareCurrent(t *testing.T) {
	runner := &fakeRunner{samples: 100}
	b := loadedBackend(t, runner)

	stim := quantity.SquareCurrent{
		Amplitude: quantity.PicoAmps(-10),
		Delay:     quantity.Milliseconds(100),
		Duration:  quantity.Milliseconds(500),
	}
	if err := b.InjectSquareCurrent(context.Background(), stim); err != nil {
		t.Fatal(err)
	}

	doc, err := os.ReadFile(b.opts.LEMSPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`amplitude="-0.01nA"`, `delay="100ms"`, `duration="500ms"`} {
		if !strings.Contains(string(doc), want) {
			t.Errorf("stimulus component missing %s:\n%s", want, doc)
		}
	}

	if runner.calls != 1 {
		t.Errorf("engine ran %d times, want exactly 1", runner.calls)
	}
	if b.Results() == nil || b.Results().RunNumber != 1 {
		t.Errorf("results = %+v", b.Results())
	}
}

func TestLocalRun_HarvestScaling(t *testing.T) {
	b := loadedBackend(t, &fakeRunner{samples: 5})

	res, err := b.LocalRun(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// SI seconds/volts in the table become milliseconds/millivolts.
	if res.T[1] != 0.1 {
		t.Errorf("t[1] = %v, want 0.1 ms", res.T[1])
	}
	if res.VM[0] != -65 {
		t.Errorf("vm[0] = %v, want -65 mV", res.VM[0])
	}
	if !res.Finite {
		t.Error("finite trace flagged non-finite")
	}
}

func TestRunCounterProgression(t *testing.T) {
	b := loadedBackend(t, &fakeRunner{samples: 5})
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

func TestMembranePotential_PeriodFromTimeAxis(t *testing.T) {
	b := loadedBackend(t, &fakeRunner{samples: 50})
	if _, err := b.LocalRun(context.Background()); err != nil {
		t.Fatal(err)
	}

	vm, err := b.MembranePotential()
	if err != nil {
		t.Fatal(err)
	}
	if vm.SamplingPeriod.Value != 0.1 {
		t.Errorf("sampling period = %v, want 0.1 ms", vm.SamplingPeriod.Value)
	}
	if vm.Units != quantity.Millivolt {
		t.Errorf("units = %v", vm.Units)
	}
	if len(vm.Values) != 50 {
		t.Errorf("samples = %d, want 50", len(vm.Values))
	}
}

func TestExecFailurePropagates(t *testing.T) {
	execErr := errors.New("exit status 1")
	b := loadedBackend(t, &fakeRunner{err: execErr, output: "Exception in thread main"})

	_, err := b.LocalRun(context.Background())
	if err == nil {
		t.Fatal("engine failure swallowed")
	}
	if !errors.Is(err, execErr) {
		t.Errorf("underlying exec error not reachable: %v", err)
	}
	var e *rterrors.Error
	if !errors.As(err, &e) || e.Kind != rterrors.KindExecFailure {
		t.Fatalf("error = %v, want exec_failure", err)
	}
	if got, _ := e.Value.(string); !strings.Contains(got, "Exception") {
		t.Errorf("engine diagnostics not captured: %q", got)
	}
}

func TestOperationsBeforeLoadModel(t *testing.T) {
	b := New(Options{LEMSPath: "missing.xml", Runner: &fakeRunner{}})
	if err := b.SetAttrs(neuroruntime.Attrs{"a": 1}); err == nil {
		t.Error("SetAttrs before LoadModel succeeded")
	}
	if _, err := b.LocalRun(context.Background()); err == nil {
		t.Error("LocalRun before LoadModel succeeded")
	}
}

func TestMissingOutputTable(t *testing.T) {
	// A runner that succeeds without writing the table.
	b := loadedBackend(t, runnerFunc(func(context.Context, string) ([]byte, error) {
		return nil, nil
	}))

	_, err := b.LocalRun(context.Background())
	if !errors.Is(err, &rterrors.Error{Phase: rterrors.PhaseHarvest, Kind: rterrors.KindNotFound}) {
		t.Errorf("error = %v, want harvest not_found", err)
	}
}

type runnerFunc func(ctx context.Context, lemsPath string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, lemsPath string) ([]byte, error) {
	return f(ctx, lemsPath)
}
