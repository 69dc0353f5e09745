package jneuroml

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	neuroruntime "github.com/neurobench/neuro-runtime"
	"github.com/neurobench/neuro-runtime/errors"
	"github.com/neurobench/neuro-runtime/lems"
	"github.com/neurobench/neuro-runtime/quantity"
	"github.com/neurobench/neuro-runtime/trace"
)

// DefaultExecutable is the model compiler's command name, expected on PATH.
const DefaultExecutable = "jnml"

// Runner executes one whole simulation of the description at lemsPath and
// returns the engine's combined output for diagnostics.
type Runner interface {
	Run(ctx context.Context, lemsPath string) ([]byte, error)
}

type execRunner struct {
	executable string
}

func (r execRunner) Run(ctx context.Context, lemsPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.executable, lemsPath, "-nogui")
	cmd.Dir = filepath.Dir(lemsPath)
	return cmd.CombinedOutput()
}

// Options configures a Backend.
type Options struct {
	// LEMSPath is the declarative model description; the engine consumes it
	// directly, no separate translation step.
	LEMSPath string
	// OutputPath is the table the engine writes. Defaults to the description
	// path with a .dat extension.
	OutputPath string
	// Executable overrides the engine command name.
	Executable string
	// Runner overrides whole-run execution. Defaults to running Executable.
	Runner Runner
	// Policy controls component classification ambiguity.
	Policy lems.Policy
}

// Backend delegates each run wholesale to the external engine executable and
// reads results back from the output table it writes. There is no live
// handle; configuration is applied by rewriting the model description, which
// makes instances safe to run in parallel processes.
type Backend struct {
	opts    Options
	loaded  bool
	res     lems.Resolution
	attrs   neuroruntime.Attrs
	params  neuroruntime.RunParams
	results *neuroruntime.Results
	runs    int
}

func New(opts Options) *Backend {
	if opts.Executable == "" {
		opts.Executable = DefaultExecutable
	}
	if opts.Runner == nil {
		opts.Runner = execRunner{executable: opts.Executable}
	}
	if opts.OutputPath == "" && opts.LEMSPath != "" {
		ext := filepath.Ext(opts.LEMSPath)
		opts.OutputPath = strings.TrimSuffix(opts.LEMSPath, ext) + ".dat"
	}
	return &Backend{
		opts:   opts,
		attrs:  make(neuroruntime.Attrs),
		params: make(neuroruntime.RunParams),
	}
}

func (b *Backend) Name() string { return "jNeuroML" }

// LoadModel resolves the stimulus and cell component identifiers from the
// description. The engine loads the description itself on every run, so
// there is nothing to bind beyond the resolution.
func (b *Backend) LoadModel(ctx context.Context) (neuroruntime.Backend, error) {
	if b.loaded {
		return b, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	components, err := lems.ReadComponents(b.opts.LEMSPath)
	if err != nil {
		return nil, err
	}
	res, err := lems.Classify(components, b.opts.Policy)
	if err != nil {
		return nil, err
	}

	b.res = res
	b.loaded = true
	return b, nil
}

// SetAttrs merges attrs and writes each value into the cell component of
// the description so the next run observes it. Values are written as bare
// numbers; the description declares their dimensions.
func (b *Backend) SetAttrs(attrs neuroruntime.Attrs) error {
	if !b.loaded {
		return errors.NotInitialized(errors.PhaseConfig, "model")
	}
	if err := b.res.Require(); err != nil {
		return err
	}

	b.attrs.Merge(attrs)
	edits := make(map[string]string, len(attrs))
	for name, value := range attrs {
		edits[name] = strconv.FormatFloat(value, 'g', -1, 64)
	}
	return lems.SetComponentAttrs(b.opts.LEMSPath, b.res.CellID, edits)
}

// SetRunParams merges params and pushes stop time and step into the
// description's Simulation element. There is no recording instrumentation
// to re-arm; the engine writes its output table unconditionally.
func (b *Backend) SetRunParams(params neuroruntime.RunParams) error {
	if !b.loaded {
		return errors.NotInitialized(errors.PhaseConfig, "model")
	}

	b.params.Merge(params)

	edits := make(map[string]string)
	if v, ok := b.params.Float(neuroruntime.ParamStopTime); ok {
		edits["length"] = fmt.Sprintf("%gms", v)
	}
	if v, ok := b.params.Float(neuroruntime.ParamTimeStep); ok {
		edits["step"] = fmt.Sprintf("%gms", v)
	}
	if len(edits) == 0 {
		return nil
	}
	return lems.SetSimulationAttrs(b.opts.LEMSPath, edits)
}

// InjectSquareCurrent normalizes the descriptor, writes it into the
// stimulus component of the description, and triggers exactly one run.
func (b *Backend) InjectSquareCurrent(ctx context.Context, stim quantity.SquareCurrent) error {
	if !b.loaded {
		return errors.NotInitialized(errors.PhaseInject, "model")
	}
	if err := b.res.Require(); err != nil {
		return err
	}

	n, err := stim.Normalize()
	if err != nil {
		return err
	}

	err = lems.SetComponentAttrs(b.opts.LEMSPath, b.res.StimulusID, map[string]string{
		quantity.FieldAmplitude: strconv.FormatFloat(n.AmplitudeNanoAmps, 'g', -1, 64) + "nA",
		quantity.FieldDelay:     n.DelayMs + "ms",
		quantity.FieldDuration:  n.DurationMs + "ms",
	})
	if err != nil {
		return err
	}

	_, err = b.LocalRun(ctx)
	return err
}

// LocalRun executes the engine once and parses the output table it wrote.
// The table is in the engine's SI convention (seconds, volts) and is scaled
// to milliseconds and millivolts on harvest.
func (b *Backend) LocalRun(ctx context.Context) (*neuroruntime.Results, error) {
	if !b.loaded {
		return nil, errors.NotInitialized(errors.PhaseRun, "model")
	}

	out, err := b.opts.Runner.Run(ctx, b.opts.LEMSPath)
	if err != nil {
		e := errors.ExecFailure("engine run failed", err)
		e.Value = string(out)
		return nil, e
	}

	t, vm, err := readOutputTable(b.opts.OutputPath)
	if err != nil {
		return nil, err
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

// MembranePotential returns the last run's voltage. The scripted engine
// integrates with a fixed step, so the sampling period is read off the
// harvested time axis directly.
func (b *Backend) MembranePotential() (*trace.AnalogSignal, error) {
	if b.results == nil {
		return nil, errors.NotInitialized(errors.PhaseHarvest, "results")
	}
	if len(b.results.T) < 2 {
		return nil, errors.EmptySeries(errors.PhaseHarvest, "output time axis")
	}
	step := b.results.T[1] - b.results.T[0]
	return trace.NewMembranePotential(b.results.VM, step), nil
}

// Results returns the most recent run's results, or nil before the first run.
func (b *Backend) Results() *neuroruntime.Results { return b.results }

// Attrs returns the merged attribute mapping.
func (b *Backend) Attrs() neuroruntime.Attrs { return b.attrs }

// RunParams returns the merged run parameter mapping.
func (b *Backend) RunParams() neuroruntime.RunParams { return b.params }

// readOutputTable parses the two-column table the engine writes: one sample
// per line, time then voltage, whitespace separated, in seconds and volts.
func readOutputTable(path string) ([]float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.PhaseHarvest, errors.KindNotFound, err, "engine output table")
	}
	defer f.Close()

	var t, vm []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, nil, errors.New(errors.PhaseHarvest, errors.KindInvalidInput).
				Detail("output table line %d: want 2 columns, got %d", line, len(fields)).
				Build()
		}
		tv, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, errors.Wrap(errors.PhaseHarvest, errors.KindInvalidInput, err,
				fmt.Sprintf("output table line %d: time column", line))
		}
		vv, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, errors.Wrap(errors.PhaseHarvest, errors.KindInvalidInput, err,
				fmt.Sprintf("output table line %d: voltage column", line))
		}
		t = append(t, tv*1000)
		vm = append(vm, vv*1000)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errors.Wrap(errors.PhaseHarvest, errors.KindInvalidInput, err, "read output table")
	}
	if len(t) == 0 {
		return nil, nil, errors.EmptySeries(errors.PhaseHarvest, "engine output table")
	}
	return t, vm, nil
}

var _ neuroruntime.Backend = (*Backend)(nil)
