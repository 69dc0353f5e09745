package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
)

// Solver ABI export names. A model translation is a core module exporting
// these; attribute names cross the boundary through guest memory allocated
// with fnAlloc, and harvested series are read straight out of linear memory.
const (
	fnAlloc           = "alloc"
	fnSetAttr         = "set_attr"
	fnSetStopTime     = "set_stop_time"
	fnSetTimeStep     = "set_time_step"
	fnUseVariableStep = "use_variable_step"
	fnSetStimulus     = "set_stimulus"
	fnRun             = "run"
	fnSampleCount     = "sample_count"
	fnTimeSeries      = "time_series"
	fnVoltageSeries   = "voltage_series"
)

// Solver is one live instance of a compiled model translation. It is
// stateful across calls and not safe for concurrent use; distinct Solver
// instances are fully isolated.
type Solver struct {
	mod          api.Module
	alloc        api.Function
	setAttr      api.Function
	setStopTime  api.Function
	setTimeStep  api.Function
	useVarStep   api.Function
	setStimulus  api.Function
	run          api.Function
	sampleCount  api.Function
	timeSeries   api.Function
	voltageSer   api.Function
	variableStep bool
}

func newSolver(mod api.Module) (*Solver, error) {
	s := &Solver{mod: mod}
	for _, bind := range []struct {
		name     string
		fn       *api.Function
		optional bool
	}{
		{fnAlloc, &s.alloc, false},
		{fnSetAttr, &s.setAttr, false},
		{fnSetStopTime, &s.setStopTime, false},
		{fnSetTimeStep, &s.setTimeStep, false},
		{fnUseVariableStep, &s.useVarStep, true},
		{fnSetStimulus, &s.setStimulus, false},
		{fnRun, &s.run, false},
		{fnSampleCount, &s.sampleCount, false},
		{fnTimeSeries, &s.timeSeries, false},
		{fnVoltageSeries, &s.voltageSer, false},
	} {
		f := mod.ExportedFunction(bind.name)
		if f == nil && !bind.optional {
			return nil, fmt.Errorf("translation does not export %q", bind.name)
		}
		*bind.fn = f
	}
	if mod.Memory() == nil {
		return nil, fmt.Errorf("translation does not export linear memory")
	}
	return s, nil
}

// SetAttr writes one named model attribute into the solver.
func (s *Solver) SetAttr(ctx context.Context, name string, value float64) error {
	ptr, err := s.writeString(ctx, name)
	if err != nil {
		return err
	}
	res, err := s.setAttr.Call(ctx,
		uint64(ptr), uint64(uint32(len(name))), api.EncodeF64(value))
	if err != nil {
		return fmt.Errorf("set_attr: %w", err)
	}
	if status := api.DecodeI32(res[0]); status != 0 {
		return fmt.Errorf("set_attr %q: solver rejected with status %d", name, status)
	}
	return nil
}

// SetStopTime sets the simulation stop time in milliseconds.
func (s *Solver) SetStopTime(ctx context.Context, ms float64) error {
	_, err := s.setStopTime.Call(ctx, api.EncodeF64(ms))
	return err
}

// SetTimeStep sets the fixed integration step in milliseconds.
func (s *Solver) SetTimeStep(ctx context.Context, ms float64) error {
	_, err := s.setTimeStep.Call(ctx, api.EncodeF64(ms))
	return err
}

// UseVariableStep toggles adaptive integration with the given absolute
// tolerance. Translations built without adaptive stepping reject it.
func (s *Solver) UseVariableStep(ctx context.Context, active bool, atol float64) error {
	if s.useVarStep == nil {
		if active {
			return fmt.Errorf("translation does not support variable-step integration")
		}
		return nil
	}
	flag := int32(0)
	if active {
		flag = 1
	}
	if _, err := s.useVarStep.Call(ctx, api.EncodeI32(flag), api.EncodeF64(atol)); err != nil {
		return err
	}
	s.variableStep = active
	return nil
}

// VariableStep reports whether adaptive integration is active.
func (s *Solver) VariableStep() bool { return s.variableStep }

// SetStimulus configures the square current injection: amplitude in
// nanoamps, delay and duration in milliseconds.
func (s *Solver) SetStimulus(ctx context.Context, ampNanoAmps, delayMs, durationMs float64) error {
	_, err := s.setStimulus.Call(ctx,
		api.EncodeF64(ampNanoAmps), api.EncodeF64(delayMs), api.EncodeF64(durationMs))
	return err
}

// Run executes one simulation to the configured stop time.
func (s *Solver) Run(ctx context.Context) error {
	res, err := s.run.Call(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if status := api.DecodeI32(res[0]); status != 0 {
		return fmt.Errorf("run: solver failed with status %d", status)
	}
	return nil
}

// Harvest reads the recorded time and voltage series out of the solver's
// linear memory. Valid until the next Run on the same instance.
func (s *Solver) Harvest(ctx context.Context) (t, vm []float64, err error) {
	res, err := s.sampleCount.Call(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("sample_count: %w", err)
	}
	count := api.DecodeU32(res[0])

	mem := s.mod.Memory()
	if t, err = s.series(ctx, mem, s.timeSeries, fnTimeSeries, count); err != nil {
		return nil, nil, err
	}
	if vm, err = s.series(ctx, mem, s.voltageSer, fnVoltageSeries, count); err != nil {
		return nil, nil, err
	}
	return t, vm, nil
}

func (s *Solver) series(ctx context.Context, mem api.Memory, fn api.Function, name string, count uint32) ([]float64, error) {
	res, err := fn.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out, ok := readFloat64s(mem, api.DecodeU32(res[0]), count)
	if !ok {
		return nil, fmt.Errorf("%s: series out of memory bounds", name)
	}
	return out, nil
}

// Close releases the solver instance.
func (s *Solver) Close(ctx context.Context) error {
	return s.mod.Close(ctx)
}

// writeString copies a string into guest memory via the solver's allocator.
func (s *Solver) writeString(ctx context.Context, v string) (uint32, error) {
	res, err := s.alloc.Call(ctx, uint64(uint32(len(v))))
	if err != nil {
		return 0, fmt.Errorf("alloc: %w", err)
	}
	ptr := api.DecodeU32(res[0])
	if !s.mod.Memory().WriteString(ptr, v) {
		return 0, fmt.Errorf("alloc returned out-of-bounds pointer %d", ptr)
	}
	return ptr, nil
}

// float64Memory is the slice of api.Memory the series reader needs.
type float64Memory interface {
	ReadUint64Le(offset uint32) (uint64, bool)
}

// readFloat64s reads count little-endian IEEE 754 doubles starting at ptr.
func readFloat64s(mem float64Memory, ptr, count uint32) ([]float64, bool) {
	out := make([]float64, count)
	for i := uint32(0); i < count; i++ {
		bits, ok := mem.ReadUint64Le(ptr + i*8)
		if !ok {
			return nil, false
		}
		out[i] = math.Float64frombits(bits)
	}
	return out, true
}
