package trace

import (
	"math"

	"github.com/neurobench/neuro-runtime/errors"
)

// Resample converts an irregularly sampled series to a fixed step by linear
// interpolation. times must be strictly increasing and co-indexed with
// values; step is the target sampling period in the same unit as times.
//
// The output starts at times[0] and covers the full span of the input: it
// has floor((times[last]-times[0])/step)+1 samples, the last being the final
// cursor position not exceeding the input's end time. Where the cursor lands
// exactly on an input sample that sample's value is emitted; otherwise the
// two bracketing input samples are interpolated. Runs in a single forward
// pass over both axes.
func Resample(times, values []float64, step float64) ([]float64, error) {
	if len(times) == 0 {
		return nil, errors.EmptySeries(errors.PhaseResample, "time axis")
	}
	if len(times) != len(values) {
		return nil, errors.LengthMismatch(errors.PhaseResample, len(times), len(values))
	}
	if step <= 0 || math.IsNaN(step) {
		return nil, errors.InvalidInput(errors.PhaseResample, "step must be positive")
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, errors.NonmonotonicSeries(errors.PhaseResample, i, times[i-1], times[i])
		}
	}

	start := times[0]
	end := times[len(times)-1]

	// Cursor count from the covered span; the epsilon keeps an exactly
	// divisible span from losing its final step to rounding.
	steps := int(math.Floor((end-start)/step + 1e-9))

	out := make([]float64, 0, steps+1)
	vIndex := 0
	vTime := times[0]

	for i := 0; i <= steps; i++ {
		fTime := start + float64(i)*step

		if fTime == vTime {
			out = append(out, values[vIndex])
			continue
		}

		// Advance the irregular index until its time meets or passes the
		// cursor. No backtracking: the cursor only moves forward.
		for fTime > vTime && vIndex < len(times)-1 {
			vIndex++
			vTime = times[vIndex]
		}

		before := vIndex - 1
		if before < 0 {
			before = 0
		}
		v := values[before]
		// At the first cursor step before and after coincide; the zero
		// denominator is guarded and the sample passes through unchanged.
		if dt := vTime - times[before]; dt != 0 {
			v += (values[vIndex] - values[before]) * (fTime - times[before]) / dt
		}
		out = append(out, v)
	}

	return out, nil
}
