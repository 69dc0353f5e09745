package trace

import (
	"math"

	"github.com/neurobench/neuro-runtime/quantity"
)

// AnalogSignal is a uniformly sampled scalar series: membrane potential in
// millivolts with an explicit sampling period in milliseconds. This is the
// single externally consumed representation, regardless of whether the
// producing engine stepped uniformly or adaptively.
type AnalogSignal struct {
	Values         []float64         // sample values, in Units
	Units          quantity.Unit     // value unit, mV for membrane potential
	SamplingPeriod quantity.Quantity // uniform period between samples, ms
}

// NewMembranePotential wraps a uniformly sampled voltage series.
func NewMembranePotential(values []float64, periodMs float64) *AnalogSignal {
	return &AnalogSignal{
		Values:         values,
		Units:          quantity.Millivolt,
		SamplingPeriod: quantity.Milliseconds(periodMs),
	}
}

// Times reconstructs the implicit time axis from the sampling period.
func (s *AnalogSignal) Times() []float64 {
	times := make([]float64, len(s.Values))
	for i := range times {
		times[i] = float64(i) * s.SamplingPeriod.Value
	}
	return times
}

// Duration returns the span covered by the signal, in the period's unit.
func (s *AnalogSignal) Duration() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return float64(len(s.Values)-1) * s.SamplingPeriod.Value
}

// Finite reports whether every sample is a finite number. A false result is
// an expected experimental outcome for unstable models, consumed by
// higher-level sanity checks; it is data, not an error.
func (s *AnalogSignal) Finite() bool {
	return Finite(s.Values)
}

// Finite reports whether every element of values is neither NaN nor Inf.
func Finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
