package quantity

import (
	"fmt"
	"strconv"

	"github.com/neurobench/neuro-runtime/errors"
)

// Stimulus field names inside the engine's explicit-input component.
const (
	FieldAmplitude = "amplitude"
	FieldDuration  = "duration"
	FieldDelay     = "delay"
)

// StimulusKey is the optional wrapping key a descriptor may be nested under
// when it arrives as part of a generic parameter map.
const StimulusKey = "injected_square_current"

// SquareCurrent describes a square current-injection stimulus at the caller
// boundary: picoamp-tagged amplitude, millisecond-tagged delay and duration.
// It is a value type; normalization operates on a copy and callers can reuse
// the original descriptor across runs.
type SquareCurrent struct {
	Amplitude Quantity
	Delay     Quantity
	Duration  Quantity
}

// SquareCurrentFromParams builds a descriptor from a loosely typed map,
// unwrapping one level of nesting under "injected_square_current" if present.
// Each field may be a Quantity, a tagged string like "-10.0 pA", or a bare
// number (taken in the field's canonical unit).
func SquareCurrentFromParams(params map[string]any) (SquareCurrent, error) {
	if nested, ok := params[StimulusKey].(map[string]any); ok {
		params = nested
	}

	var s SquareCurrent
	var err error
	if s.Amplitude, err = fieldQuantity(params, FieldAmplitude, PicoAmp); err != nil {
		return SquareCurrent{}, err
	}
	if s.Delay, err = fieldQuantity(params, FieldDelay, Millisecond); err != nil {
		return SquareCurrent{}, err
	}
	if s.Duration, err = fieldQuantity(params, FieldDuration, Millisecond); err != nil {
		return SquareCurrent{}, err
	}
	return s, nil
}

func fieldQuantity(params map[string]any, field string, canonical Unit) (Quantity, error) {
	raw, ok := params[field]
	if !ok {
		return Quantity{}, errors.New(errors.PhaseNormalize, errors.KindInvalidInput).
			Path(StimulusKey, field).
			Detail("missing field").
			Build()
	}
	switch v := raw.(type) {
	case Quantity:
		return v, nil
	case string:
		q, err := Parse(v)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Path = []string{StimulusKey, field}
			}
			return Quantity{}, err
		}
		return q, nil
	case float64:
		return Quantity{Value: v, Unit: canonical}, nil
	case int:
		return Quantity{Value: float64(v), Unit: canonical}, nil
	}
	return Quantity{}, errors.New(errors.PhaseNormalize, errors.KindInvalidInput).
		Path(StimulusKey, field).
		Value(raw).
		Detail("unsupported descriptor value type %T", raw).
		Build()
}

// NormalizedSquareCurrent is the engine-native form of a stimulus: current
// on the nanoamp scale, delay and duration as millisecond numeric strings
// ready to be written into the engine's textual interface.
type NormalizedSquareCurrent struct {
	AmplitudeNanoAmps float64
	DelayMs           string
	DurationMs        string
}

// Normalize converts the descriptor to the native-engine convention
// (NEURON's IClamp units: del ms, dur ms, amp nA). Amplitude must carry a
// current unit and delay/duration milliseconds; anything else fails
// explicitly. The receiver is never mutated.
func (s SquareCurrent) Normalize() (NormalizedSquareCurrent, error) {
	switch s.Amplitude.Unit {
	case PicoAmp, NanoAmp:
	default:
		return NormalizedSquareCurrent{}, errors.UnitFormat(errors.PhaseNormalize,
			[]string{StimulusKey, FieldAmplitude}, s.Amplitude.String(), string(PicoAmp))
	}
	amp, err := s.Amplitude.Convert(NanoAmp)
	if err != nil {
		return NormalizedSquareCurrent{}, err
	}

	if s.Delay.Unit != Millisecond {
		return NormalizedSquareCurrent{}, errors.UnitFormat(errors.PhaseNormalize,
			[]string{StimulusKey, FieldDelay}, s.Delay.String(), string(Millisecond))
	}
	if s.Duration.Unit != Millisecond {
		return NormalizedSquareCurrent{}, errors.UnitFormat(errors.PhaseNormalize,
			[]string{StimulusKey, FieldDuration}, s.Duration.String(), string(Millisecond))
	}

	return NormalizedSquareCurrent{
		AmplitudeNanoAmps: amp.Value,
		DelayMs:           s.Delay.Number(),
		DurationMs:        s.Duration.Number(),
	}, nil
}

// StimulusFieldName synthesizes the engine-internal variable name for one
// field of the explicit input bound to the resolved stimulus and cell
// components. The translation step does not expose stable generic names, so
// the name is predicted from the component identifiers.
func StimulusFieldName(stimulusID, cellID, field string) string {
	return fmt.Sprintf("explicitInput_%s%s_pop0.%s", stimulusID, cellID, field)
}

// Assignment is one engine variable assignment in textual form.
type Assignment struct {
	Name  string
	Value string
}

// Assignments returns the engine variable writes realizing the stimulus on
// the explicit input identified by the given component ids.
func (n NormalizedSquareCurrent) Assignments(stimulusID, cellID string) []Assignment {
	return []Assignment{
		{Name: StimulusFieldName(stimulusID, cellID, FieldAmplitude), Value: strconv.FormatFloat(n.AmplitudeNanoAmps, 'g', -1, 64)},
		{Name: StimulusFieldName(stimulusID, cellID, FieldDuration), Value: n.DurationMs},
		{Name: StimulusFieldName(stimulusID, cellID, FieldDelay), Value: n.DelayMs},
	}
}
