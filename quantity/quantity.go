package quantity

import (
	"strconv"
	"strings"

	"github.com/neurobench/neuro-runtime/errors"
)

// Unit is a physical unit tag.
type Unit string

const (
	PicoAmp     Unit = "pA"
	NanoAmp     Unit = "nA"
	Millisecond Unit = "ms"
	Millivolt   Unit = "mV"
)

// Quantity is a scalar tagged with a physical unit. The zero value is
// unitless and invalid for conversion.
//
// When a Quantity is parsed from text, the original numeric literal is
// retained so that writing it back to a textual engine interface reproduces
// the source digits exactly ("100.0 ms" round-trips as "100.0", not "100").
type Quantity struct {
	Value float64
	Unit  Unit

	text string
}

// PicoAmps returns an amplitude in picoamperes.
func PicoAmps(v float64) Quantity { return Quantity{Value: v, Unit: PicoAmp} }

// NanoAmps returns an amplitude in nanoamperes.
func NanoAmps(v float64) Quantity { return Quantity{Value: v, Unit: NanoAmp} }

// Milliseconds returns a duration in milliseconds.
func Milliseconds(v float64) Quantity { return Quantity{Value: v, Unit: Millisecond} }

// Millivolts returns a potential in millivolts.
func Millivolts(v float64) Quantity { return Quantity{Value: v, Unit: Millivolt} }

// Number returns the numeric part as text, without the unit suffix.
func (q Quantity) Number() string {
	if q.text != "" {
		return q.text
	}
	return strconv.FormatFloat(q.Value, 'g', -1, 64)
}

// String renders the quantity with its unit suffix, e.g. "-10.0 pA".
func (q Quantity) String() string {
	if q.Unit == "" {
		return q.Number()
	}
	return q.Number() + " " + string(q.Unit)
}

// Parse reads a quantity of the form "<number> <unit>", e.g. "-10.0 pA".
// The unit suffix is mandatory; a bare number or an unknown unit is a
// unit-format error, never passed through unconverted.
func Parse(s string) (Quantity, error) {
	num, unit, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Quantity{}, errors.UnitFormat(errors.PhaseNormalize, nil, s, "<number> <unit>")
	}
	unit = strings.TrimSpace(unit)
	switch Unit(unit) {
	case PicoAmp, NanoAmp, Millisecond, Millivolt:
	default:
		return Quantity{}, errors.UnitFormat(errors.PhaseNormalize, nil, s, "pA|nA|ms|mV")
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Quantity{}, errors.New(errors.PhaseNormalize, errors.KindUnitFormat).
			Value(s).
			Cause(err).
			Detail("cannot parse numeric part %q", num).
			Build()
	}
	return Quantity{Value: v, Unit: Unit(unit), text: num}, nil
}

// ParseAs parses s and verifies it carries exactly the expected unit.
func ParseAs(s string, want Unit) (Quantity, error) {
	q, err := Parse(s)
	if err != nil {
		return Quantity{}, err
	}
	if q.Unit != want {
		return Quantity{}, errors.UnitFormat(errors.PhaseNormalize, nil, s, string(want))
	}
	return q, nil
}

// Convert returns q expressed in the target unit. Each supported
// (source, target) pair is explicit; anything else is an error rather than
// a silent pass-through.
func (q Quantity) Convert(to Unit) (Quantity, error) {
	if q.Unit == to {
		return q, nil
	}
	switch {
	case q.Unit == PicoAmp && to == NanoAmp:
		return Quantity{Value: q.Value / 1000.0, Unit: NanoAmp}, nil
	case q.Unit == NanoAmp && to == PicoAmp:
		return Quantity{Value: q.Value * 1000.0, Unit: PicoAmp}, nil
	}
	return Quantity{}, errors.New(errors.PhaseNormalize, errors.KindUnitFormat).
		Value(q.String()).
		Detail("no conversion from %s to %s", q.Unit, to).
		Build()
}
