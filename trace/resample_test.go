package trace

import (
	"errors"
	"math"
	"testing"

	rterrors "github.com/neurobench/neuro-runtime/errors"
)

func TestResample_UniformInputIsIdempotent(t *testing.T) {
	for _, n := range []int{2, 5, 64, 1000} {
		const step = 0.25
		times := make([]float64, n)
		values := make([]float64, n)
		for i := range times {
			times[i] = float64(i) * step
			values[i] = math.Sin(float64(i) / 7)
		}

		got, err := Resample(times, values, step)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("n=%d: got %d samples, want %d", n, len(got), n)
		}
		for i := range got {
			if math.Abs(got[i]-values[i]) > 1e-12 {
				t.Fatalf("n=%d sample %d: got %v, want %v", n, i, got[i], values[i])
			}
		}
	}
}

func TestResample_EndpointCoverage(t *testing.T) {
	tests := []struct {
		name  string
		times []float64
		step  float64
		want  int // floor(D/F) + 1
	}{
		{"exact multiple", []float64{0, 0.7, 1.9, 4.0}, 0.5, 9},
		{"non multiple", []float64{0, 0.3, 1.1, 3.7}, 0.5, 8},
		{"step larger than span", []float64{0, 0.1, 0.2}, 1.0, 1},
		{"two samples", []float64{0, 10}, 2.5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]float64, len(tt.times))
			for i, x := range tt.times {
				values[i] = 2*x + 1
			}
			got, err := Resample(tt.times, values, tt.step)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d samples, want %d", len(got), tt.want)
			}
			if got[0] != values[0] {
				t.Errorf("first sample = %v, want input's first value %v exactly", got[0], values[0])
			}
		})
	}
}

func TestResample_LinearSignalReconstructedExactly(t *testing.T) {
	// A linear signal survives linear interpolation unchanged wherever the
	// cursor lands.
	times := []float64{0, 0.13, 0.55, 0.9, 2.1, 2.7, 5.0}
	values := make([]float64, len(times))
	for i, x := range times {
		values[i] = -3*x + 2
	}

	got, err := Resample(times, values, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		x := float64(i) * 0.2
		want := -3*x + 2
		if math.Abs(v-want) > 1e-9 {
			t.Errorf("sample %d (t=%v): got %v, want %v", i, x, v, want)
		}
	}
}

func TestResample_MonotoneInterpolationStaysBracketed(t *testing.T) {
	times := []float64{0, 1.0, 3.0, 3.5, 6.0}
	values := []float64{0, 1.0, 4.0, 9.0, 11.0} // monotonically increasing

	got, err := Resample(times, values, 0.4)
	if err != nil {
		t.Fatal(err)
	}

	vIndex := 0
	for i, v := range got {
		fTime := float64(i) * 0.4
		for fTime > times[vIndex] && vIndex < len(times)-1 {
			vIndex++
		}
		lo := values[0]
		if vIndex > 0 {
			lo = values[vIndex-1]
		}
		hi := values[vIndex]
		if v < lo-1e-12 || v > hi+1e-12 {
			t.Errorf("sample %d (t=%v) = %v outside bracketing native samples [%v, %v]", i, fTime, v, lo, hi)
		}
	}
}

func TestResample_Errors(t *testing.T) {
	tests := []struct {
		name   string
		times  []float64
		values []float64
		step   float64
		kind   rterrors.Kind
	}{
		{"empty", nil, nil, 0.1, rterrors.KindEmptySeries},
		{"length mismatch", []float64{0, 1}, []float64{0}, 0.1, rterrors.KindLengthMismatch},
		{"non increasing", []float64{0, 1, 1}, []float64{0, 1, 2}, 0.1, rterrors.KindNonmonotonicSeries},
		{"decreasing", []float64{0, 2, 1}, []float64{0, 1, 2}, 0.1, rterrors.KindNonmonotonicSeries},
		{"zero step", []float64{0, 1}, []float64{0, 1}, 0, rterrors.KindInvalidInput},
		{"negative step", []float64{0, 1}, []float64{0, 1}, -0.5, rterrors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resample(tt.times, tt.values, tt.step)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, &rterrors.Error{Phase: rterrors.PhaseResample, Kind: tt.kind}) {
				t.Errorf("error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestResample_SingleSample(t *testing.T) {
	got, err := Resample([]float64{2.5}, []float64{-65}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != -65 {
		t.Errorf("got %v, want [-65]", got)
	}
}
