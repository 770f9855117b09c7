package resample

import (
	"math"
)

// Window selects the tapering window applied to the sinc prototype.
type Window int

const (
	// WindowHann is the classic raised-cosine window.
	WindowHann Window = iota
	// WindowKaiser trades main-lobe width against stop-band ripple via
	// KaiserBeta.
	WindowKaiser
)

func (w Window) String() string {
	switch w {
	case WindowHann:
		return "hann"
	case WindowKaiser:
		return "kaiser"
	default:
		return "unknown"
	}
}

// FilterSpec describes a 1-D resampling filter design.
type FilterSpec struct {
	Up       int     // up-conversion factor, >= 1
	Down     int     // down-conversion factor, >= 1
	Aperture int     // filter aperture; larger means sharper and longer
	Cut      float64 // cut frequency adjustment, 1.0 for the Nyquist limit; 0 defaults to 1.0
	Window   Window
	// KaiserBeta shapes the Kaiser window; ignored for Hann. 0 defaults
	// to 8.6 (roughly 90 dB stop-band).
	KaiserBeta float64
}

func (s FilterSpec) withDefaults() FilterSpec {
	if s.Cut == 0 {
		s.Cut = 1.0
	}
	if s.KaiserBeta == 0 {
		s.KaiserBeta = 8.6
	}
	return s
}

// DesignFilter builds a windowed-sinc low-pass filter for resampling by
// spec.Up/spec.Down. The cut frequency is the Nyquist limit of the input or
// output sampling frequency, whichever is lower, scaled by spec.Cut.
//
// The result is odd-length and symmetric. Each polyphase subset (stride
// phases = up*down/min(up,down)) is normalized to sum 1/phases, so a
// resizer multiplying the taps by its up factor sees unit DC gain per
// phase.
func DesignFilter(spec FilterSpec) ([]float32, error) {
	spec = spec.withDefaults()
	if spec.Up < 1 || spec.Down < 1 {
		return nil, invalidArg("filter design factors must be at least 1, got %d/%d", spec.Up, spec.Down)
	}
	if spec.Aperture < 1 {
		return nil, invalidArg("filter aperture must be at least 1, got %d", spec.Aperture)
	}
	if spec.Cut <= 0 {
		return nil, invalidArg("cut adjustment must be positive, got %v", spec.Cut)
	}

	minFactor := min(spec.Up, spec.Down)
	nyquist := float64(minFactor) / float64(2*spec.Up*spec.Down)

	// One side of the symmetric filter; the centre tap is sinc(0) = 1.
	var side []float64
	for n := 1; ; n++ {
		theta1 := float64(n) * math.Pi * 2.0 * nyquist
		theta2 := theta1 * 2.0 / float64(spec.Aperture)
		if theta2 >= math.Pi {
			break
		}
		theta1 *= spec.Cut
		coef := math.Sin(theta1) / theta1
		switch spec.Window {
		case WindowKaiser:
			x := theta2 / math.Pi
			coef *= i0(spec.KaiserBeta*math.Sqrt(1.0-x*x)) / i0(spec.KaiserBeta)
		default:
			coef *= 0.5 * (1.0 + math.Cos(theta2))
		}
		if math.Abs(coef) < 1.0e-16 {
			coef = 0.0
		}
		side = append(side, coef)
	}

	sideLen := len(side)
	taps := make([]float64, 1+2*sideLen)
	taps[sideLen] = 1.0
	for n, coef := range side {
		taps[sideLen-1-n] = coef
		taps[sideLen+1+n] = coef
	}

	if err := normalizePhases(taps, spec.Up, spec.Down); err != nil {
		return nil, err
	}

	out := make([]float32, len(taps))
	for i, v := range taps {
		out[i] = float32(v)
	}
	return out, nil
}

// normalizePhases normalizes each polyphase subset to sum 1, then scales
// the whole filter by 1/phases.
func normalizePhases(taps []float64, up, down int) error {
	phases := (up * down) / min(up, down)
	for p := 0; p < phases; p++ {
		sum := 0.0
		for i := p; i < len(taps); i += phases {
			sum += taps[i]
		}
		if math.Abs(sum) < 1.0e-12 {
			return invalidArg("degenerate filter design: phase %d of %d sums to zero", p, phases)
		}
		for i := p; i < len(taps); i += phases {
			taps[i] /= sum
		}
	}
	scale := 1.0 / float64(phases)
	for i := range taps {
		taps[i] *= scale
	}
	return nil
}

// Outer builds a 2-D filter as the outer product of a vertical and a
// horizontal 1-D filter, in row-major [y][x] order.
func Outer(yTaps, xTaps []float32) []float32 {
	out := make([]float32, len(yTaps)*len(xTaps))
	for y, yv := range yTaps {
		row := y * len(xTaps)
		for x, xv := range xTaps {
			out[row+x] = yv * xv
		}
	}
	return out
}

// FactorSeparable recovers the vertical and horizontal 1-D factors of a
// row-major [height][width] 2-D filter that was built as an outer product.
// It fails with a validation error when the filter is not separable within
// a small tolerance.
func FactorSeparable(fil []float32, height, width int) (yTaps, xTaps []float32, err error) {
	if height < 1 || width < 1 || len(fil) != height*width {
		return nil, nil, invalidArg("2-D filter dimensions %dx%d do not match %d coefficients", height, width, len(fil))
	}

	// Pivot on the largest magnitude coefficient to avoid dividing by a
	// zero crossing of the sinc.
	pivotY, pivotX := 0, 0
	pivot := float32(0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if v := fil[y*width+x]; absf(v) > absf(pivot) {
				pivot, pivotY, pivotX = v, y, x
			}
		}
	}
	if pivot == 0 {
		return nil, nil, invalidArg("2-D filter is all zeros")
	}

	xTaps = make([]float32, width)
	copy(xTaps, fil[pivotY*width:(pivotY+1)*width])
	yTaps = make([]float32, height)
	for y := 0; y < height; y++ {
		yTaps[y] = fil[y*width+pivotX] / pivot
	}

	// Verify the factorization reproduces the filter
	const tolerance = 1.0e-4
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			want := fil[y*width+x]
			got := yTaps[y] * xTaps[x]
			if absf(want-got) > tolerance {
				return nil, nil, invalidArg("2-D filter is not separable at [%d,%d]", y, x)
			}
		}
	}
	return yTaps, xTaps, nil
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// i0 is the zeroth order modified Bessel function of the first kind,
// computed by power series.
func i0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2.0
	for k := 1; k < 64; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term
		if term < 1e-21*sum {
			break
		}
	}
	return sum
}
